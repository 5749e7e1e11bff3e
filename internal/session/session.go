// Package session owns the persisted login state: an opaque bearer token and
// the user record returned at login.
//
// Token and user are written and cleared together by convention only. If
// the backing storage is edited externally a reader may see one without the
// other; callers must tolerate that.
package session

import (
	"context"
	"encoding/json"

	"github.com/felixgeelhaar/eventpro/internal/errors"
	"github.com/felixgeelhaar/eventpro/internal/log"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

// Session is a snapshot of the persisted login state.
type Session struct {
	Token string     `json:"token,omitempty" yaml:"token,omitempty"`
	User  types.User `json:"user" yaml:"user"`
}

// Authenticated reports whether a token is present. Token validity is never
// checked locally.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Store reads and writes the session through a KV backend.
type Store struct {
	kv     KV
	logger *log.Logger
}

// NewStore creates a store over kv. A nil logger uses the process default.
func NewStore(kv KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Store{kv: kv, logger: logger.With("component", "session", "backend", kv.Name())}
}

// Backend returns the underlying KV
func (s *Store) Backend() KV {
	return s.kv
}

// Get returns the current session. It never fails: missing keys, storage
// errors and malformed user JSON all degrade to empty values.
func (s *Store) Get(ctx context.Context) Session {
	var sess Session

	token, ok, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read token", "error", err.Error())
	} else if ok {
		sess.Token = token
	}

	raw, ok, err := s.kv.Get(ctx, KeyUser)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read user", "error", err.Error())
	} else if ok {
		sess.User = ParseOrEmpty[types.User](raw)
	}

	return sess
}

// Token returns the stored bearer token, or "" when absent.
// It satisfies the API client's token source.
func (s *Store) Token(ctx context.Context) string {
	token, ok, err := s.kv.Get(ctx, KeyToken)
	if err != nil || !ok {
		return ""
	}
	return token
}

// Set writes token and user. The two writes are independent; a failure
// after the first leaves a partial session behind.
func (s *Store) Set(ctx context.Context, token string, user types.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreWrite, s.kv.Name(), err)
	}

	if err := s.kv.Set(ctx, KeyToken, token); err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreWrite, s.kv.Name(), err)
	}
	if err := s.kv.Set(ctx, KeyUser, string(data)); err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreWrite, s.kv.Name(), err)
	}

	s.logger.DebugContext(ctx, "session stored", "user_id", user.ID, "role", user.Role.String())
	return nil
}

// Clear removes token and user.
func (s *Store) Clear(ctx context.Context) error {
	var firstErr error
	for _, key := range []string{KeyToken, KeyUser} {
		if err := s.kv.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = errors.NewStoreError(errors.ErrCodeStoreWrite, s.kv.Name(), err)
		}
	}
	if firstErr == nil {
		s.logger.DebugContext(ctx, "session cleared")
	}
	return firstErr
}

// ParseOrEmpty decodes raw JSON into T and returns the zero T when raw is
// empty or malformed. Every stored JSON value is read through it.
func ParseOrEmpty[T any](raw string) T {
	var v T
	if raw == "" {
		return v
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		var zero T
		return zero
	}
	return v
}
