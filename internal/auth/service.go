// Package auth implements the login, registration and logout flows on top
// of the API client and the session store.
package auth

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/eventpro/internal/api"
	"github.com/felixgeelhaar/eventpro/internal/errors"
	"github.com/felixgeelhaar/eventpro/internal/log"
	"github.com/felixgeelhaar/eventpro/internal/metrics"
	"github.com/felixgeelhaar/eventpro/internal/session"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

// Service ties the backend auth endpoints to session persistence.
type Service struct {
	client  *api.Client
	store   *session.Store
	logger  *log.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics records session writes
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source used for claim expiry
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an auth service
func NewService(client *api.Client, store *session.Store, opts ...Option) *Service {
	s := &Service{
		client: client,
		store:  store,
		logger: log.DefaultLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "auth")
	return s
}

// Login exchanges credentials for a token and stores exactly the returned
// token and user. On any failure the stored session is left untouched.
func (s *Service) Login(ctx context.Context, email, password string) (*session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.New(errors.ErrCodeCredentialsMissing, "email and password are required").
			WithSuggestion("Pass --email and --password, or run interactively to be prompted")
	}

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.logger.DebugContext(ctx, "login failed", "email", email, "error", err.Error())
		return nil, s.loginError(err)
	}

	err = s.store.Set(ctx, resp.Token, resp.User)
	s.metrics.ObserveSessionWrite("login", err)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "logged in", "user_id", resp.User.ID, "role", resp.User.Role.String())
	return &session.Session{Token: resp.Token, User: resp.User}, nil
}

// Register creates an account. When the backend answers with a token the
// session is stored directly; otherwise, if autoLogin is set, the new
// credentials are used to log in. A nil session means the account exists
// but nobody is logged in.
func (s *Service) Register(ctx context.Context, req api.RegisterRequest, autoLogin bool) (*session.Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return nil, errors.New(errors.ErrCodeCredentialsMissing, "email and password are required")
	}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRegisterFailed, api.Message(err), err).
			WithSuggestion("The email may already be registered")
	}

	if resp.Token != "" {
		err := s.store.Set(ctx, resp.Token, resp.User)
		s.metrics.ObserveSessionWrite("register", err)
		if err != nil {
			return nil, err
		}
		return &session.Session{Token: resp.Token, User: resp.User}, nil
	}

	if !autoLogin {
		return nil, nil
	}
	return s.Login(ctx, req.Email, req.Password)
}

// Logout clears the stored session. The backend is not contacted.
func (s *Service) Logout(ctx context.Context) error {
	err := s.store.Clear(ctx)
	s.metrics.ObserveSessionWrite("logout", err)
	if err == nil {
		s.logger.InfoContext(ctx, "logged out")
	}
	return err
}

// Status describes the current login state
type Status struct {
	Authenticated bool            `json:"authenticated" yaml:"authenticated"`
	User          types.User      `json:"user" yaml:"user"`
	Backend       string          `json:"backend" yaml:"backend"`
	Claims        *session.Claims `json:"claims,omitempty" yaml:"claims,omitempty"`
	Expired       bool            `json:"expired,omitempty" yaml:"expired,omitempty"`
	Profile       *types.User     `json:"profile,omitempty" yaml:"profile,omitempty"`
	ProfileError  string          `json:"profile_error,omitempty" yaml:"profile_error,omitempty"`
}

// Status reports the stored session. Token claims are decoded when the
// token is a JWT. With verify set, the backend profile is fetched too;
// a failure there is reported, never acted upon.
func (s *Service) Status(ctx context.Context, verify bool) Status {
	sess := s.store.Get(ctx)
	st := Status{
		Authenticated: sess.Authenticated(),
		User:          sess.User,
		Backend:       s.store.Backend().Name(),
	}
	if !st.Authenticated {
		return st
	}

	if claims, err := session.TokenClaims(sess.Token); err == nil {
		st.Claims = &claims
		st.Expired = claims.Expired(s.now())
	}

	if verify {
		profile, err := s.client.Profile(ctx)
		if err != nil {
			st.ProfileError = api.Message(err)
		} else {
			st.Profile = profile
		}
	}
	return st
}

// Session returns the stored session
func (s *Service) Session(ctx context.Context) session.Session {
	return s.store.Get(ctx)
}

func (s *Service) loginError(err error) error {
	var reqErr *api.RequestError
	if stderrors.As(err, &reqErr) && reqErr.IsNetwork() {
		return errors.NewNetworkError(s.client.BaseURL(), err)
	}
	return errors.Wrap(errors.ErrCodeLoginFailed, api.Message(err), err).
		WithSuggestion("Check your email and password")
}
