package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/eventpro/internal/log"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

func newTestStore(kv KV) *Store {
	return NewStore(kv, log.Nop())
}

// failingKV returns err from every operation
type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingKV) Set(context.Context, string, string) error         { return f.err }
func (f failingKV) Delete(context.Context, string) error              { return f.err }
func (f failingKV) Name() string                                      { return "failing" }

func TestSetThenGetRoundTrip(t *testing.T) {
	backends := map[string]KV{
		"memory": NewMemoryKV(),
		"file":   NewFileKV(filepath.Join(t.TempDir(), DefaultFileName)),
	}

	users := []types.User{
		{ID: "1", Name: "A", Role: types.RoleUser},
		{ID: "42", Name: "Admin", Email: "admin@example.com", Role: types.RoleAdmin},
		{},
	}

	for name, kv := range backends {
		t.Run(name, func(t *testing.T) {
			store := newTestStore(kv)
			ctx := context.Background()

			for _, u := range users {
				require.NoError(t, store.Set(ctx, "tok-"+u.ID, u))

				got := store.Get(ctx)
				assert.Equal(t, "tok-"+u.ID, got.Token)
				assert.Equal(t, u, got.User)
				assert.True(t, got.Authenticated())
			}
		})
	}
}

func TestGetEmptyStorage(t *testing.T) {
	store := newTestStore(NewMemoryKV())

	got := store.Get(context.Background())
	assert.Empty(t, got.Token)
	assert.True(t, got.User.IsZero())
	assert.False(t, got.Authenticated())
}

func TestGetCorruptUserDegradesToEmpty(t *testing.T) {
	corrupt := []string{"{not json", "[1,2,3]", `"just a string"`, "null", ""}

	for _, raw := range corrupt {
		t.Run(raw, func(t *testing.T) {
			kv := NewMemoryKV()
			ctx := context.Background()
			require.NoError(t, kv.Set(ctx, KeyToken, "abc"))
			require.NoError(t, kv.Set(ctx, KeyUser, raw))

			got := newTestStore(kv).Get(ctx)
			assert.Equal(t, "abc", got.Token)
			assert.True(t, got.User.IsZero())
		})
	}
}

func TestGetToleratesBackendErrors(t *testing.T) {
	store := newTestStore(failingKV{err: errors.New("io error")})

	var got Session
	assert.NotPanics(t, func() { got = store.Get(context.Background()) })
	assert.False(t, got.Authenticated())
	assert.Empty(t, store.Token(context.Background()))
}

func TestTokenWithoutUser(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, KeyToken, "orphan"))

	got := newTestStore(kv).Get(ctx)
	assert.Equal(t, "orphan", got.Token)
	assert.True(t, got.User.IsZero())
}

func TestClear(t *testing.T) {
	kv := NewMemoryKV()
	store := newTestStore(kv)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "abc", types.User{ID: "1"}))
	require.NoError(t, store.Clear(ctx))

	assert.Equal(t, 0, kv.Len())
	assert.False(t, store.Get(ctx).Authenticated())

	// clearing twice is fine
	require.NoError(t, store.Clear(ctx))
}

func TestSetAndClearReportBackendErrors(t *testing.T) {
	store := newTestStore(failingKV{err: errors.New("read-only")})
	ctx := context.Background()

	err := store.Set(ctx, "abc", types.User{ID: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE-002")

	assert.Error(t, store.Clear(ctx))
}

func TestFileKVPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	ctx := context.Background()

	require.NoError(t, newTestStore(NewFileKV(path)).Set(ctx, "abc", types.User{ID: "1", Name: "A"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got := newTestStore(NewFileKV(path)).Get(ctx)
	assert.Equal(t, "abc", got.Token)
	assert.Equal(t, "A", got.User.Name)
}

func TestFileKVCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))
	ctx := context.Background()

	kv := NewFileKV(path)
	_, _, err := kv.Get(ctx, KeyToken)
	assert.Error(t, err)

	store := newTestStore(kv)
	assert.False(t, store.Get(ctx).Authenticated())

	// a new login replaces the corrupt document
	require.NoError(t, store.Set(ctx, "fresh", types.User{ID: "2"}))
	assert.Equal(t, "fresh", store.Get(ctx).Token)
}

func TestFileKVClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	store := newTestStore(NewFileKV(path))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "abc", types.User{ID: "1"}))
	require.NoError(t, store.Clear(ctx))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestParseOrEmpty(t *testing.T) {
	type record struct {
		A string `json:"a"`
	}

	assert.Equal(t, record{A: "x"}, ParseOrEmpty[record](`{"a":"x"}`))
	assert.Equal(t, record{}, ParseOrEmpty[record](`{"a":`))
	assert.Equal(t, record{}, ParseOrEmpty[record](``))
	assert.Equal(t, map[string]int(nil), ParseOrEmpty[map[string]int](`oops`))
}

func TestTokenClaims(t *testing.T) {
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    "7",
		"role":  "ADMIN",
		"email": "a@b.com",
		"exp":   exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	claims, err := TokenClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.True(t, claims.Expired(time.Now()))
}

func TestTokenClaimsOpaqueToken(t *testing.T) {
	_, err := TokenClaims("opaque-token")
	assert.Error(t, err)

	_, err = TokenClaims("")
	assert.Error(t, err)

	assert.False(t, Claims{}.Expired(time.Now()))
}
