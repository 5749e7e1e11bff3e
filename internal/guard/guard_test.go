package guard

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/eventpro/internal/log"
	"github.com/felixgeelhaar/eventpro/internal/metrics"
	"github.com/felixgeelhaar/eventpro/internal/session"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

var (
	anonymous = session.Session{}
	userSess  = session.Session{Token: "t", User: types.User{ID: "1", Role: types.RoleUser}}
	adminSess = session.Session{Token: "t", User: types.User{ID: "2", Role: types.RoleAdmin}}
	// a token with a corrupt or missing user record
	bareToken = session.Session{Token: "t"}
)

func TestDecideWithoutTokenAlwaysRedirectsToLogin(t *testing.T) {
	for _, role := range []types.Role{"", types.RoleUser, types.RoleAdmin} {
		for _, sess := range []session.Session{anonymous, {User: types.User{Role: types.RoleAdmin}}} {
			d := Decide(sess, role, "/events")
			assert.Equal(t, RedirectLogin, d.Outcome, "role %q", role)
			assert.Equal(t, LoginPath, d.Target)
			assert.False(t, d.Allowed())
		}
	}
}

func TestDecideRoleMismatchRedirectsToDefault(t *testing.T) {
	tests := []struct {
		name string
		sess session.Session
		role types.Role
	}{
		{"user on admin route", userSess, types.RoleAdmin},
		{"admin on user-only route", adminSess, types.RoleUser},
		{"token without user", bareToken, types.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.sess, tt.role, "/events/edit/1")
			assert.Equal(t, RedirectDefault, d.Outcome)
			assert.Equal(t, DefaultPath, d.Target)
			assert.Equal(t, "/events/edit/1", d.From)
		})
	}
}

func TestDecideRendersWithoutRequiredRole(t *testing.T) {
	for _, sess := range []session.Session{userSess, adminSess, bareToken} {
		d := Decide(sess, "", "/reservations")
		assert.True(t, d.Allowed())
		assert.Equal(t, "/reservations", d.Target)
		assert.Empty(t, d.From)
	}

	assert.True(t, Decide(adminSess, types.RoleAdmin, "/events/edit/1").Allowed())
}

func TestResolve(t *testing.T) {
	routes := DefaultRoutes()

	tests := []struct {
		path    string
		pattern string
		found   bool
	}{
		{"/login", "/login", true},
		{"/events", "/events", true},
		{"/events/", "/events", true},
		{"/events/42", "/events/:id", true},
		{"/events/edit/42", "/events/edit/:id", true},
		{"/events/42/reservations", "/events/:id/reservations", true},
		{"/events?page=2", "/events", true},
		{"/", "", false},
		{"/admin", "", false},
		{"/events/1/2/3", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, ok := routes.Resolve(tt.path)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.pattern, r.Pattern)
		})
	}
}

func TestMatchCapturesParams(t *testing.T) {
	params, ok := Match("/events/edit/:id", "/events/edit/abc")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"id": "abc"}, params)

	_, ok = Match("/events/:id", "/events")
	assert.False(t, ok)
}

type staticSessions session.Session

func (s staticSessions) Get(context.Context) session.Session {
	return session.Session(s)
}

func TestGuardCheck(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		sess    session.Session
		path    string
		outcome Outcome
		target  string
	}{
		{"public route anonymous", anonymous, "/login", Render, "/login"},
		{"public route logged in", userSess, "/register", Render, "/register"},
		{"protected anonymous", anonymous, "/dashboard", RedirectLogin, LoginPath},
		{"protected logged in", userSess, "/events/7", Render, "/events/7"},
		{"admin route as user", userSess, "/events/edit/7", RedirectDefault, DefaultPath},
		{"admin route as admin", adminSess, "/events/edit/7", Render, "/events/edit/7"},
		{"unknown anonymous", anonymous, "/nowhere", RedirectLogin, LoginPath},
		{"unknown logged in", userSess, "/nowhere", RedirectDefault, DefaultPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(staticSessions(tt.sess), WithLogger(log.Nop()))
			d := g.Check(ctx, tt.path)
			assert.Equal(t, tt.outcome, d.Outcome)
			assert.Equal(t, tt.target, d.Target)
		})
	}
}

func TestGuardCheckRecordsMetrics(t *testing.T) {
	_, m := metrics.NewRegistry()
	g := New(staticSessions(userSess), WithLogger(log.Nop()), WithMetrics(m))
	ctx := context.Background()

	g.Check(ctx, "/events/1")
	g.Check(ctx, "/events/2")
	g.Check(ctx, "/events/edit/1")
	g.Check(ctx, "/missing")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("/events/:id", string(Render))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("/events/edit/:id", string(RedirectDefault))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("unknown", string(RedirectDefault))))
}

func TestGuardReadsStoreEachTime(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(session.NewMemoryKV(), log.Nop())
	g := New(store, WithLogger(log.Nop()))

	assert.Equal(t, RedirectLogin, g.Check(ctx, "/dashboard").Outcome)

	require.NoError(t, store.Set(ctx, "t1", types.User{ID: "1", Role: types.RoleUser}))
	assert.Equal(t, Render, g.Check(ctx, "/dashboard").Outcome)

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, RedirectLogin, g.Check(ctx, "/dashboard").Outcome)
}
