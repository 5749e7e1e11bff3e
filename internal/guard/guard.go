// Package guard decides whether a view may be shown for the stored session.
//
// Decisions rest on local state only; the token is never validated here.
// The backend must re-check authorization on every protected endpoint.
package guard

import (
	"context"

	"github.com/felixgeelhaar/eventpro/internal/log"
	"github.com/felixgeelhaar/eventpro/internal/metrics"
	"github.com/felixgeelhaar/eventpro/internal/session"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

// Outcome is the navigation result of a guard check
type Outcome string

const (
	// Render shows the requested view
	Render Outcome = "render"
	// RedirectLogin sends the user to the login view
	RedirectLogin Outcome = "redirect_login"
	// RedirectDefault sends the user to the default landing view
	RedirectDefault Outcome = "redirect_default"
)

const (
	// LoginPath is where unauthenticated users are sent
	LoginPath = "/login"
	// DefaultPath is where authenticated users land, including after a role mismatch
	DefaultPath = "/dashboard"
)

// Decision is the result of Decide. Target is the route to show; From is
// the originally requested route when a redirect happened.
type Decision struct {
	Outcome Outcome `json:"outcome" yaml:"outcome"`
	Target  string  `json:"target" yaml:"target"`
	From    string  `json:"from,omitempty" yaml:"from,omitempty"`
}

// Allowed reports whether the requested view renders
func (d Decision) Allowed() bool {
	return d.Outcome == Render
}

// Decide applies the guard rules in order: no token sends to login
// whatever role is required; a required role that the stored user lacks
// sends to the default view; anything else renders.
func Decide(sess session.Session, requiredRole types.Role, target string) Decision {
	if !sess.Authenticated() {
		return Decision{Outcome: RedirectLogin, Target: LoginPath}
	}
	if requiredRole != "" && sess.User.Role != requiredRole {
		return Decision{Outcome: RedirectDefault, Target: DefaultPath, From: target}
	}
	return Decision{Outcome: Render, Target: target}
}

// SessionSource yields the current session. *session.Store satisfies it.
type SessionSource interface {
	Get(ctx context.Context) session.Session
}

// Guard resolves paths against the route table and records decisions.
type Guard struct {
	sessions SessionSource
	routes   *Table
	logger   *log.Logger
	metrics  *metrics.Metrics
}

// Option configures a Guard
type Option func(*Guard)

// WithRoutes replaces the default route table
func WithRoutes(t *Table) Option {
	return func(g *Guard) {
		g.routes = t
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(g *Guard) {
		g.logger = l
	}
}

// WithMetrics records decisions
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

// New creates a Guard reading sessions from src
func New(src SessionSource, opts ...Option) *Guard {
	g := &Guard{
		sessions: src,
		routes:   DefaultRoutes(),
		logger:   log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "guard")
	return g
}

// Routes returns the route table in use
func (g *Guard) Routes() *Table {
	return g.routes
}

// Check decides for path. Public routes always render. Paths missing from
// the table redirect to the default view with a session, to login without.
func (g *Guard) Check(ctx context.Context, path string) Decision {
	sess := g.sessions.Get(ctx)

	route, ok := g.routes.Resolve(path)
	var d Decision
	switch {
	case !ok:
		if sess.Authenticated() {
			d = Decision{Outcome: RedirectDefault, Target: DefaultPath, From: path}
		} else {
			d = Decision{Outcome: RedirectLogin, Target: LoginPath, From: path}
		}
	case route.Public:
		d = Decision{Outcome: Render, Target: path}
	default:
		d = Decide(sess, route.Role, path)
	}

	label := "unknown"
	if ok {
		label = route.Pattern
	}
	g.metrics.ObserveGuard(label, string(d.Outcome))
	g.logger.DebugContext(ctx, "route decision", "path", path, "outcome", string(d.Outcome), "target", d.Target)
	return d
}
