package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/eventpro/internal/api"
	"github.com/felixgeelhaar/eventpro/internal/auth"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

// EventLister is the backend call used as a reachability probe
type EventLister interface {
	BaseURL() string
	ListEvents(ctx context.Context, opts ...api.RequestOption) ([]types.Event, error)
}

// BackendChecker lists events to prove the backend answers. Without a
// login the backend refuses with 401, which still proves it is reachable.
type BackendChecker struct {
	client EventLister
}

// NewBackendChecker probes client
func NewBackendChecker(client EventLister) *BackendChecker {
	return &BackendChecker{client: client}
}

// Name implements Checker
func (c *BackendChecker) Name() string { return "backend" }

// Check implements Checker
func (c *BackendChecker) Check(ctx context.Context) *Result {
	events, err := c.client.ListEvents(ctx)
	if err == nil {
		return Healthy(fmt.Sprintf("%s answered with %d events", c.client.BaseURL(), len(events))).
			WithDetail("url", c.client.BaseURL()).
			WithDetail("events", len(events))
	}

	var reqErr *api.RequestError
	if errors.As(err, &reqErr) && reqErr.IsAuthorization() {
		return Degraded(fmt.Sprintf("%s is reachable but refused the request: %s", c.client.BaseURL(), reqErr.Message)).
			WithDetail("url", c.client.BaseURL()).
			WithDetail("status", reqErr.Status)
	}
	return Unhealthy(fmt.Sprintf("%s: %s", c.client.BaseURL(), api.Message(err))).
		WithDetail("url", c.client.BaseURL()).
		WithDetail("error", err.Error())
}

// Backend is a session storage backend; Ping is optional
type Backend interface {
	Name() string
}

type pinger interface {
	Ping(ctx context.Context) error
}

// SessionChecker checks that the session backend is usable
type SessionChecker struct {
	backend Backend
}

// NewSessionChecker checks backend
func NewSessionChecker(backend Backend) *SessionChecker {
	return &SessionChecker{backend: backend}
}

// Name implements Checker
func (c *SessionChecker) Name() string { return "session-store" }

// Check implements Checker
func (c *SessionChecker) Check(ctx context.Context) *Result {
	p, ok := c.backend.(pinger)
	if !ok {
		return Healthy(c.backend.Name() + " backend").WithDetail("backend", c.backend.Name())
	}
	if err := p.Ping(ctx); err != nil {
		return Unhealthy(fmt.Sprintf("%s backend unreachable: %v", c.backend.Name(), err)).
			WithDetail("backend", c.backend.Name())
	}
	return Healthy(c.backend.Name() + " backend reachable").WithDetail("backend", c.backend.Name())
}

// LoginChecker reports on the stored login. Being logged out is healthy;
// an expired or rejected token is degraded.
type LoginChecker struct {
	status func(ctx context.Context, verify bool) auth.Status
}

// NewLoginChecker checks the login reported by status, typically auth.Service.Status
func NewLoginChecker(status func(ctx context.Context, verify bool) auth.Status) *LoginChecker {
	return &LoginChecker{status: status}
}

// Name implements Checker
func (c *LoginChecker) Name() string { return "login" }

// Check implements Checker
func (c *LoginChecker) Check(ctx context.Context) *Result {
	st := c.status(ctx, true)
	switch {
	case !st.Authenticated:
		return Healthy("not logged in")
	case st.Expired:
		return Degraded("token has expired; log in again").WithDetail("user", st.User.Email)
	case st.ProfileError != "":
		return Degraded("backend rejected the token: " + st.ProfileError).WithDetail("user", st.User.Email)
	}
	return Healthy(fmt.Sprintf("logged in as %s (%s)", st.User.Email, st.User.Role)).
		WithDetail("user", st.User.Email).
		WithDetail("role", st.User.Role.String())
}
