// Package client is the public EventPro SDK. It bundles the session store,
// the bearer-token HTTP client and the route guard behind one value.
//
// Usage:
//
//	c := client.New("https://eventpro.example.com")
//	if _, err := c.Login(ctx, "ada@example.com", "secret"); err != nil {
//		return err
//	}
//	events, err := c.Events(ctx)
package client

import (
	"context"
	"time"

	"github.com/felixgeelhaar/eventpro/internal/api"
	"github.com/felixgeelhaar/eventpro/internal/auth"
	"github.com/felixgeelhaar/eventpro/internal/guard"
	"github.com/felixgeelhaar/eventpro/internal/log"
	"github.com/felixgeelhaar/eventpro/internal/session"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

// Storage persists the token and user between runs. Values are opaque
// strings; a missing key reports ok=false.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Name() string
}

// Client talks to one EventPro backend on behalf of one login
type Client struct {
	api   *api.Client
	store *session.Store
	auth  *auth.Service
	guard *guard.Guard
}

type options struct {
	storage Storage
	timeout time.Duration
	unauth  func(ctx context.Context, status int)
}

// Option configures a Client
type Option func(*options)

// WithStorage keeps the session in s instead of memory
func WithStorage(s Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithSessionFile keeps the session in a JSON file at path
func WithSessionFile(path string) Option {
	return func(o *options) { o.storage = session.NewFileKV(path) }
}

// WithTimeout bounds each request
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithOnUnauthorized is called for every 401 or 403 response. The session
// is left alone; call Logout from fn to drop it.
func WithOnUnauthorized(fn func(ctx context.Context, status int)) Option {
	return func(o *options) { o.unauth = fn }
}

// New creates a client for baseURL. Without WithStorage or WithSessionFile
// the session lives in memory only.
func New(baseURL string, opts ...Option) *Client {
	o := &options{storage: session.NewMemoryKV()}
	for _, opt := range opts {
		opt(o)
	}

	logger := log.Nop()
	store := session.NewStore(o.storage, logger)

	apiOpts := []api.Option{api.WithLogger(logger)}
	if o.timeout > 0 {
		apiOpts = append(apiOpts, api.WithTimeout(o.timeout))
	}
	if o.unauth != nil {
		fn := o.unauth
		apiOpts = append(apiOpts, api.WithOnUnauthorized(func(ctx context.Context, err *api.RequestError) {
			fn(ctx, err.Status)
		}))
	}
	c := api.New(baseURL, store, apiOpts...)

	return &Client{
		api:   c,
		store: store,
		auth:  auth.NewService(c, store, auth.WithLogger(logger)),
		guard: guard.New(store, guard.WithLogger(logger)),
	}
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string { return c.api.BaseURL() }

// Login exchanges credentials for a token and stores both token and user
func (c *Client) Login(ctx context.Context, email, password string) (types.User, error) {
	sess, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return types.User{}, err
	}
	return sess.User, nil
}

// Register creates an account. loggedIn reports whether a session was stored.
func (c *Client) Register(ctx context.Context, name, email, password string, role types.Role) (loggedIn bool, err error) {
	sess, err := c.auth.Register(ctx, api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     role,
	}, true)
	if err != nil {
		return false, err
	}
	return sess != nil, nil
}

// Logout forgets the stored session
func (c *Client) Logout(ctx context.Context) error { return c.auth.Logout(ctx) }

// User returns the stored user and whether a token is present
func (c *Client) User(ctx context.Context) (types.User, bool) {
	sess := c.store.Get(ctx)
	return sess.User, sess.Authenticated()
}

// CanOpen applies the route guard to path. When the answer is no, target
// is where the user should be sent instead.
func (c *Client) CanOpen(ctx context.Context, path string) (ok bool, target string) {
	d := c.guard.Check(ctx, path)
	return d.Allowed(), d.Target
}

// Events lists all events
func (c *Client) Events(ctx context.Context) ([]types.Event, error) {
	return c.api.ListEvents(ctx)
}

// Event returns one event
func (c *Client) Event(ctx context.Context, id string) (*types.Event, error) {
	return c.api.GetEvent(ctx, id)
}

// CreateEvent creates an event (ADMIN)
func (c *Client) CreateEvent(ctx context.Context, in types.EventInput) (*types.Event, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return c.api.CreateEvent(ctx, in)
}

// UpdateEvent replaces an event (ADMIN)
func (c *Client) UpdateEvent(ctx context.Context, id string, in types.EventInput) (*types.Event, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return c.api.UpdateEvent(ctx, id, in)
}

// DeleteEvent deletes an event (ADMIN)
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.api.DeleteEvent(ctx, id)
}

// MyReservations lists the logged-in user's reservations
func (c *Client) MyReservations(ctx context.Context) ([]types.Reservation, error) {
	return c.api.MyReservations(ctx)
}

// Reserve books a seat
func (c *Client) Reserve(ctx context.Context, eventID string) (*types.Reservation, error) {
	return c.api.Reserve(ctx, eventID)
}

// CancelReservation cancels a reservation
func (c *Client) CancelReservation(ctx context.Context, reservationID string) error {
	return c.api.CancelReservation(ctx, reservationID)
}

// EventReservations lists who booked an event (ADMIN)
func (c *Client) EventReservations(ctx context.Context, eventID string) ([]types.Reservation, error) {
	return c.api.EventReservations(ctx, eventID)
}

// ErrorMessage returns the text a user should see for err: the backend's
// message when there is one, a generic one otherwise
func ErrorMessage(err error) string { return api.Message(err) }
