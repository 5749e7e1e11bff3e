// Package fetch provides a reusable request state holder: one endpoint, its
// default method, body and query parameters, and the {data, loading, error}
// snapshot that views render from.
//
// A Request is safe for concurrent use. By default only the most recently
// issued call may settle the state; WithLastResolvedWins restores the
// behaviour where whichever call finishes last wins.
package fetch

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/felixgeelhaar/eventpro/internal/api"
	"github.com/felixgeelhaar/eventpro/internal/log"
	"github.com/felixgeelhaar/eventpro/internal/metrics"
)

// Doer issues a single backend request. *api.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any, opts ...api.RequestOption) error
}

// State is a snapshot of a Request. Data keeps the last successful result
// across later loads and failures.
type State[T any] struct {
	Data    *T     `json:"data" yaml:"data"`
	Loading bool   `json:"loading" yaml:"loading"`
	Err     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Settled reports whether no call is in flight
func (s State[T]) Settled() bool {
	return !s.Loading
}

// Options are the per-request inputs. As an override, empty fields keep the
// instance defaults and Params are merged over the default params.
type Options struct {
	Method string
	Body   any
	Params map[string]string
}

// Request binds a path and default options to a state slot.
type Request[T any] struct {
	doer             Doer
	path             string
	route            string
	defaults         Options
	immediate        bool
	lastResolvedWins bool
	logger           *log.Logger
	metrics          *metrics.Metrics

	mu          sync.Mutex
	state       State[T]
	issued      uint64
	detached    bool
	attached    bool
	nextSub     uint64
	subscribers []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(State[T])
}

// Option configures a Request
type Option func(*config)

type config struct {
	defaults         Options
	immediate        bool
	lastResolvedWins bool
	route            string
	logger           *log.Logger
	metrics          *metrics.Metrics
}

// WithMethod sets the default HTTP method (GET when unset)
func WithMethod(method string) Option {
	return func(c *config) {
		c.defaults.Method = method
	}
}

// WithBody sets the default request body
func WithBody(body any) Option {
	return func(c *config) {
		c.defaults.Body = body
	}
}

// WithParams sets the default query parameters
func WithParams(params map[string]string) Option {
	return func(c *config) {
		c.defaults.Params = params
	}
}

// Immediate makes Attach issue the first call
func Immediate() Option {
	return func(c *config) {
		c.immediate = true
	}
}

// WithLastResolvedWins lets any settling call overwrite the state, even
// one issued before a call that already settled.
func WithLastResolvedWins() Option {
	return func(c *config) {
		c.lastResolvedWins = true
	}
}

// WithRoute sets the route template reported to metrics
func WithRoute(route string) Option {
	return func(c *config) {
		c.route = route
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithMetrics records settle outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// New creates a Request for path. Loading starts true for immediate
// requests, since their first call is already due.
func New[T any](doer Doer, path string, opts ...Option) *Request[T] {
	cfg := &config{logger: log.DefaultLogger()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Request[T]{
		doer:             doer,
		path:             path,
		route:            cfg.route,
		defaults:         cfg.defaults,
		immediate:        cfg.immediate,
		lastResolvedWins: cfg.lastResolvedWins,
		logger:           cfg.logger.With("component", "fetch", "path", path),
		metrics:          cfg.metrics,
		state:            State[T]{Loading: cfg.immediate},
	}
}

// Path returns the bound endpoint
func (r *Request[T]) Path() string {
	return r.path
}

// State returns the current snapshot
func (r *Request[T]) State() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe registers fn to receive every state transition. fn runs on the
// goroutine that caused the transition. The returned function removes it;
// calling it after Detach does nothing.
func (r *Request[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	r.mu.Lock()
	r.nextSub++
	id := r.nextSub
	r.subscribers = append(r.subscribers, subscriber[T]{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, sub := range r.subscribers {
			if sub.id == id {
				r.subscribers = append(r.subscribers[:i:i], r.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Attach marks the consuming view as mounted. For immediate requests the
// first call is issued synchronously; further calls do nothing until the
// view is detached again.
func (r *Request[T]) Attach(ctx context.Context) error {
	r.mu.Lock()
	first := !r.attached
	r.attached = true
	r.detached = false
	r.mu.Unlock()

	if first && r.immediate {
		return r.Initiate(ctx, Options{})
	}
	return nil
}

// Detach marks the consuming view as gone. Calls still in flight complete
// but no longer write state or notify subscribers.
func (r *Request[T]) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detached = true
	r.attached = false
	r.subscribers = nil
}

// Initiate issues the request and blocks until it settles. The returned
// error is also reflected in State().Err as a display message.
func (r *Request[T]) Initiate(ctx context.Context, override Options) error {
	method, body, params := r.resolve(override)

	r.mu.Lock()
	r.issued++
	seq := r.issued
	r.state.Loading = true
	r.state.Err = ""
	snapshot, subs := r.state, r.listenersLocked()
	r.mu.Unlock()
	notify(subs, snapshot)

	var out T
	opts := []api.RequestOption{api.WithParams(params)}
	if r.route != "" {
		opts = append(opts, api.WithRoute(r.route))
	}
	err := r.doer.Do(ctx, method, r.path, body, &out, opts...)

	r.mu.Lock()
	if r.detached {
		r.mu.Unlock()
		return err
	}
	if !r.lastResolvedWins && seq != r.issued {
		r.mu.Unlock()
		r.metrics.ObserveFetch("stale")
		r.logger.DebugContext(ctx, "discarded stale response", "seq", seq)
		return err
	}

	r.state.Loading = false
	if err != nil {
		r.state.Err = api.Message(err)
	} else {
		r.state.Data = &out
	}
	snapshot, subs = r.state, r.listenersLocked()
	r.mu.Unlock()

	if err != nil {
		r.metrics.ObserveFetch("error")
		r.logger.DebugContext(ctx, "request settled with error", "method", method, "error", snapshot.Err)
	} else {
		r.metrics.ObserveFetch("success")
	}
	notify(subs, snapshot)
	return err
}

// Refetch reissues the request with an optional override
func (r *Request[T]) Refetch(ctx context.Context, override Options) error {
	return r.Initiate(ctx, override)
}

func (r *Request[T]) resolve(override Options) (string, any, map[string]string) {
	method := r.defaults.Method
	if override.Method != "" {
		method = override.Method
	}

	body := r.defaults.Body
	if override.Body != nil {
		body = override.Body
	}

	params := make(map[string]string, len(r.defaults.Params)+len(override.Params))
	for k, v := range r.defaults.Params {
		params[k] = v
	}
	for k, v := range override.Params {
		params[k] = v
	}

	method = NormalizeMethod(method)
	if method == http.MethodGet || method == http.MethodDelete {
		body = nil
	}
	return method, body, params
}

func (r *Request[T]) listenersLocked() []func(State[T]) {
	subs := make([]func(State[T]), 0, len(r.subscribers))
	for _, sub := range r.subscribers {
		subs = append(subs, sub.fn)
	}
	return subs
}

func notify[T any](subs []func(State[T]), s State[T]) {
	for _, fn := range subs {
		fn(s)
	}
}

// NormalizeMethod maps method to one the backend serves; anything
// unrecognised becomes GET.
func NormalizeMethod(method string) string {
	switch m := strings.ToUpper(strings.TrimSpace(method)); m {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return m
	default:
		return http.MethodGet
	}
}
