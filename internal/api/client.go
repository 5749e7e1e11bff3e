// Package api is the single HTTP client for the EventPro backend.
//
// Every request reads the bearer token from an injected TokenSource at send
// time, so a login or logout is picked up by the next call without
// rebuilding the client. Failures are always returned as *RequestError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/eventpro/internal/log"
	"github.com/felixgeelhaar/eventpro/internal/metrics"
	"github.com/felixgeelhaar/eventpro/internal/telemetry"
	"github.com/felixgeelhaar/eventpro/internal/version"
)

const (
	// DefaultTimeout bounds a single request
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read
	maxResponseBytes = 10 << 20

	// RequestIDHeader carries a per-request UUID for backend log correlation
	RequestIDHeader = "X-Request-ID"
)

// TokenSource supplies the bearer token for outgoing requests.
// An empty string means "send unauthenticated".
type TokenSource interface {
	Token(ctx context.Context) string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func(ctx context.Context) string

// Token implements TokenSource
func (f TokenFunc) Token(ctx context.Context) string {
	return f(ctx)
}

// StaticToken is a TokenSource that always returns the same token
type StaticToken string

// Token implements TokenSource
func (s StaticToken) Token(context.Context) string {
	return string(s)
}

// Client is the EventPro backend API client
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	userAgent      string
	logger         *log.Logger
	metrics        *metrics.Metrics
	validator      *ContractValidator
	onUnauthorized func(ctx context.Context, err *RequestError)
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics enables request metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithContractValidator checks 2xx JSON bodies against the backend's OpenAPI description
func WithContractValidator(v *ContractValidator) Option {
	return func(c *Client) {
		c.validator = v
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithOnUnauthorized registers a callback for 401/403 responses. The
// client itself never clears the session; what to do is the caller's call.
func WithOnUnauthorized(fn func(ctx context.Context, err *RequestError)) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// New creates a client for baseURL. tokens may be nil for a client that
// never authenticates.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
		userAgent:  version.GetInfo().UserAgent(),
		logger:     log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "api")
	return c
}

// BaseURL returns the configured backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestOption adjusts a single request
type RequestOption func(*requestConfig)

type requestConfig struct {
	params url.Values
	route  string
	header http.Header
}

// WithParams adds query parameters
func WithParams(params map[string]string) RequestOption {
	return func(rc *requestConfig) {
		for k, v := range params {
			rc.params.Set(k, v)
		}
	}
}

// WithRoute sets the route template used for metrics (e.g. /events/:id)
func WithRoute(route string) RequestOption {
	return func(rc *requestConfig) {
		rc.route = route
	}
}

// WithHeader sets an extra request header
func WithHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		rc.header.Set(key, value)
	}
}

// Get sends a GET request and decodes the response into out
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post sends a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put sends a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

// Patch sends a PATCH request with a JSON body
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, out, opts...)
}

// Delete sends a DELETE request
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do performs a request. A 2xx body is decoded into out when out is non-nil
// and the body is non-empty. Any failure is a *RequestError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	rc := &requestConfig{params: url.Values{}, header: http.Header{}}
	for _, opt := range opts {
		opt(rc)
	}
	pathOnly, _, _ := strings.Cut(path, "?")
	if rc.route == "" {
		rc.route = pathOnly
	}

	ctx, span := telemetry.StartRequestSpan(ctx, method, rc.route)
	defer span.End()

	fail := func(status int, kind, msg string, err error) *RequestError {
		reqErr := &RequestError{Method: method, Path: pathOnly, Status: status, Message: msg, Kind: kind, Err: err}
		c.metrics.ObserveError(rc.route, kind)
		telemetry.RecordError(span, reqErr)
		return reqErr
	}

	req, err := c.newRequest(ctx, method, path, body, rc)
	if err != nil {
		return fail(0, KindClient, DefaultErrorMessage, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveRequest(method, rc.route, 0, elapsed)
		if ctxErr := ctx.Err(); ctxErr != nil && stderrors.Is(err, ctxErr) {
			return fail(0, KindCanceled, "request canceled", err)
		}
		c.logger.DebugContext(ctx, "request failed", "method", method, "path", pathOnly, "error", err.Error())
		return fail(0, KindNetwork, NetworkErrorMessage, err)
	}
	defer resp.Body.Close()

	c.metrics.ObserveRequest(method, rc.route, resp.StatusCode, elapsed)
	telemetry.RecordStatus(span, resp.StatusCode)
	c.logger.DebugContext(ctx, "request completed",
		"method", method,
		"path", pathOnly,
		"status", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
		"request_id", req.Header.Get(RequestIDHeader),
	)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(resp.StatusCode, KindNetwork, NetworkErrorMessage, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := fail(resp.StatusCode, kindForStatus(resp.StatusCode), errorMessage(data), nil)
		if reqErr.IsAuthorization() && c.onUnauthorized != nil {
			c.onUnauthorized(ctx, reqErr)
		}
		return reqErr
	}

	if c.validator != nil {
		if err := c.validator.ValidateResponse(method, pathOnly, resp.StatusCode, data); err != nil {
			return fail(resp.StatusCode, KindContract, InvalidResponseError, err)
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fail(resp.StatusCode, KindDecode, InvalidResponseError, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, rc *requestConfig) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL: %w", err)
	}
	if len(rc.params) > 0 {
		q := u.Query()
		for k, vs := range rc.params {
			for _, v := range vs {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())
	telemetry.InjectHeaders(ctx, req.Header)
	for k, vs := range rc.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

// errorMessage picks the backend's error text, falling back to the generic message
func errorMessage(body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if msg := strings.TrimSpace(errResp.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(errResp.Message); msg != "" {
			return msg
		}
	}
	return DefaultErrorMessage
}
