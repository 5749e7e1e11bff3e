package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the EventPro client
type Metrics struct {
	// Backend API calls
	APIRequests        *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrors          *prometheus.CounterVec

	// Route guard outcomes
	GuardDecisions *prometheus.CounterVec

	// Fetch state machine
	FetchSettled *prometheus.CounterVec
	FetchStale   prometheus.Counter

	// Session store operations
	SessionWrites *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventpro_api_requests_total",
				Help: "Total number of backend API requests",
			},
			[]string{"method", "route", "status_class"},
		),
		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventpro_api_request_duration_seconds",
				Help:    "Backend API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "route"},
		),
		APIErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventpro_api_errors_total",
				Help: "Total number of failed backend API requests by kind",
			},
			[]string{"route", "kind"},
		),

		GuardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventpro_guard_decisions_total",
				Help: "Route guard decisions by outcome",
			},
			[]string{"route", "decision"},
		),

		FetchSettled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventpro_fetch_settled_total",
				Help: "Fetch requests that settled, by outcome",
			},
			[]string{"outcome"},
		),
		FetchStale: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "eventpro_fetch_stale_discarded_total",
				Help: "Fetch results discarded because a newer request was issued",
			},
		),

		SessionWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventpro_session_writes_total",
				Help: "Session store writes by operation",
			},
			[]string{"operation", "success"},
		),
	}
}

// StatusClass maps an HTTP status to 2xx/4xx/5xx. Zero means the request
// never got a response.
func StatusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

// ObserveRequest records one API round trip. Safe on a nil receiver so
// callers can leave metrics disabled.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(method, route, StatusClass(status)).Inc()
	m.APIRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveError records a failed request by kind (network, auth, client, server, decode)
func (m *Metrics) ObserveError(route, kind string) {
	if m == nil {
		return
	}
	m.APIErrors.WithLabelValues(route, kind).Inc()
}

// ObserveGuard records a route guard decision
func (m *Metrics) ObserveGuard(route, decision string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(route, decision).Inc()
}

// ObserveFetch records a settled fetch ("success" or "error") or a stale discard
func (m *Metrics) ObserveFetch(outcome string) {
	if m == nil {
		return
	}
	if outcome == "stale" {
		m.FetchStale.Inc()
		return
	}
	m.FetchSettled.WithLabelValues(outcome).Inc()
}

// ObserveSessionWrite records a session store write
func (m *Metrics) ObserveSessionWrite(operation string, err error) {
	if m == nil {
		return
	}
	m.SessionWrites.WithLabelValues(operation, strconv.FormatBool(err == nil)).Inc()
}
