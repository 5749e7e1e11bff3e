package metrics

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		0:   "error",
		200: "2xx",
		204: "2xx",
		401: "4xx",
		503: "5xx",
	}
	for status, want := range tests {
		if got := StatusClass(status); got != want {
			t.Errorf("StatusClass(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestObserveRequest(t *testing.T) {
	_, m := NewRegistry()

	m.ObserveRequest("GET", "/events", 200, 120*time.Millisecond)
	m.ObserveRequest("GET", "/events", 200, 80*time.Millisecond)
	m.ObserveRequest("GET", "/events", 500, time.Second)

	if got := testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", "/events", "2xx")); got != 2 {
		t.Errorf("expected 2 successful requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", "/events", "5xx")); got != 1 {
		t.Errorf("expected 1 failed request, got %v", got)
	}
	if got := testutil.CollectAndCount(m.APIRequestDuration); got != 1 {
		t.Errorf("expected one histogram series, got %d", got)
	}
}

func TestObserveGuardAndFetch(t *testing.T) {
	_, m := NewRegistry()

	m.ObserveGuard("/events/edit/:id", "redirect_default")
	m.ObserveFetch("success")
	m.ObserveFetch("error")
	m.ObserveFetch("stale")
	m.ObserveSessionWrite("set", nil)
	m.ObserveSessionWrite("set", errors.New("disk full"))
	m.ObserveError("/events", "network")

	if got := testutil.ToFloat64(m.GuardDecisions.WithLabelValues("/events/edit/:id", "redirect_default")); got != 1 {
		t.Errorf("expected 1 guard decision, got %v", got)
	}
	if got := testutil.ToFloat64(m.FetchStale); got != 1 {
		t.Errorf("expected 1 stale fetch, got %v", got)
	}
	if got := testutil.ToFloat64(m.SessionWrites.WithLabelValues("set", "false")); got != 1 {
		t.Errorf("expected 1 failed session write, got %v", got)
	}
	if got := testutil.ToFloat64(m.APIErrors.WithLabelValues("/events", "network")); got != 1 {
		t.Errorf("expected 1 network error, got %v", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/events", 200, time.Millisecond)
	m.ObserveError("/events", "network")
	m.ObserveGuard("/events", "render")
	m.ObserveFetch("success")
	m.ObserveSessionWrite("clear", nil)
}

func TestWriteText(t *testing.T) {
	reg, m := NewRegistry()
	m.ObserveRequest("POST", "/auth/login", 200, 10*time.Millisecond)

	var buf bytes.Buffer
	if err := WriteText(&buf, reg); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `eventpro_api_requests_total{method="POST",route="/auth/login",status_class="2xx"} 1`) {
		t.Errorf("expected request counter in output, got:\n%s", out)
	}
}

func TestHandlerFor(t *testing.T) {
	reg, m := NewRegistry()
	m.ObserveGuard("/dashboard", "render")

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "eventpro_guard_decisions_total") {
		t.Error("expected guard metric in handler output")
	}
}
