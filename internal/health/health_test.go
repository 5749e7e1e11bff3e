package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/eventpro/internal/api"
	"github.com/felixgeelhaar/eventpro/internal/auth"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

func TestResultHelpers(t *testing.T) {
	r := Degraded("slow").WithDetail("ms", 900)
	assert.Equal(t, StatusDegraded, r.Status)
	assert.Equal(t, "slow", r.Message)
	assert.Equal(t, 900, r.Details["ms"])
	assert.Equal(t, "unhealthy", Unhealthy("x").Status.String())
}

func TestManagerKeepsRegistrationOrder(t *testing.T) {
	m := NewManager()
	m.AddChecker(NewCheckFunc("slow", func(context.Context) *Result {
		time.Sleep(20 * time.Millisecond)
		return Healthy("done")
	}))
	m.AddChecker(NewCheckFunc("fast", func(context.Context) *Result { return Healthy("done") }))

	reports := m.Check(context.Background())
	require.Len(t, reports, 2)
	assert.Equal(t, "slow", reports[0].Name)
	assert.Equal(t, "fast", reports[1].Name)
	assert.Greater(t, reports[0].Latency, time.Duration(0))
}

func TestManagerTimeout(t *testing.T) {
	m := NewManager().WithTimeout(10 * time.Millisecond)
	m.AddChecker(NewCheckFunc("hang", func(ctx context.Context) *Result {
		<-ctx.Done()
		return Unhealthy(ctx.Err().Error())
	}))
	m.AddChecker(NewCheckFunc("nil", func(context.Context) *Result { return nil }))

	reports := m.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, reports[0].Status)
	assert.Contains(t, reports[0].Message, "deadline")
	assert.Equal(t, StatusUnhealthy, reports[1].Status)
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, StatusHealthy, OverallStatus(nil))
	assert.Equal(t, StatusDegraded, OverallStatus([]Report{
		{Name: "a", Result: Healthy("")},
		{Name: "b", Result: Degraded("")},
	}))
	assert.Equal(t, StatusUnhealthy, OverallStatus([]Report{
		{Name: "a", Result: Degraded("")},
		{Name: "b", Result: Unhealthy("")},
	}))
}

func TestBackendChecker(t *testing.T) {
	token := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer t1" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "missing token"})
			return
		}
		_ = json.NewEncoder(w).Encode([]types.Event{{ID: "1", Name: "Go Meetup"}})
	}))
	defer srv.Close()

	client := api.New(srv.URL, api.TokenFunc(func(context.Context) string { return token }))
	checker := NewBackendChecker(client)
	assert.Equal(t, "backend", checker.Name())

	r := checker.Check(context.Background())
	assert.Equal(t, StatusDegraded, r.Status)
	assert.Contains(t, r.Message, "missing token")

	token = "t1"
	r = checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)
	assert.Equal(t, 1, r.Details["events"])

	srv.Close()
	r = checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, r.Status)
}

type fakeBackend struct{ err error }

func (fakeBackend) Name() string { return "fake" }

type pingBackend struct{ fakeBackend }

func (p pingBackend) Ping(context.Context) error { return p.err }

func TestSessionChecker(t *testing.T) {
	r := NewSessionChecker(fakeBackend{}).Check(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)

	r = NewSessionChecker(pingBackend{}).Check(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)
	assert.Contains(t, r.Message, "reachable")

	r = NewSessionChecker(pingBackend{fakeBackend{err: errors.New("refused")}}).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.Contains(t, r.Message, "refused")
}

func TestLoginChecker(t *testing.T) {
	tests := []struct {
		name   string
		status auth.Status
		want   Status
	}{
		{"logged out", auth.Status{}, StatusHealthy},
		{"valid", auth.Status{Authenticated: true, User: types.User{Email: "ada@example.com", Role: types.RoleAdmin}}, StatusHealthy},
		{"expired", auth.Status{Authenticated: true, Expired: true}, StatusDegraded},
		{"rejected", auth.Status{Authenticated: true, ProfileError: "Unauthorized"}, StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewLoginChecker(func(_ context.Context, verify bool) auth.Status {
				assert.True(t, verify)
				return tt.status
			})
			assert.Equal(t, tt.want, checker.Check(context.Background()).Status)
		})
	}
}
