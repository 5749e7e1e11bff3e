package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/eventpro/internal/api"
	"github.com/felixgeelhaar/eventpro/internal/log"
	"github.com/felixgeelhaar/eventpro/internal/metrics"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newClient(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.New(srv.URL, api.StaticToken("abc"), api.WithLogger(log.Nop()))
}

func TestInitiateSuccess(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(item{ID: "1", Name: "Test"})
	})
	req := New[item](client, "/events/1", WithLogger(log.Nop()))

	require.NoError(t, req.Initiate(context.Background(), Options{}))

	state := req.State()
	require.NotNil(t, state.Data)
	assert.Equal(t, item{ID: "1", Name: "Test"}, *state.Data)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Err)
}

func TestInitiateFailureKeepsPriorData(t *testing.T) {
	fail := false
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
			return
		}
		_ = json.NewEncoder(w).Encode(item{ID: "1", Name: "Test"})
	})
	req := New[item](client, "/events/1", WithLogger(log.Nop()))
	ctx := context.Background()

	require.NoError(t, req.Initiate(ctx, Options{}))
	fail = true
	require.Error(t, req.Refetch(ctx, Options{}))

	state := req.State()
	assert.Equal(t, "boom", state.Err)
	assert.False(t, state.Loading)
	require.NotNil(t, state.Data)
	assert.Equal(t, "Test", state.Data.Name)
}

func TestFailureWithoutPriorData(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	req := New[item](client, "/events/1", WithLogger(log.Nop()))

	require.Error(t, req.Initiate(context.Background(), Options{}))
	state := req.State()
	assert.Nil(t, state.Data)
	assert.Equal(t, api.DefaultErrorMessage, state.Err)
}

func TestLoadingKeepsDataAndClearsError(t *testing.T) {
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad"})
			return
		}
		_ = json.NewEncoder(w).Encode(item{ID: "1"})
	})
	req := New[item](client, "/events/1", WithLogger(log.Nop()))
	ctx := context.Background()

	require.NoError(t, req.Initiate(ctx, Options{}))
	require.Error(t, req.Initiate(ctx, Options{}))

	var transitions []State[item]
	req.Subscribe(func(s State[item]) { transitions = append(transitions, s) })
	require.NoError(t, req.Initiate(ctx, Options{}))

	require.Len(t, transitions, 2)
	loading := transitions[0]
	assert.True(t, loading.Loading)
	assert.Empty(t, loading.Err)
	assert.NotNil(t, loading.Data)
	assert.False(t, transitions[1].Loading)
}

func TestResolveOverrides(t *testing.T) {
	type seen struct {
		method string
		query  string
		body   string
	}
	var got seen
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = seen{r.Method, r.URL.RawQuery, string(body)}
		_ = json.NewEncoder(w).Encode(item{})
	})

	req := New[item](client, "/events",
		WithMethod("POST"),
		WithBody(map[string]string{"name": "default"}),
		WithParams(map[string]string{"page": "1", "sort": "date"}),
		WithLogger(log.Nop()),
	)
	ctx := context.Background()

	require.NoError(t, req.Initiate(ctx, Options{}))
	assert.Equal(t, "POST", got.method)
	assert.Equal(t, "page=1&sort=date", got.query)
	assert.JSONEq(t, `{"name":"default"}`, got.body)

	require.NoError(t, req.Initiate(ctx, Options{
		Method: "put",
		Body:   map[string]string{"name": "override"},
		Params: map[string]string{"page": "2"},
	}))
	assert.Equal(t, "PUT", got.method)
	assert.Equal(t, "page=2&sort=date", got.query)
	assert.JSONEq(t, `{"name":"override"}`, got.body)

	require.NoError(t, req.Initiate(ctx, Options{Method: "TRACE"}))
	assert.Equal(t, "GET", got.method)
	assert.Empty(t, got.body)
}

func TestNormalizeMethod(t *testing.T) {
	tests := map[string]string{
		"":        "GET",
		"get":     "GET",
		"post":    "POST",
		"PUT":     "PUT",
		"patch":   "PATCH",
		"DELETE":  "DELETE",
		"OPTIONS": "GET",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeMethod(in), in)
	}
}

func TestImmediateAttach(t *testing.T) {
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode([]types.Reservation{{ID: "r1"}})
	})
	ctx := context.Background()

	eager := New[[]types.Reservation](client, api.MyReservationsPath, Immediate(), WithLogger(log.Nop()))
	assert.True(t, eager.State().Loading)
	require.NoError(t, eager.Attach(ctx))
	require.NoError(t, eager.Attach(ctx))
	assert.Equal(t, 1, calls)
	require.NotNil(t, eager.State().Data)
	assert.Len(t, *eager.State().Data, 1)

	lazy := New[[]types.Reservation](client, api.MyReservationsPath, WithLogger(log.Nop()))
	assert.False(t, lazy.State().Loading)
	require.NoError(t, lazy.Attach(ctx))
	assert.Equal(t, 1, calls)
	assert.Nil(t, lazy.State().Data)
}

// gatedDoer lets a test decide when each call returns.
type gatedDoer struct {
	mu      sync.Mutex
	started chan int
	release map[int]chan string
	n       int
}

func newGatedDoer() *gatedDoer {
	return &gatedDoer{started: make(chan int, 8), release: map[int]chan string{}}
}

func (g *gatedDoer) gate(call int) chan string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.release[call]
	if !ok {
		ch = make(chan string, 1)
		g.release[call] = ch
	}
	return ch
}

func (g *gatedDoer) Do(ctx context.Context, method, path string, body, out any, opts ...api.RequestOption) error {
	g.mu.Lock()
	g.n++
	call := g.n
	g.mu.Unlock()

	g.started <- call
	result := <-g.gate(call)
	*(out.(*[]types.Reservation)) = []types.Reservation{{ID: result}}
	return nil
}

// raceRefetch issues two refetches where the first-issued resolves last.
func raceRefetch(t *testing.T, req *Request[[]types.Reservation], doer *gatedDoer) {
	t.Helper()
	ctx := context.Background()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = req.Refetch(ctx, Options{})
	}()
	require.Equal(t, 1, <-doer.started)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = req.Refetch(ctx, Options{})
	}()
	require.Equal(t, 2, <-doer.started)

	doer.gate(2) <- "second"
	require.Eventually(t, func() bool { return !req.State().Loading }, timeout, tick)

	doer.gate(1) <- "first"
	wg.Wait()
}

func TestRefetchRaceLastIssuedWins(t *testing.T) {
	doer := newGatedDoer()
	_, m := metrics.NewRegistry()
	req := New[[]types.Reservation](doer, api.MyReservationsPath, WithLogger(log.Nop()), WithMetrics(m))

	raceRefetch(t, req, doer)

	state := req.State()
	require.NotNil(t, state.Data)
	assert.Equal(t, "second", (*state.Data)[0].ID)
	assert.False(t, state.Loading)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchStale))
}

func TestRefetchRaceLastResolvedWins(t *testing.T) {
	doer := newGatedDoer()
	req := New[[]types.Reservation](doer, api.MyReservationsPath, WithLogger(log.Nop()), WithLastResolvedWins())

	raceRefetch(t, req, doer)

	state := req.State()
	require.NotNil(t, state.Data)
	assert.Equal(t, "first", (*state.Data)[0].ID)
}

func TestDetachDiscardsLateWrites(t *testing.T) {
	doer := newGatedDoer()
	req := New[[]types.Reservation](doer, api.MyReservationsPath, WithLogger(log.Nop()))

	notified := 0
	req.Subscribe(func(State[[]types.Reservation]) { notified++ })

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = req.Initiate(context.Background(), Options{})
	}()
	<-doer.started
	req.Detach()
	doer.gate(1) <- "late"
	<-done

	state := req.State()
	assert.Nil(t, state.Data)
	assert.True(t, state.Loading)
	assert.Equal(t, 1, notified)
}

func TestUnsubscribe(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(item{ID: "1"})
	})
	req := New[item](client, "/events/1", WithLogger(log.Nop()))

	count := 0
	unsubscribe := req.Subscribe(func(State[item]) { count++ })
	require.NoError(t, req.Initiate(context.Background(), Options{}))
	assert.Equal(t, 2, count)

	unsubscribe()
	require.NoError(t, req.Initiate(context.Background(), Options{}))
	assert.Equal(t, 2, count)
}

func TestStaleUnsubscribeKeepsNewSubscriber(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(item{ID: "1"})
	})
	ctx := context.Background()
	req := New[item](client, "/events/1", WithLogger(log.Nop()))

	old := req.Subscribe(func(State[item]) {})
	req.Detach()
	require.NoError(t, req.Attach(ctx))

	count := 0
	req.Subscribe(func(State[item]) { count++ })
	old()

	require.NoError(t, req.Initiate(ctx, Options{}))
	assert.Equal(t, 2, count)
}

func TestReattachReissuesImmediateCall(t *testing.T) {
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(item{ID: "1"})
	})
	ctx := context.Background()
	req := New[item](client, "/events/1", Immediate(), WithLogger(log.Nop()))

	require.NoError(t, req.Attach(ctx))
	req.Detach()
	require.NoError(t, req.Attach(ctx))
	assert.Equal(t, 2, calls)
	require.NotNil(t, req.State().Data)
}
