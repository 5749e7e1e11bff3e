package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/eventpro/internal/api"
	apperrors "github.com/felixgeelhaar/eventpro/internal/errors"
	"github.com/felixgeelhaar/eventpro/internal/fetch"
	"github.com/felixgeelhaar/eventpro/internal/guard"
	"github.com/felixgeelhaar/eventpro/internal/log"
	"github.com/felixgeelhaar/eventpro/internal/session"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

// cmdTimeout bounds how long a command may block; cursor blink commands
// sleep far longer and are dropped.
const cmdTimeout = 100 * time.Millisecond

var gopherCon = types.Event{ID: "1", Name: "GopherCon", Date: "2026-07-14", Location: "Berlin", Capacity: 100, AvailableSpots: 5}

type fakeBackend struct {
	mu        sync.Mutex
	fail      bool
	reserved  []string
	canceled  []string
	requested []string
	cancelErr error
}

func (b *fakeBackend) Do(_ context.Context, method, path string, _, out any, _ ...api.RequestOption) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requested = append(b.requested, method+" "+path)
	if b.fail {
		return &api.RequestError{Method: method, Path: path, Status: 500, Kind: api.KindServer, Message: "database offline"}
	}
	switch path {
	case "/events":
		*out.(*[]types.Event) = []types.Event{gopherCon}
	case "/events/1":
		*out.(*types.Event) = gopherCon
	case "/reservations/my":
		*out.(*[]types.Reservation) = []types.Reservation{{ID: "r1", EventID: "1", Event: &gopherCon}}
	default:
		return &api.RequestError{Method: method, Path: path, Status: 404, Kind: api.KindClient, Message: "not found"}
	}
	return nil
}

func (b *fakeBackend) Reserve(_ context.Context, eventID string) (*types.Reservation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reserved = append(b.reserved, eventID)
	return &types.Reservation{ID: "r2", EventID: eventID}, nil
}

func (b *fakeBackend) CancelReservation(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.canceled = append(b.canceled, id)
	return b.cancelErr
}

type fakeAuth struct {
	store *session.Store
}

func (a fakeAuth) Login(ctx context.Context, email, password string) (*session.Session, error) {
	if email != "a@b.com" || password != "x" {
		return nil, errors.New("Invalid credentials")
	}
	user := types.User{ID: "1", Name: "A", Email: email, Role: types.RoleUser}
	if err := a.store.Set(ctx, "t1", user); err != nil {
		return nil, err
	}
	sess := a.store.Get(ctx)
	return &sess, nil
}

func (a fakeAuth) Logout(ctx context.Context) error {
	return a.store.Clear(ctx)
}

func (a fakeAuth) Session(ctx context.Context) session.Session {
	return a.store.Get(ctx)
}

type fixture struct {
	store   *session.Store
	backend *fakeBackend
	model   Model
}

func newFixture(t *testing.T, loggedIn bool) *fixture {
	t.Helper()
	ctx := context.Background()
	store := session.NewStore(session.NewMemoryKV(), log.Nop())
	if loggedIn {
		require.NoError(t, store.Set(ctx, "t1", types.User{ID: "1", Name: "A", Role: types.RoleUser}))
	}
	backend := &fakeBackend{}
	deps := Deps{
		Guard:   guard.New(store, guard.WithLogger(log.Nop())),
		Auth:    fakeAuth{store: store},
		Backend: backend,
		Logger:  log.Nop(),
	}
	m := NewModel(ctx, deps, "")
	m = drive(t, m, m.Init()())
	return &fixture{store: store, backend: backend, model: m}
}

// drive feeds msg to the model and keeps executing the resulting commands,
// plus the request transitions they post, until none are left.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	queue := []tea.Msg{msg}
	for steps := 0; ; steps++ {
		if len(queue) == 0 {
			queue = pending(m)
			if len(queue) == 0 {
				break
			}
		}
		require.Less(t, steps, 100, "message loop did not settle")
		next := queue[0]
		queue = queue[1:]

		switch v := next.(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
			continue
		case tea.BatchMsg:
			for _, c := range v {
				queue = append(queue, execCmd(c)...)
			}
			continue
		}

		updated, cmd := m.Update(next)
		m = updated.(Model)
		queue = append(queue, execCmd(cmd)...)
	}
	return m
}

// pending drains the transitions posted by mounted requests
func pending(m Model) []tea.Msg {
	var msgs []tea.Msg
	for {
		select {
		case msg := <-m.updates:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func execCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return []tea.Msg{msg}
	case <-time.After(cmdTimeout):
		return nil
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAnonymousStartShowsLogin(t *testing.T) {
	f := newFixture(t, false)

	assert.Equal(t, ScreenLogin, f.model.Screen())
	assert.Equal(t, guard.LoginPath, f.model.Path())
	assert.Contains(t, f.model.View(), "Password")
	assert.Empty(t, f.backend.requested, "no data loads without a session")
}

func TestLoginFlow(t *testing.T) {
	f := newFixture(t, false)
	m := f.model

	m = drive(t, m, keyRunes("a@b.com"))
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = drive(t, m, keyRunes("x"))
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ScreenDashboard, m.Screen())
	assert.Equal(t, "t1", f.store.Token(context.Background()))

	view := m.View()
	assert.Contains(t, view, "Welcome back")
	assert.Contains(t, view, "GopherCon")
	assert.Contains(t, view, "A (USER)")
}

func TestLoginFailureStaysOnForm(t *testing.T) {
	f := newFixture(t, false)
	m := f.model

	m = drive(t, m, keyRunes("a@b.com"))
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = drive(t, m, keyRunes("wrong"))
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Contains(t, m.View(), "Invalid credentials")
	assert.False(t, f.store.Get(context.Background()).Authenticated())
}

func TestEnterOnIncompleteLoginMovesFocus(t *testing.T) {
	f := newFixture(t, false)
	m := drive(t, f.model, keyRunes("a@b.com"))
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Equal(t, 1, m.login.focused)
}

func TestGuardRedirectShowsNotice(t *testing.T) {
	f := newFixture(t, true)

	m := drive(t, f.model, NavigateMsg{Path: "/events/edit/1"})

	assert.Equal(t, ScreenDashboard, m.Screen())
	assert.Equal(t, guard.DefaultPath, m.Path())
	assert.Contains(t, m.View(), "You don't have access to /events/edit/1")
}

func TestRouteWithoutScreenFallsBackToDashboard(t *testing.T) {
	f := newFixture(t, true)

	m := drive(t, f.model, NavigateMsg{Path: "/register"})

	assert.Equal(t, ScreenDashboard, m.Screen())
	assert.Equal(t, guard.DefaultPath, m.Path())
}

func TestBrowseAndReserve(t *testing.T) {
	f := newFixture(t, true)

	m := drive(t, f.model, keyRunes("e"))
	require.Equal(t, ScreenEvents, m.Screen())
	assert.Contains(t, m.View(), "GopherCon")

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ScreenEventDetail, m.Screen())
	assert.Equal(t, "/events/1", m.Path())
	assert.Contains(t, m.View(), "Berlin")

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"1"}, f.backend.reserved)
	assert.Contains(t, m.View(), "Reserved a seat for GopherCon")

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ScreenEvents, m.Screen())
	assert.Nil(t, m.event, "leaving the detail screen detaches its request")
}

func TestReservingSoldOutEventFailsLocally(t *testing.T) {
	f := newFixture(t, true)
	m := drive(t, f.model, NavigateMsg{Path: "/events/1"})

	soldOut := gopherCon
	soldOut.AvailableSpots = 0
	m.event = fetch.New[types.Event](staticEvent(soldOut), "/events/1")
	require.NoError(t, m.event.Initiate(context.Background(), fetch.Options{}))

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, f.backend.reserved)
	assert.Contains(t, m.View(), "GopherCon is sold out")
}

type staticEvent types.Event

func (s staticEvent) Do(_ context.Context, _, _ string, _, out any, _ ...api.RequestOption) error {
	*out.(*types.Event) = types.Event(s)
	return nil
}

func TestRefreshFailureKeepsStaleData(t *testing.T) {
	f := newFixture(t, true)
	m := drive(t, f.model, keyRunes("e"))
	require.Contains(t, m.View(), "GopherCon")

	f.backend.setFail(true)
	m = drive(t, m, keyRunes("g"))

	view := m.View()
	assert.Contains(t, view, "GopherCon")
	assert.Contains(t, view, "database offline")
}

func TestRenderStatus(t *testing.T) {
	f := newFixture(t, true)
	events := []types.Event{gopherCon}

	assert.Contains(t, renderStatus(f.model, fetch.State[[]types.Event]{Loading: true}), "Loading...")
	assert.Contains(t, renderStatus(f.model, fetch.State[[]types.Event]{Loading: true, Data: &events}), "refreshing")
	assert.Contains(t, renderStatus(f.model, fetch.State[[]types.Event]{Err: "boom"}), "boom")
	assert.Empty(t, renderStatus(f.model, fetch.State[[]types.Event]{Data: &events}))
}

func TestCancelReservation(t *testing.T) {
	f := newFixture(t, true)

	m := drive(t, f.model, keyRunes("r"))
	require.Equal(t, ScreenReservations, m.Screen())
	assert.Contains(t, m.View(), "GopherCon")

	m = drive(t, m, keyRunes("x"))
	assert.Equal(t, []string{"r1"}, f.backend.canceled)
	assert.Contains(t, m.View(), "Reservation r1 canceled")
}

func TestLogout(t *testing.T) {
	f := newFixture(t, true)

	m := drive(t, f.model, keyRunes("L"))

	assert.Equal(t, ScreenLogin, m.Screen())
	assert.False(t, f.store.Get(context.Background()).Authenticated())
	assert.Contains(t, m.View(), "Logged out")
}

func TestQuit(t *testing.T) {
	f := newFixture(t, true)

	updated, cmd := f.model.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, updated.(Model).View())

	login := newFixture(t, false)
	_, cmd = login.model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWindowResize(t *testing.T) {
	f := newFixture(t, true)
	updated, _ := f.model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m := updated.(Model)
	assert.True(t, m.ready)
	assert.Equal(t, 120, m.width)
}

func (b *fakeBackend) setFail(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = fail
}

func TestLogoutDropsPreviousUserData(t *testing.T) {
	f := newFixture(t, true)
	require.Contains(t, f.model.View(), "GopherCon")

	m := drive(t, f.model, keyRunes("L"))
	require.Equal(t, ScreenLogin, m.Screen())
	assert.Nil(t, m.events)
	assert.Nil(t, m.reservations)

	f.backend.setFail(true)
	m = drive(t, m, keyRunes("a@b.com"))
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = drive(t, m, keyRunes("x"))
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, ScreenDashboard, m.Screen())
	view := m.View()
	assert.Contains(t, view, "database offline")
	assert.NotContains(t, view, "GopherCon")
}

func TestScreensMountTheirOwnRequests(t *testing.T) {
	f := newFixture(t, true)
	require.NotNil(t, f.model.events)
	require.NotNil(t, f.model.reservations)
	dashboardEvents := f.model.events

	m := drive(t, f.model, keyRunes("r"))
	assert.Nil(t, m.events, "the reservations screen does not hold events")
	require.NotNil(t, m.reservations)
	assert.False(t, m.reservations.State().Loading)

	m = drive(t, m, keyRunes("e"))
	require.NotNil(t, m.events)
	assert.NotSame(t, dashboardEvents, m.events)
	assert.Contains(t, m.View(), "GopherCon")
}

func TestActionErrorShowsBackendMessage(t *testing.T) {
	f := newFixture(t, true)
	f.backend.cancelErr = &api.RequestError{
		Method: "DELETE", Path: "/reservations/r1", Status: 400,
		Kind: api.KindClient, Message: "Reservation already canceled",
	}

	m := drive(t, f.model, keyRunes("r"))
	m = drive(t, m, keyRunes("x"))

	view := m.View()
	assert.Contains(t, view, "✗ Reservation already canceled")
	assert.NotContains(t, view, "DELETE /reservations")
}

func TestErrorText(t *testing.T) {
	reqErr := &api.RequestError{Method: "POST", Path: "/auth/login", Status: 401, Message: "Invalid credentials"}
	assert.Equal(t, "Invalid credentials", errorText(reqErr))
	assert.Equal(t, "Invalid credentials", errorText(apperrors.Wrap(apperrors.ErrCodeLoginFailed, "login failed", reqErr)))
	assert.Equal(t, "email and password are required",
		errorText(apperrors.New(apperrors.ErrCodeCredentialsMissing, "email and password are required")))
	assert.Equal(t, "boom", errorText(errors.New("boom")))
}
