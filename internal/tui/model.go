package tui

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/eventpro/internal/api"
	apperrors "github.com/felixgeelhaar/eventpro/internal/errors"
	"github.com/felixgeelhaar/eventpro/internal/fetch"
	"github.com/felixgeelhaar/eventpro/internal/guard"
	"github.com/felixgeelhaar/eventpro/internal/log"
	"github.com/felixgeelhaar/eventpro/internal/metrics"
	"github.com/felixgeelhaar/eventpro/internal/session"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

// Screen identifies the view being displayed
type Screen int

// Screen constants
const (
	// ScreenLogin asks for credentials
	ScreenLogin Screen = iota
	// ScreenDashboard shows upcoming events and the user's reservations
	ScreenDashboard
	// ScreenEvents lists all events
	ScreenEvents
	// ScreenEventDetail shows one event
	ScreenEventDetail
	// ScreenReservations lists the user's reservations
	ScreenReservations
)

// screens maps route patterns to the screen that renders them
var screens = map[string]Screen{
	"/login":        ScreenLogin,
	"/dashboard":    ScreenDashboard,
	"/events":       ScreenEvents,
	"/events/:id":   ScreenEventDetail,
	"/reservations": ScreenReservations,
}

// Navigator decides which route may be shown. *guard.Guard satisfies it.
type Navigator interface {
	Check(ctx context.Context, path string) guard.Decision
	Routes() *guard.Table
}

// Authenticator manages the stored session. *auth.Service satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Logout(ctx context.Context) error
	Session(ctx context.Context) session.Session
}

// Backend loads data and performs reservation actions. *api.Client satisfies it.
type Backend interface {
	fetch.Doer
	Reserve(ctx context.Context, eventID string) (*types.Reservation, error)
	CancelReservation(ctx context.Context, reservationID string) error
}

// Deps are the services the TUI drives
type Deps struct {
	Guard   Navigator
	Auth    Authenticator
	Backend Backend
	Logger  *log.Logger
	Metrics *metrics.Metrics
}

// Model represents the TUI application state
type Model struct {
	ctx  context.Context
	deps Deps

	// Navigation state
	path   string
	screen Screen
	notice string

	// Data for the mounted screen, one request per endpoint. Requests live
	// as long as their screen and report transitions on updates.
	events       *fetch.Request[[]types.Event]
	reservations *fetch.Request[[]types.Reservation]
	event        *fetch.Request[types.Event]
	updates      chan tea.Msg

	// Widgets
	login             loginForm
	spinner           spinner.Model
	eventsTable       table.Model
	reservationsTable table.Model

	// UI state
	width     int
	height    int
	ready     bool
	quitting  bool
	showHelp  bool
	lastError string

	styles Styles
	keys   keyMap
}

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Muted    lipgloss.Style
	Border   lipgloss.Style
	Label    lipgloss.Style
	Active   lipgloss.Style
	Help     lipgloss.Style
	Key      lipgloss.Style
	KeyDesc  lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2),
		Label: lipgloss.NewStyle().
			Bold(true).
			Width(12),
		Active: lipgloss.NewStyle().
			Background(lipgloss.Color("63")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		KeyDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

// keyMap defines the keyboard shortcuts
type keyMap struct {
	Quit         key.Binding
	ForceQuit    key.Binding
	Dashboard    key.Binding
	Events       key.Binding
	Reservations key.Binding
	Open         key.Binding
	Back         key.Binding
	Refresh      key.Binding
	Cancel       key.Binding
	Logout       key.Binding
	Help         key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:         key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Dashboard:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dashboard")),
		Events:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "events")),
		Reservations: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reservations")),
		Open:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/reserve")),
		Back:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Refresh:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "refresh")),
		Cancel:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cancel reservation")),
		Logout:       key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// NewModel creates the TUI model. The first screen is chosen by the guard
// for start, so an anonymous user lands on the login screen.
func NewModel(ctx context.Context, deps Deps, start string) Model {
	if deps.Logger == nil {
		deps.Logger = log.DefaultLogger()
	}
	deps.Logger = deps.Logger.With("component", "tui")
	if start == "" {
		start = guard.DefaultPath
	}

	m := Model{
		ctx:     ctx,
		deps:    deps,
		path:    start,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		login:   newLoginForm(),
		updates: make(chan tea.Msg, 64),
		eventsTable: table.New(
			table.WithColumns(eventColumns),
			table.WithFocused(true),
			table.WithHeight(10),
		),
		reservationsTable: table.New(
			table.WithColumns(reservationColumns),
			table.WithFocused(true),
			table.WithHeight(10),
		),
		styles: DefaultStyles(),
		keys:   defaultKeys(),
	}
	return m
}

// Init navigates to the start route (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	path := m.path
	return func() tea.Msg { return NavigateMsg{Path: path} }
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		if h := msg.Height - 12; h > 3 {
			m.eventsTable.SetHeight(h)
			m.reservationsTable.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case NavigateMsg:
		return m.navigate(msg.Path)

	case stateMsg:
		m.syncTables()
		return m, nil

	case loginResultMsg:
		m.login.submitting = false
		if msg.err != nil {
			m.login.err = errorText(msg.err)
			return m, nil
		}
		m.login.reset()
		next, cmd := m.navigate(guard.DefaultPath)
		next.notice = "Welcome back"
		return next, cmd

	case logoutMsg:
		next, cmd := m.navigate(guard.LoginPath)
		next.notice = "Logged out"
		return next, cmd

	case actionMsg:
		if msg.err != nil {
			m.lastError = errorText(msg.err)
			return m, nil
		}
		m.lastError = ""
		m.notice = msg.notice
		return m, m.refreshCurrent()

	case spinner.TickMsg:
		if !m.loading() && !m.login.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.screen == ScreenLogin {
		var cmd tea.Cmd
		m.login, cmd = m.login.update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.screen {
	case ScreenLogin:
		body = m.renderLogin()
	case ScreenDashboard:
		body = m.renderDashboard()
	case ScreenEvents:
		body = m.renderEvents()
	case ScreenEventDetail:
		body = m.renderEventDetail()
	case ScreenReservations:
		body = m.renderReservations()
	default:
		body = "Unknown view"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(body)
	b.WriteString(m.renderFooter())
	return b.String()
}

// Path returns the route currently shown
func (m Model) Path() string {
	return m.path
}

// Screen returns the screen currently shown
func (m Model) Screen() Screen {
	return m.screen
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	// The login form owns all other keys
	if m.screen == ScreenLogin {
		if msg.Type == tea.KeyEnter && m.login.ready() && !m.login.submitting {
			m.login.submitting = true
			m.login.err = ""
			return m, tea.Batch(m.submitLogin(m.login.email.Value(), m.login.password.Value()), m.spinner.Tick)
		}
		var cmd tea.Cmd
		m.login, cmd = m.login.update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Dashboard):
		return m.navigate(guard.DefaultPath)
	case key.Matches(msg, m.keys.Events):
		return m.navigate("/events")
	case key.Matches(msg, m.keys.Reservations):
		return m.navigate("/reservations")
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCurrent()
	case key.Matches(msg, m.keys.Logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.Back):
		if m.screen == ScreenEventDetail {
			return m.navigate("/events")
		}
		return m, nil
	}

	switch m.screen {
	case ScreenEvents:
		if key.Matches(msg, m.keys.Open) {
			if row := m.eventsTable.SelectedRow(); len(row) > 0 {
				return m.navigate("/events/" + row[0])
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.eventsTable, cmd = m.eventsTable.Update(msg)
		return m, cmd

	case ScreenEventDetail:
		if key.Matches(msg, m.keys.Open) {
			return m, m.reserve()
		}

	case ScreenReservations:
		if key.Matches(msg, m.keys.Cancel) {
			if row := m.reservationsTable.SelectedRow(); len(row) > 0 {
				return m, m.cancelReservation(row[0])
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.reservationsTable, cmd = m.reservationsTable.Update(msg)
		return m, cmd
	}

	return m, nil
}

// NavigateMsg asks the model to show path, subject to the guard
type NavigateMsg struct {
	Path string
}

// navigate consults the guard and switches to the resulting screen. A
// redirect is shown as a notice, never as an error.
func (m Model) navigate(path string) (Model, tea.Cmd) {
	d := m.deps.Guard.Check(m.ctx, path)
	m.notice = ""
	switch d.Outcome {
	case guard.RedirectDefault:
		if d.From != "" {
			m.notice = "You don't have access to " + d.From
		}
	case guard.RedirectLogin:
		if m.screen != ScreenLogin && path != guard.LoginPath {
			m.notice = "Please log in to continue"
		}
	}

	target := d.Target
	route, ok := m.deps.Guard.Routes().Resolve(target)
	if !ok {
		m.lastError = "no screen for " + target
		return m, nil
	}
	screen, ok := screens[route.Pattern]
	if !ok {
		// Routes without a TUI screen fall back to the dashboard
		screen, target = ScreenDashboard, guard.DefaultPath
	}

	m.unmount()
	m.path = target
	m.screen = screen
	m.lastError = ""
	m.deps.Logger.DebugContext(m.ctx, "navigate", "path", target, "outcome", string(d.Outcome))

	switch screen {
	case ScreenLogin:
		cmd := m.login.focus()
		return m, cmd
	case ScreenDashboard:
		m.events = mount[[]types.Event](m, api.EventsPath, api.EventsPath)
		m.reservations = mount[[]types.Reservation](m, api.MyReservationsPath, api.MyReservationsPath)
		return m, tea.Batch(attach(m.ctx, m.events), attach(m.ctx, m.reservations), m.spinner.Tick)
	case ScreenEvents:
		m.events = mount[[]types.Event](m, api.EventsPath, api.EventsPath)
		return m, tea.Batch(attach(m.ctx, m.events), m.spinner.Tick)
	case ScreenReservations:
		m.reservations = mount[[]types.Reservation](m, api.MyReservationsPath, api.MyReservationsPath)
		return m, tea.Batch(attach(m.ctx, m.reservations), m.spinner.Tick)
	case ScreenEventDetail:
		params, _ := guard.Match(route.Pattern, target)
		m.event = mount[types.Event](m, api.EventsPath+"/"+url.PathEscape(params["id"]), "/events/:id")
		return m, tea.Batch(attach(m.ctx, m.event), m.spinner.Tick)
	}
	return m, nil
}

// mount builds an immediate request for the screen being shown. Its
// transitions are posted to the model's update channel.
func mount[T any](m Model, path, route string) *fetch.Request[T] {
	req := fetch.New[T](m.deps.Backend, path,
		fetch.Immediate(),
		fetch.WithRoute(route),
		fetch.WithLogger(m.deps.Logger),
		fetch.WithMetrics(m.deps.Metrics))
	updates := m.updates
	req.Subscribe(func(fetch.State[T]) {
		select {
		case updates <- stateMsg{path: path}:
		default:
			// a redraw is already queued
		}
	})
	return req
}

// unmount detaches every request of the screen being left. Their data is
// dropped with them, so nothing survives a logout.
func (m *Model) unmount() {
	if m.events != nil {
		m.events.Detach()
		m.events = nil
	}
	if m.reservations != nil {
		m.reservations.Detach()
		m.reservations = nil
	}
	if m.event != nil {
		m.event.Detach()
		m.event = nil
	}
	m.eventsTable.SetRows(nil)
	m.reservationsTable.SetRows(nil)
}

// refreshCurrent reloads the data behind the current screen
func (m Model) refreshCurrent() tea.Cmd {
	switch m.screen {
	case ScreenDashboard:
		return tea.Batch(refetch(m.ctx, m.events), refetch(m.ctx, m.reservations), m.spinner.Tick)
	case ScreenEvents:
		return tea.Batch(refetch(m.ctx, m.events), m.spinner.Tick)
	case ScreenEventDetail:
		return tea.Batch(refetch(m.ctx, m.event), m.spinner.Tick)
	case ScreenReservations:
		return tea.Batch(refetch(m.ctx, m.reservations), m.spinner.Tick)
	}
	return nil
}

// loading reports whether any request behind the current screen is in flight
func (m Model) loading() bool {
	return isLoading(m.events) || isLoading(m.reservations) || isLoading(m.event)
}

func isLoading[T any](req *fetch.Request[T]) bool {
	return req != nil && req.State().Loading
}

// syncTables copies the latest data into the table widgets
func (m *Model) syncTables() {
	if m.events != nil {
		if data := m.events.State().Data; data != nil {
			m.eventsTable.SetRows(eventRows(*data))
		}
	}
	if m.reservations != nil {
		if data := m.reservations.State().Data; data != nil {
			m.reservationsTable.SetRows(reservationRows(*data))
		}
	}
}

// errorText is the message shown for err: the backend's own text for
// failed requests, the summary line for coded errors.
func errorText(err error) string {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) {
		return api.Message(err)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Custom messages for asynchronous work

// stateMsg reports a transition of a mounted request
type stateMsg struct {
	path string
}

type loginResultMsg struct {
	err error
}

type logoutMsg struct{}

type actionMsg struct {
	notice string
	err    error
}

// attach mounts req, issuing its first call. Results arrive as stateMsg
// through the subscription.
func attach[T any](ctx context.Context, req *fetch.Request[T]) tea.Cmd {
	return func() tea.Msg {
		// The error is kept in the request state for the view
		_ = req.Attach(ctx)
		return nil
	}
}

// refetch reloads req; stale data stays visible while it runs
func refetch[T any](ctx context.Context, req *fetch.Request[T]) tea.Cmd {
	if req == nil {
		return nil
	}
	return func() tea.Msg {
		_ = req.Refetch(ctx, fetch.Options{})
		return nil
	}
}

func (m Model) submitLogin(email, password string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.deps.Auth.Login(m.ctx, email, password)
		return loginResultMsg{err: err}
	}
}

func (m Model) logout() tea.Cmd {
	return func() tea.Msg {
		if err := m.deps.Auth.Logout(m.ctx); err != nil {
			return actionMsg{err: err}
		}
		return logoutMsg{}
	}
}

func (m Model) reserve() tea.Cmd {
	if m.event == nil {
		return nil
	}
	data := m.event.State().Data
	if data == nil {
		return nil
	}
	event := *data
	if event.SoldOut() {
		return func() tea.Msg {
			return actionMsg{err: errSoldOut(event.Name)}
		}
	}
	return func() tea.Msg {
		if _, err := m.deps.Backend.Reserve(m.ctx, event.ID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{notice: "Reserved a seat for " + event.Name}
	}
}

func (m Model) cancelReservation(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.deps.Backend.CancelReservation(m.ctx, id); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{notice: "Reservation " + id + " canceled"}
	}
}

// Run starts the TUI on the terminal and blocks until the user quits
func Run(ctx context.Context, deps Deps, start string, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(ctx, deps, start)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(m, opts...)
	go forward(ctx, m.updates, p)
	_, err := p.Run()
	return err
}

// forward relays request transitions into the program until ctx ends
func forward(ctx context.Context, updates <-chan tea.Msg, p *tea.Program) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-updates:
			p.Send(msg)
		}
	}
}
