package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/eventpro/internal/fetch"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

var eventColumns = []table.Column{
	{Title: "ID", Width: 8},
	{Title: "Name", Width: 28},
	{Title: "Date", Width: 12},
	{Title: "Location", Width: 20},
	{Title: "Spots", Width: 10},
}

var reservationColumns = []table.Column{
	{Title: "ID", Width: 8},
	{Title: "Event", Width: 28},
	{Title: "Date", Width: 12},
	{Title: "Location", Width: 20},
}

func eventRows(events []types.Event) []table.Row {
	rows := make([]table.Row, 0, len(events))
	for _, e := range events {
		rows = append(rows, table.Row{e.ID, e.Name, e.Date, e.Location, spots(e)})
	}
	return rows
}

func reservationRows(reservations []types.Reservation) []table.Row {
	rows := make([]table.Row, 0, len(reservations))
	for _, r := range reservations {
		name, date, location := r.EventID, "", ""
		if r.Event != nil {
			name, date, location = r.Event.Name, r.Event.Date, r.Event.Location
		}
		rows = append(rows, table.Row{r.ID, name, date, location})
	}
	return rows
}

func spots(e types.Event) string {
	if e.SoldOut() {
		return "sold out"
	}
	return fmt.Sprintf("%d/%d", e.AvailableSpots, e.Capacity)
}

func errSoldOut(name string) error {
	return fmt.Errorf("%s is sold out", name)
}

// renderHeader renders the title bar, the signed-in user and any notice
func (m Model) renderHeader() string {
	var b strings.Builder

	title := m.styles.Title.Render("🎟  EventPro")
	if m.screen != ScreenLogin {
		sess := m.deps.Auth.Session(m.ctx)
		who := sess.User.Name
		if who == "" {
			who = sess.User.Email
		}
		if who != "" {
			title = lipgloss.JoinHorizontal(lipgloss.Top, title, "  ",
				m.styles.Muted.Render(fmt.Sprintf("%s (%s)", who, sess.User.Role)))
		}
	}
	b.WriteString(title)
	b.WriteString("\n")

	if m.screen != ScreenLogin {
		b.WriteString(m.renderTabs())
		b.WriteString("\n\n")
	}

	if m.notice != "" {
		b.WriteString(m.styles.Warning.Render("• " + m.notice))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := []struct {
		label  string
		screen Screen
	}{
		{"Dashboard", ScreenDashboard},
		{"Events", ScreenEvents},
		{"Reservations", ScreenReservations},
	}
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		active := m.screen == t.screen || (t.screen == ScreenEvents && m.screen == ScreenEventDetail)
		if active {
			parts = append(parts, m.styles.Active.Render(t.label))
		} else {
			parts = append(parts, m.styles.Muted.Padding(0, 1).Render(t.label))
		}
	}
	return strings.Join(parts, " ")
}

// renderFooter renders errors and the key help line
func (m Model) renderFooter() string {
	var b strings.Builder
	if m.lastError != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("✗ " + m.lastError))
		b.WriteString("\n")
	}
	b.WriteString(m.renderHelpLine())
	return b.String()
}

func (m Model) renderHelpLine() string {
	var bindings []string
	add := func(k, desc string) {
		bindings = append(bindings, m.styles.Key.Render(k)+" "+m.styles.KeyDesc.Render(desc))
	}

	switch m.screen {
	case ScreenLogin:
		add("tab", "switch field")
		add("enter", "log in")
		add("ctrl+c", "quit")
		return m.styles.Help.Render(strings.Join(bindings, " • "))
	case ScreenEvents:
		add("↑/↓", "select")
		add("enter", "open")
	case ScreenEventDetail:
		add("enter", "reserve")
		add("esc", "back")
	case ScreenReservations:
		add("↑/↓", "select")
		add("x", "cancel")
	}
	if m.showHelp {
		for _, k := range []struct{ k, d string }{
			{"d", "dashboard"}, {"e", "events"}, {"r", "reservations"},
			{"g", "refresh"}, {"L", "log out"},
		} {
			add(k.k, k.d)
		}
	}
	add("?", "help")
	add("q", "quit")
	return m.styles.Help.Render(strings.Join(bindings, " • "))
}

// renderStatus renders the loading indicator or the error of a request
func renderStatus[T any](m Model, s fetch.State[T]) string {
	switch {
	case s.Loading && s.Data == nil:
		return m.spinner.View() + " Loading..."
	case s.Loading:
		return m.spinner.View() + m.styles.Muted.Render(" refreshing")
	case s.Err != "":
		return m.styles.Error.Render("✗ " + s.Err)
	}
	return ""
}

func (m Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Log in to manage your reservations"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Label.Render("Email") + m.login.email.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Label.Render("Password") + m.login.password.View())
	b.WriteString("\n")

	if m.login.submitting {
		b.WriteString("\n" + m.spinner.View() + " Logging in...\n")
	}
	if m.login.err != "" {
		b.WriteString("\n" + m.styles.Error.Render("✗ "+m.login.err) + "\n")
	}
	return m.styles.Border.Render(b.String())
}

func (m Model) renderDashboard() string {
	var b strings.Builder

	events := m.events.State()
	b.WriteString(m.styles.Subtitle.Render("Upcoming events"))
	if status := renderStatus(m, events); status != "" {
		b.WriteString("  " + status)
	}
	b.WriteString("\n")
	if events.Data != nil {
		list := *events.Data
		if len(list) == 0 {
			b.WriteString(m.styles.Muted.Render("  No events scheduled") + "\n")
		}
		for i, e := range list {
			if i == 5 {
				b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  … and %d more", len(list)-5)) + "\n")
				break
			}
			b.WriteString(fmt.Sprintf("  %-28s %-12s %s\n", e.Name, e.Date, spots(e)))
		}
	}
	b.WriteString("\n")

	reservations := m.reservations.State()
	b.WriteString(m.styles.Subtitle.Render("My reservations"))
	if status := renderStatus(m, reservations); status != "" {
		b.WriteString("  " + status)
	}
	b.WriteString("\n")
	if reservations.Data != nil {
		if len(*reservations.Data) == 0 {
			b.WriteString(m.styles.Muted.Render("  No reservations yet") + "\n")
		}
		for _, row := range reservationRows(*reservations.Data) {
			b.WriteString(fmt.Sprintf("  %-28s %s\n", row[1], row[2]))
		}
	}
	return b.String()
}

func (m Model) renderEvents() string {
	var b strings.Builder
	s := m.events.State()
	if status := renderStatus(m, s); status != "" {
		b.WriteString(status + "\n")
	}
	if s.Data != nil {
		if len(*s.Data) == 0 {
			b.WriteString(m.styles.Muted.Render("No events found") + "\n")
		} else {
			b.WriteString(m.eventsTable.View() + "\n")
		}
	}
	return b.String()
}

func (m Model) renderEventDetail() string {
	if m.event == nil {
		return ""
	}
	var b strings.Builder
	s := m.event.State()
	if status := renderStatus(m, s); status != "" {
		b.WriteString(status + "\n")
	}
	if s.Data == nil {
		return b.String()
	}

	e := *s.Data
	var d strings.Builder
	d.WriteString(m.styles.Title.Render(e.Name) + "\n")
	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		d.WriteString(m.styles.Label.Render(label) + value + "\n")
	}
	field("Date", strings.TrimSpace(e.Date+" "+e.Time))
	field("Location", e.Location)
	field("Capacity", strconv.Itoa(e.Capacity))
	field("Available", spots(e))
	if e.Description != "" {
		d.WriteString("\n" + e.Description + "\n")
	}
	b.WriteString(m.styles.Border.Render(d.String()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderReservations() string {
	var b strings.Builder
	s := m.reservations.State()
	if status := renderStatus(m, s); status != "" {
		b.WriteString(status + "\n")
	}
	if s.Data != nil {
		if len(*s.Data) == 0 {
			b.WriteString(m.styles.Muted.Render("No reservations yet") + "\n")
		} else {
			b.WriteString(m.reservationsTable.View() + "\n")
		}
	}
	return b.String()
}
