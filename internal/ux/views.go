package ux

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Width(14)
)

// Table renders rows with a header line
type Table struct {
	Headers []string
	Rows    [][]string
	Empty   string
}

// RenderText implements TextRenderer
func (t Table) RenderText(w io.Writer, opts *FormatterOptions) error {
	if len(t.Rows) == 0 {
		msg := t.Empty
		if msg == "" {
			msg = "nothing to show"
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}

	noColor := opts != nil && opts.NoColor
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow && !noColor {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(t.Headers...).
		Rows(t.Rows...)

	_, err := fmt.Fprintln(w, tbl.String())
	return err
}

// EventList is the text view of a set of events
type EventList []types.Event

// Payload implements Payloader
func (l EventList) Payload() any { return []types.Event(l) }

// RenderText implements TextRenderer
func (l EventList) RenderText(w io.Writer, opts *FormatterOptions) error {
	t := Table{
		Headers: []string{"ID", "NAME", "DATE", "LOCATION", "SPOTS"},
		Empty:   "No events found.",
	}
	for _, e := range l {
		t.Rows = append(t.Rows, []string{e.ID, e.Name, when(e), e.Location, spots(e)})
	}
	return t.RenderText(w, opts)
}

// EventDetail is the text view of a single event
type EventDetail types.Event

// Payload implements Payloader
func (d EventDetail) Payload() any { return types.Event(d) }

// RenderText implements TextRenderer
func (d EventDetail) RenderText(w io.Writer, opts *FormatterOptions) error {
	e := types.Event(d)
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(e.Name))
	b.WriteString("\n\n")
	field(&b, "ID", e.ID)
	field(&b, "When", when(e))
	field(&b, "Location", e.Location)
	field(&b, "Capacity", strconv.Itoa(e.Capacity))
	field(&b, "Available", spots(e))
	if e.Description != "" {
		b.WriteString("\n")
		b.WriteString(e.Description)
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ReservationList is the text view of a set of reservations
type ReservationList []types.Reservation

// Payload implements Payloader
func (l ReservationList) Payload() any { return []types.Reservation(l) }

// RenderText implements TextRenderer
func (l ReservationList) RenderText(w io.Writer, opts *FormatterOptions) error {
	t := Table{
		Headers: []string{"ID", "EVENT", "DATE", "BOOKED BY"},
		Empty:   "No reservations yet.",
	}
	for _, r := range l {
		event, date := r.EventID, ""
		if r.Event != nil {
			event = r.Event.Name
			date = when(*r.Event)
		}
		who := r.UserID
		if r.User != nil && r.User.Name != "" {
			who = r.User.Name
		}
		t.Rows = append(t.Rows, []string{r.ID, event, date, who})
	}
	return t.RenderText(w, opts)
}

// Dashboard combines upcoming events and the user's reservations
type Dashboard struct {
	User         types.User          `json:"user" yaml:"user"`
	Events       []types.Event       `json:"events" yaml:"events"`
	Reservations []types.Reservation `json:"reservations" yaml:"reservations"`
	Errors       []string            `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// RenderText implements TextRenderer
func (d Dashboard) RenderText(w io.Writer, opts *FormatterOptions) error {
	name := d.User.Name
	if name == "" {
		name = d.User.Email
	}
	if name == "" {
		name = "there"
	}
	if _, err := fmt.Fprintf(w, "Welcome, %s", name); err != nil {
		return err
	}
	if d.User.Role != "" {
		fmt.Fprintf(w, " %s", mutedStyle.Render("("+d.User.Role.String()+")"))
	}
	fmt.Fprint(w, "\n\n")

	fmt.Fprintf(w, "Upcoming events (%d)\n", len(d.Events))
	if err := EventList(d.Events).RenderText(w, opts); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nMy reservations (%d)\n", len(d.Reservations))
	if err := ReservationList(d.Reservations).RenderText(w, opts); err != nil {
		return err
	}
	for _, e := range d.Errors {
		fmt.Fprintf(w, "\n⚠️  %s\n", e)
	}
	return nil
}

// Message is a one-line confirmation with optional structured payload
type Message struct {
	Text string
	Data any
}

// Payload implements Payloader
func (m Message) Payload() any {
	if m.Data != nil {
		return m.Data
	}
	return map[string]string{"message": m.Text}
}

// RenderText implements TextRenderer
func (m Message) RenderText(w io.Writer, _ *FormatterOptions) error {
	_, err := fmt.Fprintf(w, "✓ %s\n", m.Text)
	return err
}

func field(b *strings.Builder, label, value string) {
	if value == "" {
		value = "-"
	}
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

func when(e types.Event) string {
	if t, err := e.StartsAt(); err == nil {
		if e.Time == "" && !strings.Contains(e.Date, "T") {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04")
	}
	return strings.TrimSpace(e.Date + " " + e.Time)
}

func spots(e types.Event) string {
	if e.SoldOut() {
		return "sold out"
	}
	if e.Capacity > 0 {
		return fmt.Sprintf("%d/%d", e.AvailableSpots, e.Capacity)
	}
	return strconv.Itoa(e.AvailableSpots)
}
