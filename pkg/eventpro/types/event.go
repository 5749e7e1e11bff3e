package types

import (
	"fmt"
	"strings"
	"time"
)

// Event is a bookable event as returned by the backend.
type Event struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	Date           string `json:"date,omitempty" yaml:"date,omitempty"`
	Time           string `json:"time,omitempty" yaml:"time,omitempty"`
	Location       string `json:"location,omitempty" yaml:"location,omitempty"`
	Capacity       int    `json:"capacity" yaml:"capacity"`
	AvailableSpots int    `json:"availableSpots" yaml:"availableSpots"`
}

// SoldOut reports whether no seats remain
func (e Event) SoldOut() bool {
	return e.AvailableSpots <= 0
}

// StartsAt parses Date (and Time when present) into a timestamp.
// Dates are accepted as RFC 3339 or YYYY-MM-DD; times as HH:MM.
func (e Event) StartsAt() (time.Time, error) {
	if e.Date == "" {
		return time.Time{}, fmt.Errorf("event %s has no date", e.ID)
	}
	if t, err := time.Parse(time.RFC3339, e.Date); err == nil {
		return t, nil
	}

	layout := "2006-01-02"
	value := e.Date
	if len(value) > len(layout) {
		value = value[:len(layout)]
	}
	if e.Time != "" {
		layout += " 15:04"
		value += " " + strings.TrimSpace(e.Time)
	}

	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("event %s: invalid date/time: %w", e.ID, err)
	}
	return t, nil
}

// String returns a one-line summary used by the text formatter
func (e Event) String() string {
	return fmt.Sprintf("%s  %s  %s %s  @ %s  (%d/%d available)",
		e.ID, e.Name, e.Date, e.Time, e.Location, e.AvailableSpots, e.Capacity)
}

// EventInput is the payload for creating or replacing an event.
type EventInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
}

// Validate checks the fields the backend requires
func (in EventInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(in.Location) == "" {
		missing = append(missing, "location")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required event fields: %s", strings.Join(missing, ", "))
	}
	if in.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", in.Capacity)
	}
	return nil
}

// Reservation is a seat reserved by a user for an event.
type Reservation struct {
	ID        string    `json:"id" yaml:"id"`
	EventID   string    `json:"eventId" yaml:"eventId"`
	UserID    string    `json:"userId,omitempty" yaml:"userId,omitempty"`
	Event     *Event    `json:"event,omitempty" yaml:"event,omitempty"`
	User      *User     `json:"user,omitempty" yaml:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// String returns a one-line summary used by the text formatter
func (r Reservation) String() string {
	name := r.EventID
	if r.Event != nil && r.Event.Name != "" {
		name = r.Event.Name
	}
	return fmt.Sprintf("%s  %s", r.ID, name)
}
