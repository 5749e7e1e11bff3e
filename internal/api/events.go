package api

import (
	"context"
	"net/url"

	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

// EventPatch carries the fields to change in a partial update. Nil fields
// are left untouched by the backend.
type EventPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	Location    *string `json:"location,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p EventPatch) Empty() bool {
	return p == EventPatch{}
}

// EventsPath is the event collection endpoint
const EventsPath = "/events"

func eventPath(id string) string {
	return EventsPath + "/" + url.PathEscape(id)
}

// ListEvents returns all events
func (c *Client) ListEvents(ctx context.Context, opts ...RequestOption) ([]types.Event, error) {
	var events []types.Event
	if err := c.Get(ctx, EventsPath, &events, opts...); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent returns one event
func (c *Client) GetEvent(ctx context.Context, id string) (*types.Event, error) {
	var event types.Event
	if err := c.Get(ctx, eventPath(id), &event, WithRoute("/events/:id")); err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateEvent creates an event (ADMIN)
func (c *Client) CreateEvent(ctx context.Context, in types.EventInput) (*types.Event, error) {
	var event types.Event
	if err := c.Post(ctx, "/events", in, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent replaces an event (ADMIN)
func (c *Client) UpdateEvent(ctx context.Context, id string, in types.EventInput) (*types.Event, error) {
	var event types.Event
	if err := c.Put(ctx, eventPath(id), in, &event, WithRoute("/events/:id")); err != nil {
		return nil, err
	}
	return &event, nil
}

// PatchEvent partially updates an event (ADMIN)
func (c *Client) PatchEvent(ctx context.Context, id string, patch EventPatch) (*types.Event, error) {
	var event types.Event
	if err := c.Patch(ctx, eventPath(id), patch, &event, WithRoute("/events/:id")); err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteEvent deletes an event (ADMIN)
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.Delete(ctx, eventPath(id), nil, WithRoute("/events/:id"))
}
