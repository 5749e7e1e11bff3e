package api

import (
	"context"
	"net/url"

	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

// MyReservationsPath is the listing endpoint for the current user
const MyReservationsPath = "/reservations/my"

// MyReservations lists the current user's reservations
func (c *Client) MyReservations(ctx context.Context) ([]types.Reservation, error) {
	var reservations []types.Reservation
	if err := c.Get(ctx, MyReservationsPath, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// Reserve books a seat for the current user
func (c *Client) Reserve(ctx context.Context, eventID string) (*types.Reservation, error) {
	var reservation types.Reservation
	path := "/reservations/" + url.PathEscape(eventID) + "/reserve"
	if err := c.Post(ctx, path, nil, &reservation, WithRoute("/reservations/:eventId/reserve")); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// CancelReservation cancels one of the current user's reservations
func (c *Client) CancelReservation(ctx context.Context, reservationID string) error {
	return c.Delete(ctx, "/reservations/"+url.PathEscape(reservationID), nil, WithRoute("/reservations/:id"))
}

// EventReservations lists all reservations for an event (ADMIN)
func (c *Client) EventReservations(ctx context.Context, eventID string) ([]types.Reservation, error) {
	var reservations []types.Reservation
	path := "/reservations/event/" + url.PathEscape(eventID)
	if err := c.Get(ctx, path, &reservations, WithRoute("/reservations/event/:eventId")); err != nil {
		return nil, err
	}
	return reservations, nil
}
