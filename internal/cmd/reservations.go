package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/eventpro/internal/ux"
)

var reservationsCmd = &cobra.Command{
	Use:     "reservations",
	Aliases: []string{"res"},
	Short:   "Reserve seats and manage your reservations",
	Long: `Reserve a seat for an event, list or cancel your reservations, and as an
administrator review who booked a given event.

Examples:
  eventpro reservations list
  eventpro reservations reserve 42
  eventpro reservations cancel 7 --yes
  eventpro reservations event 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var reservationsListCmd = guarded(&cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your reservations",
	Args:    cobra.NoArgs,
	RunE:    runReservationsList,
}, "/reservations")

var reservationsReserveCmd = guarded(&cobra.Command{
	Use:   "reserve <event-id>",
	Short: "Reserve a seat for an event",
	Args:  cobra.ExactArgs(1),
	RunE:  runReservationsReserve,
}, "/events/:id")

var reservationsCancelCmd = guarded(&cobra.Command{
	Use:   "cancel <reservation-id>",
	Short: "Cancel one of your reservations",
	Args:  cobra.ExactArgs(1),
	RunE:  runReservationsCancel,
}, "/reservations")

var reservationsEventCmd = guarded(&cobra.Command{
	Use:   "event <event-id>",
	Short: "List the reservations for an event",
	Args:  cobra.ExactArgs(1),
	RunE:  runReservationsEvent,
}, "/events/:id/reservations")

func init() {
	reservationsCancelCmd.Flags().BoolP("yes", "y", false, "skip the confirmation")

	reservationsCmd.AddCommand(reservationsListCmd)
	reservationsCmd.AddCommand(reservationsReserveCmd)
	reservationsCmd.AddCommand(reservationsCancelCmd)
	reservationsCmd.AddCommand(reservationsEventCmd)

	rootCmd.AddCommand(reservationsCmd)
}

func runReservationsList(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	list, err := app.Client.MyReservations(cmd.Context())
	if err != nil {
		return err
	}
	return app.Render(ux.ReservationList(list))
}

func runReservationsReserve(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	res, err := app.Client.Reserve(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	name := args[0]
	if res.Event != nil && res.Event.Name != "" {
		name = res.Event.Name
	}
	return app.Render(ux.Message{Text: fmt.Sprintf("Reserved a seat for %s (reservation %s)", name, res.ID), Data: res})
}

func runReservationsCancel(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	ok, err := confirm(cmd, fmt.Sprintf("Cancel reservation %s?", args[0]))
	if err != nil {
		return err
	}
	if !ok {
		return app.Render(ux.Message{Text: "Aborted"})
	}

	if err := app.Client.CancelReservation(cmd.Context(), args[0]); err != nil {
		return err
	}
	return app.Render(ux.Message{Text: fmt.Sprintf("Canceled reservation %s", args[0])})
}

func runReservationsEvent(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	list, err := app.Client.EventReservations(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return app.Render(ux.ReservationList(list))
}
