package cmd

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/eventpro/internal/api"
	"github.com/felixgeelhaar/eventpro/internal/ux"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

var dashboardCmd = guarded(&cobra.Command{
	Use:   "dashboard",
	Short: "Show upcoming events next to your reservations",
	Long: `Show a summary of upcoming events and your reservations. Both lists are
fetched in parallel; if one fails the other is still shown.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}, "/dashboard")

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	ctx := cmd.Context()

	var (
		wg                 sync.WaitGroup
		events             []types.Event
		reservations       []types.Reservation
		eventsErr, resvErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		events, eventsErr = app.Client.ListEvents(ctx)
	}()
	go func() {
		defer wg.Done()
		reservations, resvErr = app.Client.MyReservations(ctx)
	}()
	wg.Wait()

	if eventsErr != nil && resvErr != nil {
		return eventsErr
	}

	view := ux.Dashboard{
		User:         app.Auth.Session(ctx).User,
		Events:       events,
		Reservations: reservations,
	}
	if eventsErr != nil {
		view.Errors = append(view.Errors, "events: "+api.Message(eventsErr))
	}
	if resvErr != nil {
		view.Errors = append(view.Errors, "reservations: "+api.Message(resvErr))
	}
	return app.Render(view)
}
