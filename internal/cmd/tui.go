package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/eventpro/internal/guard"
	"github.com/felixgeelhaar/eventpro/internal/metrics"
	"github.com/felixgeelhaar/eventpro/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal UI",
	Long: `Open a full-screen interface with the same views as the web app:
login, dashboard, events, event details and your reservations.
Views that need a login send you to the login screen first.

With --metrics-addr the request, guard and fetch metrics of the session are
served in Prometheus format while the UI runs.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().String("start", guard.DefaultPath, "route to open first, e.g. /events or /events/42")
	tuiCmd.Flags().String("metrics-addr", "", "serve /metrics on this address, e.g. localhost:9090")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	start, _ := cmd.Flags().GetString("start")
	addr, _ := cmd.Flags().GetString("metrics-addr")

	if addr != "" {
		stop := serveMetrics(app, addr)
		defer stop()
	}

	return tui.Run(cmd.Context(), tui.Deps{
		Guard:   app.Guard,
		Auth:    app.Auth,
		Backend: app.Client,
		Logger:  app.Logger,
		Metrics: app.Metrics,
	}, start)
}

// serveMetrics exposes the registry until the returned func is called
func serveMetrics(app *App, addr string) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HandlerFor(app.Registry))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	app.Logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
