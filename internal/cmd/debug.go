package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/eventpro/internal/guard"
	"github.com/felixgeelhaar/eventpro/internal/health"
	"github.com/felixgeelhaar/eventpro/internal/metrics"
	"github.com/felixgeelhaar/eventpro/internal/ux"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Debugging and diagnostic utilities",
	Long: `Debugging and diagnostic utilities for troubleshooting EventPro.

Commands:
  doctor    Check configuration, backend reachability and the stored session
  routes    Show every view and whether the current login may open it

Examples:
  eventpro debug doctor
  eventpro debug doctor --metrics
  eventpro debug routes --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var debugDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostics",
	Args:  cobra.NoArgs,
	RunE:  runDebugDoctor,
}

var debugRoutesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Show the route table and guard decisions",
	Args:  cobra.NoArgs,
	RunE:  runDebugRoutes,
}

func init() {
	debugDoctorCmd.Flags().Bool("metrics", false, "print the metrics collected during the checks")

	debugCmd.AddCommand(debugDoctorCmd)
	debugCmd.AddCommand(debugRoutesCmd)

	rootCmd.AddCommand(debugCmd)
}

// doctorReport is the text view of the health reports
type doctorReport []health.Report

func (r doctorReport) Payload() any {
	return map[string]any{
		"status": health.OverallStatus(r),
		"checks": []health.Report(r),
	}
}

func (r doctorReport) RenderText(w io.Writer, _ *ux.FormatterOptions) error {
	for _, c := range r {
		mark := "✓"
		switch c.Status {
		case health.StatusDegraded:
			mark = "!"
		case health.StatusUnhealthy:
			mark = "✗"
		}
		if _, err := fmt.Fprintf(w, "%s %-13s %s\n", mark, c.Name, c.Message); err != nil {
			return err
		}
	}
	return nil
}

func runDebugDoctor(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	showMetrics, _ := cmd.Flags().GetBool("metrics")

	manager := health.NewManager().WithTimeout(app.Config.API.Timeout)
	manager.AddChecker(health.NewCheckFunc("config", func(context.Context) *health.Result {
		return health.Healthy(fmt.Sprintf("%s (api.url from %s)", app.Config.Path(), app.Config.Source("api.url"))).
			WithDetail("path", app.Config.Path())
	}))
	manager.AddChecker(health.NewBackendChecker(app.Client))
	manager.AddChecker(health.NewSessionChecker(app.Store.Backend()))
	manager.AddChecker(health.NewLoginChecker(app.Auth.Status))

	report := doctorReport(manager.Check(cmd.Context()))
	app.Logger.Debug("diagnostics finished", "status", health.OverallStatus(report))

	if err := app.Render(report); err != nil {
		return err
	}
	if showMetrics {
		fmt.Fprintln(app.out)
		if err := metrics.WriteText(app.out, app.Registry); err != nil {
			return err
		}
	}
	if health.OverallStatus(report) == health.StatusUnhealthy {
		return fmt.Errorf("one or more checks failed")
	}
	return nil
}

// routeView pairs a route with the guard decision for the current session
type routeView struct {
	guard.Route
	Decision guard.Outcome `json:"decision" yaml:"decision"`
}

type routeList []routeView

func (l routeList) Payload() any { return []routeView(l) }

func (l routeList) RenderText(w io.Writer, opts *ux.FormatterOptions) error {
	t := ux.Table{Headers: []string{"ROUTE", "VIEW", "REQUIRES", "DECISION"}}
	for _, r := range l {
		requires := "login"
		switch {
		case r.Public:
			requires = "-"
		case r.Role != "":
			requires = r.Role.String()
		}
		t.Rows = append(t.Rows, []string{r.Pattern, r.Title, requires, string(r.Decision)})
	}
	return t.RenderText(w, opts)
}

func runDebugRoutes(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	sess := app.Auth.Session(cmd.Context())

	var out routeList
	for _, r := range app.Guard.Routes().All() {
		outcome := guard.Render
		if !r.Public {
			outcome = guard.Decide(sess, r.Role, r.Pattern).Outcome
		}
		out = append(out, routeView{Route: r, Decision: outcome})
	}
	return app.Render(out)
}
