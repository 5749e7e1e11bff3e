package cmd

import (
	"context"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/eventpro/internal/errors"
	"github.com/felixgeelhaar/eventpro/internal/guard"
)

// annotationRoute names the guarded route a command stands for. ":id" is
// replaced by the first argument.
const annotationRoute = "eventpro/route"

var rootCmd = &cobra.Command{
	Use:   "eventpro",
	Short: "Browse events and manage reservations from the terminal",
	Long: `eventpro is the command-line client for the EventPro registration platform.
It lets attendees browse events and reserve seats, and lets administrators
create, edit and delete events and review their reservations.

The backend address comes from EVENTPRO_API_URL (or --api-url). Your login
is kept in $EVENTPRO_HOME (default ~/.eventpro) until you log out.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupCommand,
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, typically canceled on SIGINT.
// The runtime wired for the command is released whether or not it failed.
func ExecuteContext(ctx context.Context) error {
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if cmd != nil {
		if app, ok := lookupApp(cmd); ok {
			if closeErr := app.Finish(err); err == nil {
				err = closeErr
			}
		}
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("api-url", "", "backend base URL (overrides EVENTPRO_API_URL)")
	flags.String("home", "", "EventPro home directory (default $EVENTPRO_HOME or ~/.eventpro)")
	flags.StringP("format", "o", "", "output format: text, json or yaml")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("session-backend", "", "where the login is kept: file, memory or redis")
}

// setupCommand wires the runtime and enforces the route guard
func setupCommand(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := app.startTracing(cmd.Context(), cmd.CommandPath())
	cmd.SetContext(withApp(ctx, app))

	route, ok := cmd.Annotations[annotationRoute]
	if !ok {
		return nil
	}
	return checkRoute(cmd.Context(), app, resolveRoute(route, args))
}

// checkRoute maps a guard redirect to the error a CLI user can act on
func checkRoute(ctx context.Context, app *App, path string) error {
	d := app.Guard.Check(ctx, path)
	switch d.Outcome {
	case guard.RedirectLogin:
		return errors.NewNotLoggedInError()
	case guard.RedirectDefault:
		role := "another"
		if route, ok := app.Guard.Routes().Resolve(path); ok && route.Role != "" {
			role = route.Role.String()
		}
		return errors.NewRoleRequiredError(role, path)
	}
	return nil
}

// resolveRoute fills ":id" with the first argument, escaped so that it
// stays a single path segment.
func resolveRoute(route string, args []string) string {
	if len(args) > 0 {
		route = strings.ReplaceAll(route, ":id", url.PathEscape(args[0]))
	}
	return route
}

// guarded marks cmd as standing for route
func guarded(cmd *cobra.Command, route string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationRoute] = route
	return cmd
}
