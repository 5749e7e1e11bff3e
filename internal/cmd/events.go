package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/eventpro/internal/api"
	"github.com/felixgeelhaar/eventpro/internal/tui"
	"github.com/felixgeelhaar/eventpro/internal/ux"
	"github.com/felixgeelhaar/eventpro/pkg/eventpro/types"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Aliases: []string{"event"},
	Short:   "Browse and manage events",
	Long: `Browse events, and as an administrator create, edit and delete them.

Examples:
  eventpro events list --available
  eventpro events show 42
  eventpro events create --name "Go Meetup" --date 2026-11-05 --time 18:30 \
      --location Berlin --capacity 80
  eventpro events update 42 --capacity 120
  eventpro events delete 42 --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var eventsListCmd = guarded(&cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List events",
	Args:    cobra.NoArgs,
	RunE:    runEventsList,
}, "/events")

var eventsShowCmd = guarded(&cobra.Command{
	Use:   "show <id>",
	Short: "Show one event",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsShow,
}, "/events/:id")

var eventsCreateCmd = guarded(&cobra.Command{
	Use:   "create",
	Short: "Create an event",
	Args:  cobra.NoArgs,
	RunE:  runEventsCreate,
}, "/create-event")

var eventsUpdateCmd = guarded(&cobra.Command{
	Use:   "update <id>",
	Short: "Change an event",
	Long: `Change the given fields of an event. Only flags you pass are sent.
With --replace the whole event is replaced and all required fields must be given.`,
	Args: cobra.ExactArgs(1),
	RunE: runEventsUpdate,
}, "/events/edit/:id")

var eventsDeleteCmd = guarded(&cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsDelete,
}, "/events/edit/:id")

func init() {
	eventsListCmd.Flags().Bool("available", false, "only events with seats left")
	eventsListCmd.Flags().String("search", "", "only events whose name or location contains this text")

	for _, c := range []*cobra.Command{eventsCreateCmd, eventsUpdateCmd} {
		c.Flags().String("name", "", "event name")
		c.Flags().String("description", "", "event description")
		c.Flags().String("date", "", "date (YYYY-MM-DD)")
		c.Flags().String("time", "", "start time (HH:MM)")
		c.Flags().String("location", "", "venue")
		c.Flags().Int("capacity", 0, "number of seats")
	}
	eventsUpdateCmd.Flags().Bool("replace", false, "replace the event instead of patching it")
	eventsDeleteCmd.Flags().BoolP("yes", "y", false, "skip the confirmation")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsShowCmd)
	eventsCmd.AddCommand(eventsCreateCmd)
	eventsCmd.AddCommand(eventsUpdateCmd)
	eventsCmd.AddCommand(eventsDeleteCmd)

	rootCmd.AddCommand(eventsCmd)
}

func runEventsList(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	available, _ := cmd.Flags().GetBool("available")
	search, _ := cmd.Flags().GetString("search")

	events, err := app.Client.ListEvents(cmd.Context())
	if err != nil {
		return err
	}
	return app.Render(ux.EventList(filterEvents(events, available, search)))
}

func filterEvents(events []types.Event, available bool, search string) []types.Event {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]types.Event, 0, len(events))
	for _, e := range events {
		if available && e.SoldOut() {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Name), search) &&
			!strings.Contains(strings.ToLower(e.Location), search) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func runEventsShow(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	event, err := app.Client.GetEvent(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return app.Render(ux.EventDetail(*event))
}

func eventInputFromFlags(cmd *cobra.Command) types.EventInput {
	var in types.EventInput
	in.Name, _ = cmd.Flags().GetString("name")
	in.Description, _ = cmd.Flags().GetString("description")
	in.Date, _ = cmd.Flags().GetString("date")
	in.Time, _ = cmd.Flags().GetString("time")
	in.Location, _ = cmd.Flags().GetString("location")
	in.Capacity, _ = cmd.Flags().GetInt("capacity")
	return in
}

func runEventsCreate(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	in := eventInputFromFlags(cmd)
	if err := in.Validate(); err != nil {
		return ux.NewErrorWithSuggestion(err,
			"Pass --name, --date, --location and a positive --capacity")
	}

	event, err := app.Client.CreateEvent(cmd.Context(), in)
	if err != nil {
		return err
	}
	return app.Render(ux.Message{Text: fmt.Sprintf("Created event %s (%s)", event.Name, event.ID), Data: event})
}

// eventPatchFromFlags sends only the flags the user actually set
func eventPatchFromFlags(cmd *cobra.Command) api.EventPatch {
	var p api.EventPatch
	str := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetString(name)
		return &v
	}
	p.Name = str("name")
	p.Description = str("description")
	p.Date = str("date")
	p.Time = str("time")
	p.Location = str("location")
	if cmd.Flags().Changed("capacity") {
		v, _ := cmd.Flags().GetInt("capacity")
		p.Capacity = &v
	}
	return p
}

func runEventsUpdate(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	replace, _ := cmd.Flags().GetBool("replace")

	var (
		event *types.Event
		err   error
	)
	if replace {
		in := eventInputFromFlags(cmd)
		if err := in.Validate(); err != nil {
			return ux.NewErrorWithSuggestion(err,
				"--replace sends the whole event; pass every required field or drop --replace")
		}
		event, err = app.Client.UpdateEvent(cmd.Context(), args[0], in)
	} else {
		patch := eventPatchFromFlags(cmd)
		if patch.Empty() {
			return ux.NewErrorWithSuggestion(errors.New("nothing to update"),
				"Pass at least one of --name, --description, --date, --time, --location, --capacity")
		}
		event, err = app.Client.PatchEvent(cmd.Context(), args[0], patch)
	}
	if err != nil {
		return err
	}
	return app.Render(ux.Message{Text: fmt.Sprintf("Updated event %s", event.ID), Data: event})
}

func runEventsDelete(cmd *cobra.Command, args []string) error {
	app := appFrom(cmd)
	ok, err := confirm(cmd, fmt.Sprintf("Delete event %s?", args[0]))
	if err != nil {
		return err
	}
	if !ok {
		return app.Render(ux.Message{Text: "Aborted"})
	}

	if err := app.Client.DeleteEvent(cmd.Context(), args[0]); err != nil {
		return err
	}
	return app.Render(ux.Message{Text: fmt.Sprintf("Deleted event %s", args[0])})
}

// confirm asks before destructive actions unless --yes is set. A terminal
// gets a form; anything else a plain y/N line.
func confirm(cmd *cobra.Command, message string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	if shouldPrompt() {
		return tui.PromptForConfirmation(message, false)
	}
	return ux.NewLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr()).Confirm(message, false), nil
}
