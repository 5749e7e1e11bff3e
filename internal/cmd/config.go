package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/eventpro/internal/config"
	"github.com/felixgeelhaar/eventpro/internal/ux"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit EventPro configuration",
	Long: `Manage EventPro configuration stored at $EVENTPRO_HOME/config.yaml
(default ~/.eventpro/config.yaml).

Settings are resolved from, in increasing priority: built-in defaults, the
config file, a .env file in the working directory, environment variables
(EVENTPRO_API_URL, EVENTPRO_SESSION_BACKEND, ...) and command-line flags.

Examples:
  # Show the effective configuration and where each value came from
  eventpro config view

  # Point the CLI at a local backend
  eventpro config set api.url http://localhost:3000

  # Keep the login in redis instead of a file
  eventpro config set session.backend redis
  eventpro config set session.redis.addr localhost:6379

  # Edit the file in $EDITOR
  eventpro config edit`,
	// Config commands must work while the configuration is broken, so the
	// runtime is not wired for them.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration in $EDITOR",
	Args:  cobra.NoArgs,
	RunE:  runConfigEdit,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long:  `Print the effective value of a key using dot notation (e.g. api.url).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  `Write a value to the config file using dot notation (e.g. api.timeout 10s).`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

// loadConfig resolves the effective configuration without validating it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	home, _ := cmd.Flags().GetString("home")
	return config.Load(config.LoadOptions{
		Home:       home,
		DotEnvPath: dotEnvPath,
		Getenv:     getenv,
	})
}

// render formats data with the global output flags. Commands that skip
// runtime wiring use it in place of App.Render.
func render(cmd *cobra.Command, data any) error {
	if app, ok := lookupApp(cmd); ok {
		return app.Render(data)
	}
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	f, err := ux.NewFormatter(cc.Format, &ux.FormatterOptions{Writer: cmd.OutOrStdout(), NoColor: cc.NoColor})
	if err != nil {
		return err
	}
	return f.Format(data)
}

// configView lists every key with its value and origin
type configView struct {
	cfg *config.Config
}

type configEntry struct {
	Key    string `json:"key" yaml:"key"`
	Value  string `json:"value" yaml:"value"`
	Source string `json:"source" yaml:"source"`
}

func (v configView) entries() []configEntry {
	var out []configEntry
	for _, key := range config.Keys() {
		value, _ := v.cfg.Get(key)
		out = append(out, configEntry{Key: key, Value: value, Source: v.cfg.Source(key)})
	}
	return out
}

func (v configView) Payload() any {
	return map[string]any{
		"path":     v.cfg.Path(),
		"settings": v.entries(),
	}
}

func (v configView) RenderText(w io.Writer, opts *ux.FormatterOptions) error {
	fmt.Fprintf(w, "Configuration file: %s\n\n", v.cfg.Path())
	t := ux.Table{Headers: []string{"KEY", "VALUE", "SOURCE"}}
	for _, e := range v.entries() {
		t.Rows = append(t.Rows, []string{e.Key, e.Value, e.Source})
	}
	return t.RenderText(w, opts)
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}
	return render(cmd, configView{cfg: cfg})
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	value, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	effective, err := loadConfig(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	// Only the file layer is written back; env and flag overrides stay out
	cfg, err := config.LoadFile(effective.Home)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return ux.FormatError(err, "saving configuration")
	}

	if src := effective.Source(key); src == "env" || src == "dotenv" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Note: %s is currently overridden by the %s\n", key, sourceLabel(src))
	}
	return render(cmd, ux.Message{Text: fmt.Sprintf("Set %s = %s", key, value)})
}

func sourceLabel(src string) string {
	if src == "dotenv" {
		return ".env file"
	}
	return "environment"
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}
	fmt.Fprintln(cmd.OutOrStdout(), cfg.Path())
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	effective, err := loadConfig(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	// Make sure there is a file to open
	if _, err := os.Stat(effective.Path()); os.IsNotExist(err) {
		cfg, err := config.LoadFile(effective.Home)
		if err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return ux.FormatError(err, "saving configuration")
		}
	}

	editor := getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.CommandContext(cmd.Context(), editor, effective.Path())
	editorCmd.Stdin = cmd.InOrStdin()
	editorCmd.Stdout = cmd.OutOrStdout()
	editorCmd.Stderr = cmd.ErrOrStderr()
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}

	cfg, err := config.LoadFile(effective.Home)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: configuration may contain errors: %v\n", err)
		return err
	}

	return render(cmd, ux.Message{Text: "Configuration updated"})
}
