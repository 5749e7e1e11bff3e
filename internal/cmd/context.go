package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/eventpro/internal/api"
	"github.com/felixgeelhaar/eventpro/internal/auth"
	"github.com/felixgeelhaar/eventpro/internal/config"
	"github.com/felixgeelhaar/eventpro/internal/guard"
	"github.com/felixgeelhaar/eventpro/internal/log"
	"github.com/felixgeelhaar/eventpro/internal/metrics"
	"github.com/felixgeelhaar/eventpro/internal/session"
	"github.com/felixgeelhaar/eventpro/internal/telemetry"
	"github.com/felixgeelhaar/eventpro/internal/tui"
	"github.com/felixgeelhaar/eventpro/internal/ux"
	"github.com/felixgeelhaar/eventpro/internal/version"
)

// CommandContext holds the global command-line flags. Values left empty
// fall back to the loaded configuration.
type CommandContext struct {
	// Output control
	Verbose bool
	Format  string
	NoColor bool

	// Configuration overrides
	Home           string
	LogLevel       string
	APIURL         string
	SessionBackend string
}

// NewCommandContext extracts command context from cobra.Command flags.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	home, err := cmd.Flags().GetString("home")
	if err != nil {
		return nil, err
	}

	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	apiURL, err := cmd.Flags().GetString("api-url")
	if err != nil {
		return nil, err
	}

	backend, err := cmd.Flags().GetString("session-backend")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Verbose:        verbose,
		Format:         format,
		NoColor:        noColor,
		Home:           home,
		LogLevel:       logLevel,
		APIURL:         apiURL,
		SessionBackend: backend,
	}, nil
}

// apply overlays flag values on cfg
func (c *CommandContext) apply(cfg *config.Config) error {
	overrides := []struct {
		key, value string
	}{
		{"api.url", c.APIURL},
		{"session.backend", c.SessionBackend},
		{"logging.level", c.LogLevel},
		{"defaults.format", c.Format},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		if err := cfg.Set(o.key, o.value); err != nil {
			return err
		}
	}
	if c.Verbose {
		cfg.Logging.Level = "debug"
	}
	if c.NoColor {
		cfg.Defaults.NoColor = true
	}
	return cfg.Validate()
}

// Hooks used by tests to isolate commands from the process environment
var (
	getenv       = os.Getenv
	dotEnvPath   = ""
	shouldPrompt = tui.ShouldPrompt
)

// App is the per-invocation runtime shared by all commands
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Store    *session.Store
	Client   *api.Client
	Auth     *auth.Service
	Guard    *guard.Guard

	out     io.Writer
	format  string
	noColor bool
	closers []io.Closer

	span          trace.Span
	stopTelemetry func(context.Context) error
}

type appKey struct{}

// newApp loads configuration and wires every service for one command run
func newApp(cmd *cobra.Command) (*App, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create command context: %w", err)
	}

	cfg, err := config.Load(config.LoadOptions{
		Home:       cc.Home,
		DotEnvPath: dotEnvPath,
		Getenv:     getenv,
	})
	if err != nil {
		return nil, err
	}
	if err := cc.apply(cfg); err != nil {
		return nil, err
	}

	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.Logging.Level)
	logCfg.Format = log.ParseFormat(cfg.Logging.Format)
	logCfg.Output = cmd.ErrOrStderr()
	logCfg.ServiceVersion = version.GetInfo().Short()
	logger := log.New(logCfg)
	log.SetDefaultLogger(logger)

	registry, m := metrics.NewRegistry()

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Registry: registry,
		out:      cmd.OutOrStdout(),
		format:   cfg.Defaults.Format,
		noColor:  cfg.Defaults.NoColor,
	}

	kv, err := app.sessionBackend()
	if err != nil {
		return nil, err
	}
	app.Store = session.NewStore(kv, logger)

	opts := []api.Option{
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger),
		api.WithMetrics(m),
	}
	if cfg.API.ValidateResponses {
		validator, err := api.NewContractValidator(cmd.Context())
		if err != nil {
			return nil, err
		}
		opts = append(opts, api.WithContractValidator(validator))
	}
	app.Client = api.New(cfg.API.URL, app.Store, opts...)
	app.Auth = auth.NewService(app.Client, app.Store, auth.WithLogger(logger), auth.WithMetrics(m))
	app.Guard = guard.New(app.Store, guard.WithLogger(logger), guard.WithMetrics(m))

	logger.Debug("configuration loaded",
		"home", cfg.Home,
		"api_url", cfg.API.URL,
		"api_url_source", cfg.Source("api.url"),
		"session_backend", kv.Name())
	return app, nil
}

func (a *App) sessionBackend() (session.KV, error) {
	cfg := a.Config
	switch strings.ToLower(cfg.Session.Backend) {
	case config.BackendMemory:
		return session.NewMemoryKV(), nil
	case config.BackendRedis:
		r := cfg.Session.Redis
		kv := session.NewRedisKV(session.RedisOptions{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Profile:  r.Profile,
			TTL:      r.TTL,
		})
		a.closers = append(a.closers, kv)
		return kv, nil
	default:
		return session.NewFileKV(cfg.SessionFile()), nil
	}
}

// startTracing installs the tracer provider and opens the command span
func (a *App) startTracing(ctx context.Context, cmdPath string) context.Context {
	cfg := telemetry.DefaultConfig()
	cfg.Enabled = a.Config.Telemetry.Enabled
	cfg.Endpoint = a.Config.Telemetry.Endpoint
	cfg.Insecure = a.Config.Telemetry.Insecure
	cfg.SampleRate = a.Config.Telemetry.SampleRate
	cfg.ServiceVersion = version.GetInfo().Short()

	stop, err := telemetry.InitProvider(ctx, cfg)
	if err != nil {
		a.Logger.Warn("tracing disabled", "error", err)
		return ctx
	}
	a.stopTelemetry = stop
	ctx, a.span = telemetry.StartCommandSpan(ctx, cmdPath)
	return ctx
}

// Finish ends the command span, flushes traces and releases backend
// connections. runErr is the command's result, recorded on the span.
func (a *App) Finish(runErr error) error {
	if a.span != nil {
		if runErr != nil {
			telemetry.RecordError(a.span, runErr)
		} else {
			telemetry.RecordSuccess(a.span)
		}
		a.span.End()
	}
	if a.stopTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.stopTelemetry(ctx); err != nil {
			a.Logger.Debug("failed to flush traces", "error", err)
		}
	}
	return a.Close()
}

// Close releases backend connections
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Render writes data in the selected output format
func (a *App) Render(data any) error {
	f, err := ux.NewFormatter(a.format, &ux.FormatterOptions{Writer: a.out, NoColor: a.noColor})
	if err != nil {
		return err
	}
	return f.Format(data)
}

// withApp stores app in ctx
func withApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func lookupApp(cmd *cobra.Command) (*App, bool) {
	if cmd.Context() == nil {
		return nil, false
	}
	app, ok := cmd.Context().Value(appKey{}).(*App)
	return app, ok && app != nil
}

// appFrom returns the App wired by the root command's pre-run hook
func appFrom(cmd *cobra.Command) *App {
	app, ok := lookupApp(cmd)
	if !ok {
		panic("cmd: command ran without the root pre-run hook")
	}
	return app
}
