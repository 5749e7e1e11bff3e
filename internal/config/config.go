// Package config resolves EventPro settings from, in increasing priority:
// built-in defaults, $EVENTPRO_HOME/config.yaml, a .env file, and the
// process environment. Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/eventpro/internal/errors"
)

const (
	// DefaultAPIURL is used when no base address is configured
	DefaultAPIURL = "https://eventpro-backend-yzlq.onrender.com"

	// DefaultTimeout bounds each backend request
	DefaultTimeout = 30 * time.Second

	// FileName is the config file inside the home directory
	FileName = "config.yaml"

	homeDirName = ".eventpro"
)

// Session backends
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the full EventPro configuration
type Config struct {
	API       APIConfig         `yaml:"api" json:"api"`
	Session   SessionConfig     `yaml:"session" json:"session"`
	Logging   LoggingConfig     `yaml:"logging" json:"logging"`
	Defaults  CommandConfig     `yaml:"defaults" json:"defaults"`
	Telemetry TelemetryConfig   `yaml:"telemetry" json:"telemetry"`
	Home      string            `yaml:"-" json:"home"`
	Sources   map[string]string `yaml:"-" json:"-"`
}

// APIConfig selects and tunes the backend connection
type APIConfig struct {
	URL               string        `yaml:"url,omitempty" json:"url"`
	Timeout           time.Duration `yaml:"timeout,omitempty" json:"timeout"`
	ValidateResponses bool          `yaml:"validate_responses" json:"validate_responses"`
}

// SessionConfig selects where the token and user are persisted
type SessionConfig struct {
	Backend string      `yaml:"backend,omitempty" json:"backend"`
	Redis   RedisConfig `yaml:"redis,omitempty" json:"redis"`
}

// RedisConfig configures the redis session backend
type RedisConfig struct {
	Addr     string        `yaml:"addr,omitempty" json:"addr,omitempty"`
	Password string        `yaml:"password,omitempty" json:"-"`
	DB       int           `yaml:"db,omitempty" json:"db,omitempty"`
	Profile  string        `yaml:"profile,omitempty" json:"profile,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format,omitempty" json:"format"` // "text", "json"
}

// CommandConfig holds output defaults
type CommandConfig struct {
	Format  string `yaml:"format,omitempty" json:"format"` // "text", "json", "yaml"
	NoColor bool   `yaml:"no_color,omitempty" json:"no_color"`
}

// TelemetryConfig controls OpenTelemetry tracing. Tracing is off unless
// enabled; without an endpoint spans are created but not exported.
type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled,omitempty" json:"enabled"`
	Endpoint   string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Insecure   bool    `yaml:"insecure,omitempty" json:"insecure,omitempty"`
	SampleRate float64 `yaml:"sample_rate,omitempty" json:"sample_rate"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:     DefaultAPIURL,
			Timeout: DefaultTimeout,
		},
		Session: SessionConfig{
			Backend: BackendFile,
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Profile: "default",
			},
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Defaults: CommandConfig{
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			SampleRate: 1.0,
		},
		Sources: map[string]string{},
	}
}

// Validate checks field values
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.NewConfigInvalidError(fmt.Sprintf("api.url %q is not an absolute URL", c.API.URL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewConfigInvalidError(fmt.Sprintf("api.url scheme %q is not http or https", u.Scheme))
	}
	if c.API.Timeout < 0 {
		return errors.NewConfigInvalidError("api.timeout must not be negative")
	}

	switch c.Session.Backend {
	case BackendFile, BackendMemory, BackendRedis:
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("session.backend %q (expected file, memory or redis)", c.Session.Backend))
	}
	if c.Session.Backend == BackendRedis && c.Session.Redis.Addr == "" {
		return errors.NewConfigInvalidError("session.redis.addr is required for the redis backend")
	}

	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return errors.NewConfigInvalidError(fmt.Sprintf("telemetry.sample_rate %v is not between 0 and 1", c.Telemetry.SampleRate))
	}

	switch c.Defaults.Format {
	case "text", "json", "yaml":
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("defaults.format %q (expected text, json or yaml)", c.Defaults.Format))
	}
	return nil
}

// Path returns the config file location
func (c *Config) Path() string {
	return filepath.Join(c.Home, FileName)
}

// SessionFile returns the file backend's storage location
func (c *Config) SessionFile() string {
	return filepath.Join(c.Home, "session.json")
}

// Source reports which layer set key ("default" when unset)
func (c *Config) Source(key string) string {
	if src, ok := c.Sources[key]; ok {
		return src
	}
	return "default"
}

func (c *Config) setSource(key, source string) {
	if c.Sources == nil {
		c.Sources = map[string]string{}
	}
	c.Sources[key] = source
}

// ResolveHome returns the EventPro home directory: $EVENTPRO_HOME when set,
// ~/.eventpro otherwise. A leading ~ is expanded.
func ResolveHome(getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if home := strings.TrimSpace(getenv("EVENTPRO_HOME")); home != "" {
		return expandHome(home)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfigRead, "failed to get home directory", err)
	}
	return filepath.Join(userHome, homeDirName), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfigRead, "failed to get home directory", err)
	}
	return filepath.Join(userHome, strings.TrimPrefix(p, "~")), nil
}

// Save writes the file layer of c to its home directory
func (c *Config) Save() error {
	if err := os.MkdirAll(c.Home, 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeConfigWrite, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigWrite, "failed to marshal config", err)
	}

	if err := os.WriteFile(c.Path(), data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeConfigWrite, "failed to write config", err)
	}
	return nil
}
