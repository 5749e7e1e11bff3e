package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/eventpro/internal/errors"
)

// Environment variables, mapped to their dot keys
var envKeys = []struct {
	names []string
	key   string
}{
	{[]string{"EVENTPRO_API_URL", "VITE_API_URL"}, "api.url"},
	{[]string{"EVENTPRO_TIMEOUT"}, "api.timeout"},
	{[]string{"EVENTPRO_VALIDATE_RESPONSES"}, "api.validate_responses"},
	{[]string{"EVENTPRO_SESSION_BACKEND"}, "session.backend"},
	{[]string{"EVENTPRO_REDIS_ADDR"}, "session.redis.addr"},
	{[]string{"EVENTPRO_REDIS_PASSWORD"}, "session.redis.password"},
	{[]string{"EVENTPRO_REDIS_DB"}, "session.redis.db"},
	{[]string{"EVENTPRO_PROFILE"}, "session.redis.profile"},
	{[]string{"EVENTPRO_SESSION_TTL"}, "session.redis.ttl"},
	{[]string{"EVENTPRO_LOG_LEVEL"}, "logging.level"},
	{[]string{"EVENTPRO_LOG_FORMAT"}, "logging.format"},
	{[]string{"EVENTPRO_FORMAT"}, "defaults.format"},
	{[]string{"NO_COLOR"}, "defaults.no_color"},
	{[]string{"EVENTPRO_TRACING"}, "telemetry.enabled"},
	{[]string{"EVENTPRO_OTLP_ENDPOINT"}, "telemetry.endpoint"},
	{[]string{"EVENTPRO_OTLP_INSECURE"}, "telemetry.insecure"},
	{[]string{"EVENTPRO_TRACE_SAMPLE_RATE"}, "telemetry.sample_rate"},
}

// LoadOptions controls where Load looks
type LoadOptions struct {
	// Home overrides $EVENTPRO_HOME
	Home string
	// DotEnvPath is the .env file to read; "" means ".env" in the working directory
	DotEnvPath string
	// Getenv reads the process environment; nil means os.Getenv
	Getenv func(string) string
}

// Load resolves the effective configuration. A missing config file or .env
// file is not an error; a malformed one is.
func Load(opts LoadOptions) (*Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	home := opts.Home
	if home == "" {
		var err error
		if home, err = ResolveHome(getenv); err != nil {
			return nil, err
		}
	} else {
		var err error
		if home, err = expandHome(home); err != nil {
			return nil, err
		}
	}

	cfg, err := LoadFile(home)
	if err != nil {
		return nil, err
	}

	dotEnvPath := opts.DotEnvPath
	if dotEnvPath == "" {
		dotEnvPath = ".env"
	}
	dotEnv, err := readDotEnv(dotEnvPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(func(name string) string { return dotEnv[name] }, "dotenv"); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(getenv, "env"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile returns the defaults overlaid with home's config.yaml only.
// This is the layer `config set` edits.
func LoadFile(home string) (*Config, error) {
	cfg := Default()
	cfg.Home = home

	data, err := os.ReadFile(cfg.Path())
	if stderrors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigRead, "failed to read config", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigRead, "failed to parse config", err).
			WithSuggestion(fmt.Sprintf("Fix or remove %s", cfg.Path()))
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigRead, "failed to parse config", err).
			WithSuggestion(fmt.Sprintf("Fix or remove %s", cfg.Path()))
	}
	markSources(cfg, raw, "", "file")
	return cfg, nil
}

func markSources(cfg *Config, raw map[string]any, prefix, source string) {
	for k, v := range raw {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			markSources(cfg, nested, key, source)
			continue
		}
		cfg.setSource(key, source)
	}
}

func readDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigRead, fmt.Sprintf("failed to read %s", path), err)
	}
	return values, nil
}

func (c *Config) applyEnv(getenv func(string) string, source string) error {
	for _, ek := range envKeys {
		for _, name := range ek.names {
			value := strings.TrimSpace(getenv(name))
			if value == "" {
				continue
			}
			if ek.key == "defaults.no_color" {
				value = "true"
			}
			if err := c.Set(ek.key, value); err != nil {
				return errors.NewConfigInvalidError(fmt.Sprintf("%s: %v", name, err))
			}
			c.setSource(ek.key, source)
			break
		}
	}
	return nil
}
