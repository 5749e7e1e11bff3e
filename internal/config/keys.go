package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/eventpro/internal/errors"
)

// Keys lists every dot key accepted by Get and Set
func Keys() []string {
	return []string{
		"api.url",
		"api.timeout",
		"api.validate_responses",
		"session.backend",
		"session.redis.addr",
		"session.redis.password",
		"session.redis.db",
		"session.redis.profile",
		"session.redis.ttl",
		"logging.level",
		"logging.format",
		"defaults.format",
		"defaults.no_color",
		"telemetry.enabled",
		"telemetry.endpoint",
		"telemetry.insecure",
		"telemetry.sample_rate",
	}
}

// Get retrieves a value using dot notation
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "api.url":
		return c.API.URL, nil
	case "api.timeout":
		return c.API.Timeout.String(), nil
	case "api.validate_responses":
		return strconv.FormatBool(c.API.ValidateResponses), nil
	case "session.backend":
		return c.Session.Backend, nil
	case "session.redis.addr":
		return c.Session.Redis.Addr, nil
	case "session.redis.password":
		if c.Session.Redis.Password == "" {
			return "", nil
		}
		return "********", nil
	case "session.redis.db":
		return strconv.Itoa(c.Session.Redis.DB), nil
	case "session.redis.profile":
		return c.Session.Redis.Profile, nil
	case "session.redis.ttl":
		return c.Session.Redis.TTL.String(), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "defaults.format":
		return c.Defaults.Format, nil
	case "defaults.no_color":
		return strconv.FormatBool(c.Defaults.NoColor), nil
	case "telemetry.enabled":
		return strconv.FormatBool(c.Telemetry.Enabled), nil
	case "telemetry.endpoint":
		return c.Telemetry.Endpoint, nil
	case "telemetry.insecure":
		return strconv.FormatBool(c.Telemetry.Insecure), nil
	case "telemetry.sample_rate":
		return strconv.FormatFloat(c.Telemetry.SampleRate, 'g', -1, 64), nil
	default:
		return "", unknownKey(key)
	}
}

// Set assigns a value using dot notation
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "api.url":
		c.API.URL = strings.TrimRight(value, "/")
	case "api.timeout":
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		c.API.Timeout = d
	case "api.validate_responses":
		c.API.ValidateResponses = parseBool(value)
	case "session.backend":
		c.Session.Backend = strings.ToLower(value)
	case "session.redis.addr":
		c.Session.Redis.Addr = value
	case "session.redis.password":
		c.Session.Redis.Password = value
	case "session.redis.db":
		db, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid redis db %q: %w", value, err)
		}
		c.Session.Redis.DB = db
	case "session.redis.profile":
		c.Session.Redis.Profile = value
	case "session.redis.ttl":
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		c.Session.Redis.TTL = d
	case "logging.level":
		c.Logging.Level = strings.ToLower(value)
	case "logging.format":
		c.Logging.Format = strings.ToLower(value)
	case "defaults.format":
		c.Defaults.Format = strings.ToLower(value)
	case "defaults.no_color":
		c.Defaults.NoColor = parseBool(value)
	case "telemetry.enabled":
		c.Telemetry.Enabled = parseBool(value)
	case "telemetry.endpoint":
		c.Telemetry.Endpoint = value
	case "telemetry.insecure":
		c.Telemetry.Insecure = parseBool(value)
	case "telemetry.sample_rate":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid sample rate %q: %w", value, err)
		}
		c.Telemetry.SampleRate = rate
	default:
		return unknownKey(key)
	}
	return nil
}

func unknownKey(key string) error {
	return errors.New(errors.ErrCodeConfigKeyUnset, fmt.Sprintf("unknown configuration key: %s", key)).
		WithSuggestion("Known keys: " + strings.Join(Keys(), ", "))
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1"
}

// parseDuration accepts Go durations ("45s") or plain seconds ("45")
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
