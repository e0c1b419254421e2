package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/liveui/internal/bus"
	"github.com/vk/liveui/internal/detector"
)

// Config is the full runtime configuration.
type Config struct {
	Roots           []string `yaml:"roots" toml:"roots"`
	Extensions      []string `yaml:"extensions" toml:"extensions"`
	Ignore          []string `yaml:"ignore" toml:"ignore"`
	DebounceMS      int      `yaml:"debounce_ms" toml:"debounce_ms"`
	BusCapacity     int      `yaml:"bus_capacity" toml:"bus_capacity"`
	LogLevel        string   `yaml:"log_level" toml:"log_level"`
	LogFormat       string   `yaml:"log_format" toml:"log_format"`
	HealthcheckPort int      `yaml:"healthcheck_port" toml:"healthcheck_port"`
}

// Default returns the configuration used when nothing is specified.
func Default() *Config {
	return &Config{
		Roots:       []string{"."},
		Extensions:  append([]string(nil), detector.DefaultExtensions...),
		Ignore:      append([]string(nil), detector.DefaultIgnore...),
		DebounceMS:  int(detector.DefaultDebounce / time.Millisecond),
		BusCapacity: bus.DefaultCapacity,
		LogLevel:    "info",
		LogFormat:   "auto",
	}
}

// Debounce is DebounceMS as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Roots) == 0 {
		errs = append(errs, errors.New("at least one root directory is required"))
	}
	if len(c.Extensions) == 0 {
		errs = append(errs, errors.New("at least one source extension is required"))
	}
	if c.DebounceMS <= 0 {
		errs = append(errs, fmt.Errorf("debounce_ms must be positive, got %d", c.DebounceMS))
	}
	if c.BusCapacity <= 0 {
		errs = append(errs, fmt.Errorf("bus_capacity must be positive, got %d", c.BusCapacity))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if c.HealthcheckPort < 0 || c.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("healthcheck_port out of range: %d", c.HealthcheckPort))
	}
	return errors.Join(errs...)
}
