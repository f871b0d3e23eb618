// Package config loads the hearthd server configuration from an optional
// yaml file. Flags override file values; the zero Config is usable.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so yaml values can use the "15m" notation.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the settings of the serve command.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// FlowIdleTimeout garbage-collects wizards nobody touched for this
	// long. Zero keeps abandoned flows forever.
	FlowIdleTimeout Duration `yaml:"flow_idle_timeout"`

	// Redis enables the durable entry store when Addr is non-empty;
	// otherwise entries live in memory only.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig points at the entry store backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Addr:            ":8123",
		LogLevel:        "info",
		FlowIdleTimeout: Duration(15 * time.Minute),
	}
}

// Load reads a yaml config file, layering it over the defaults. A missing
// path returns the defaults without error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
