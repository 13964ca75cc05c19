// Package config provides configuration for the pithon console.
// Defaults work out of the box; a YAML file overrides them.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default settings. The robot firmware dials port 8008 by convention.
const (
	DefaultListenPort    = 8008
	DefaultDashboardAddr = ":8080"
	DefaultLogLevel      = "info"
)

// Config is the complete console configuration.
type Config struct {
	Link      LinkConfig      `yaml:"link"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Record    RecordConfig    `yaml:"record"`
	Log       LogConfig       `yaml:"log"`
}

// LinkConfig holds robot link settings.
type LinkConfig struct {
	Port int `yaml:"port"`
}

// DashboardConfig holds operator dashboard settings.
type DashboardConfig struct {
	Addr string `yaml:"addr"`
}

// RecordConfig holds mission recorder settings.
type RecordConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Link:      LinkConfig{Port: DefaultListenPort},
		Dashboard: DashboardConfig{Addr: DefaultDashboardAddr},
		Record:    RecordConfig{Enabled: false, Path: "pithon.db"},
		Log:       LogConfig{Level: DefaultLogLevel},
	}
}

// Load reads configuration from path on top of the defaults, then
// applies PITHON_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers environment variables over the file values, so a
// deployment can retarget the console without editing config.
func (c *Config) applyEnv() error {
	if v := os.Getenv("PITHON_LINK_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PITHON_LINK_PORT: %w", err)
		}
		c.Link.Port = port
	}
	if v := os.Getenv("PITHON_DASHBOARD_ADDR"); v != "" {
		c.Dashboard.Addr = v
	}
	if v := os.Getenv("PITHON_RECORD_PATH"); v != "" {
		c.Record.Enabled = true
		c.Record.Path = v
	}
	if v := os.Getenv("PITHON_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.Link.Port <= 0 || c.Link.Port > 65535 {
		return fmt.Errorf("invalid link port %d", c.Link.Port)
	}
	if c.Record.Enabled && c.Record.Path == "" {
		return fmt.Errorf("record enabled but no path configured")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
