// Package config loads the service configuration from a YAML file and fills
// in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Listen       string           `yaml:"listen"`
	DatabasePath string           `yaml:"database_path"`
	LogLevel     string           `yaml:"log_level"`
	Auth         AuthConfig       `yaml:"auth"`
	Generation   GenerationConfig `yaml:"generation"`
	Session      SessionConfig    `yaml:"session"`
}

// AuthConfig controls the optional password gate.
type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// PasswordHash is a bcrypt hash of the shared password.
	PasswordHash string `yaml:"password_hash"`
}

// GenerationConfig points at the image generation endpoint.
type GenerationConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	BaseBackoff time.Duration `yaml:"base_backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}

// SessionConfig tunes persistence and presence timing.
type SessionConfig struct {
	SaveDelay         time.Duration `yaml:"save_delay"`
	ProbeWindow       time.Duration `yaml:"probe_window"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "db/boards.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Generation.Timeout <= 0 {
		c.Generation.Timeout = 120 * time.Second
	}
	if c.Generation.MaxAttempts <= 0 {
		c.Generation.MaxAttempts = 3
	}
	if c.Generation.BaseBackoff <= 0 {
		c.Generation.BaseBackoff = time.Second
	}
	if c.Generation.MaxBackoff <= 0 {
		c.Generation.MaxBackoff = 5 * time.Second
	}
	if c.Session.SaveDelay <= 0 {
		c.Session.SaveDelay = 500 * time.Millisecond
	}
	if c.Session.ProbeWindow <= 0 {
		c.Session.ProbeWindow = 500 * time.Millisecond
	}
	if c.Session.HeartbeatInterval <= 0 {
		c.Session.HeartbeatInterval = 2500 * time.Millisecond
	}
}
