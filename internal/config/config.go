package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/pagespec/internal/sandbox"
)

// Config holds all application configuration.
type Config struct {
	Sandbox SandboxConfig
	Watch   WatchConfig
	Logging LogConfig
}

// SandboxConfig holds settings for the emulated page.
type SandboxConfig struct {
	Markup        string        `envconfig:"PAGESPEC_MARKUP" default:"<div></div>"`
	Timeout       time.Duration `envconfig:"PAGESPEC_TIMEOUT" default:"5s"`
	EnableConsole bool          `envconfig:"PAGESPEC_CONSOLE" default:"true"`
	URL           string        `envconfig:"PAGESPEC_URL" default:"about:blank"`
	UserAgent     string        `envconfig:"PAGESPEC_USER_AGENT"`
	Sanitize      bool          `envconfig:"PAGESPEC_SANITIZE" default:"false"`
}

// WatchConfig holds file watcher configuration.
type WatchConfig struct {
	Debounce time.Duration `envconfig:"PAGESPEC_WATCH_DEBOUNCE" default:"200ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Sandbox: SandboxConfig{
			Markup:        sandbox.DefaultMarkup,
			Timeout:       5 * time.Second,
			EnableConsole: true,
			URL:           "about:blank",
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// SandboxConfig converts the environment settings into a sandbox.Config,
// keeping sandbox defaults for anything left unset.
func (c SandboxConfig) SandboxConfig() sandbox.Config {
	cfg := sandbox.DefaultConfig()
	cfg.Timeout = c.Timeout
	cfg.EnableConsole = c.EnableConsole
	cfg.SanitizeMarkup = c.Sanitize
	if c.URL != "" {
		cfg.URL = c.URL
	}
	if c.UserAgent != "" {
		cfg.UserAgent = c.UserAgent
	}
	return cfg
}
