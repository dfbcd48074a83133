// Package config provides 12-factor configuration management for pagespec.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Sandbox: page shell, timeout and console capture for bootstraps
//   - Watch: debounce for re-bootstrapping on file changes
//   - Logging: Log level and output format
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	opts := bootstrap.Options{Markup: cfg.Sandbox.Markup, Sandbox: cfg.Sandbox.SandboxConfig()}
//
// Environment Variables:
//   - PAGESPEC_MARKUP, PAGESPEC_TIMEOUT, PAGESPEC_CONSOLE, PAGESPEC_URL, PAGESPEC_USER_AGENT
//   - PAGESPEC_WATCH_DEBOUNCE
//   - LOG_LEVEL, LOG_DEV
package config
