// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components accept a *zap.Logger and default to a no-op logger, so tests
// stay quiet unless they opt in.
//
// Example Usage:
//
//	logger := logging.FromConfig(cfg.Logging)
//	defer logger.Sync()
//	logger.Info("Bootstrap finished", zap.Int("exports", n))
package logging
