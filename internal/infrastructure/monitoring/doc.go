/*
Package monitoring provides Prometheus metrics for sandbox bootstraps.

# Metrics

  - pagespec_bootstraps_total{outcome}: ok, construction or evaluation
  - pagespec_bootstrap_duration_seconds: wall time from start to outcome
  - pagespec_exported_symbols: symbols installed by the last successful bootstrap
  - pagespec_console_messages_total{level}: console output captured in sandboxes

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	b := bootstrap.New(opts, bootstrap.WithMetrics(metrics))

Expose them with promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).
*/
package monitoring
