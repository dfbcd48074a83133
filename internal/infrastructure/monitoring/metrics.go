package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bootstrap outcomes
const (
	OutcomeOK           = "ok"
	OutcomeConstruction = "construction"
	OutcomeEvaluation   = "evaluation"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Bootstraps        *prometheus.CounterVec
	BootstrapDuration prometheus.Histogram
	ExportedSymbols   prometheus.Gauge
	ConsoleMessages   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Bootstraps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagespec_bootstraps_total",
				Help: "Total number of sandbox bootstraps by outcome",
			},
			[]string{"outcome"},
		),
		BootstrapDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pagespec_bootstrap_duration_seconds",
				Help:    "Sandbox bootstrap duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		ExportedSymbols: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pagespec_exported_symbols",
				Help: "Number of symbols exported by the last successful bootstrap",
			},
		),
		ConsoleMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagespec_console_messages_total",
				Help: "Console messages captured in sandboxes",
			},
			[]string{"level"},
		),
	}
}

// RecordBootstrap records one finished bootstrap. Nil receivers are ignored
// so callers need not check whether metrics are enabled.
func (m *Metrics) RecordBootstrap(outcome string, duration time.Duration, exported int) {
	if m == nil {
		return
	}
	m.Bootstraps.WithLabelValues(outcome).Inc()
	m.BootstrapDuration.Observe(duration.Seconds())
	if outcome == OutcomeOK {
		m.ExportedSymbols.Set(float64(exported))
	}
}

// RecordConsole counts one console message
func (m *Metrics) RecordConsole(level string) {
	if m == nil {
		return
	}
	m.ConsoleMessages.WithLabelValues(level).Inc()
}
