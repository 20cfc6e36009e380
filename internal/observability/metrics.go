package observability

import (
	"fmt"
	"time"

	"github.com/arkilian/fetchbench/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports benchmark measurements in the Prometheus text format.
// It uses its own registry so several runs in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	trialLatency *prometheus.HistogramVec
	trials       *prometheus.CounterVec
	averageMs    *prometheus.GaugeVec
	rows         *prometheus.GaugeVec
}

// NewMetrics creates and registers the benchmark collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		trialLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fetchbench_trial_duration_seconds",
			Help:    "Wall-clock duration of measured fetch trials",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"strategy"}),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fetchbench_trials_total",
			Help: "Measured fetch trials, warm-up excluded",
		}, []string{"strategy"}),
		averageMs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fetchbench_average_milliseconds",
			Help: "Average trial duration of the last completed run",
		}, []string{"strategy"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fetchbench_rows",
			Help: "Rows returned per trial",
		}, []string{"strategy"}),
	}

	m.registry.MustRegister(m.trialLatency)
	m.registry.MustRegister(m.trials)
	m.registry.MustRegister(m.averageMs)
	m.registry.MustRegister(m.rows)
	return m
}

// RecordTrial implements TrialRecorder.
func (m *Metrics) RecordTrial(strategy types.StrategyName, elapsed time.Duration, rows int) {
	label := string(strategy)
	m.trialLatency.WithLabelValues(label).Observe(elapsed.Seconds())
	m.trials.WithLabelValues(label).Inc()
	m.rows.WithLabelValues(label).Set(float64(rows))
}

// ObserveResult records the aggregate of a finished strategy.
func (m *Metrics) ObserveResult(r *types.Result) {
	m.averageMs.WithLabelValues(string(r.Strategy)).Set(r.AverageMillis)
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes every metric to path in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("observability: failed to write metrics textfile: %w", err)
	}
	return nil
}
