// Package middleware provides cross-cutting concerns for the tally engine:
// Prometheus metrics and OpenTelemetry tracing around pipeline units.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-ballot/internal/ports"
)

// Metric names understood by PrometheusMetrics. Any other counter name is
// recorded as a generic operation.
const (
	MetricBallotsLoaded    = "ballots_loaded"
	MetricResolutions      = "resolutions"
	MetricResolutionMargin = "resolution_margin"
	MetricUnitExecutions   = "unit_executions"
	MetricSchwartzSetSize  = "schwartz_set_size"
)

const unknownLabel = "unknown"

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks ballot ingestion, unit latency and the outcome
// distribution of resolutions.
type PrometheusMetrics struct {
	unitLatency   *prometheus.HistogramVec
	operations    *prometheus.CounterVec
	ballotsLoaded *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
	margins       *prometheus.HistogramVec
	runState      *prometheus.GaugeVec
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
// A nil reg means the default Prometheus registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		unitLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ballot_unit_duration_seconds",
				Help:    "Execution time of tally pipeline units.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"operation", "unit"},
		),
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ballot_operations_total",
				Help: "Total number of operations performed by the tally engine.",
			},
			[]string{"operation", "status", "unit"},
		),
		ballotsLoaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ballot_ballots_loaded_total",
				Help: "Total number of ballots read from sources.",
			},
			[]string{"source"},
		),
		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ballot_resolutions_total",
				Help: "Resolved contexts by the rule that decided the winner.",
			},
			[]string{"outcome", "unit"},
		),
		margins: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ballot_resolution_margin",
				Help:    "Margin of victory per resolved context.",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 250},
			},
			[]string{"margin_unit"},
		),
		runState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ballot_run_state",
				Help: "Point-in-time values describing the latest tally run.",
			},
			[]string{"metric", "unit"},
		),
	}
}

func labelOr(labels map[string]string, key string) string {
	if v := labels[key]; v != "" {
		return v
	}
	return unknownLabel
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.unitLatency.WithLabelValues(operation, labelOr(labels, "unit")).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricBallotsLoaded:
		pm.ballotsLoaded.WithLabelValues(labelOr(labels, "source")).Add(value)
	case MetricResolutions:
		pm.resolutions.WithLabelValues(labelOr(labels, "outcome"), labelOr(labels, "unit")).Add(value)
	default:
		status := labels["status"]
		if status == "" {
			status = "success"
		}
		pm.operations.WithLabelValues(metric, status, labelOr(labels, "unit")).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.runState.WithLabelValues(metric, labelOr(labels, "unit")).Set(value)
}

// RecordHistogram implements the MetricsCollector interface. Resolution
// margins get their own histogram; everything else lands in the latency
// histogram keyed by metric name.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	if metric == MetricResolutionMargin {
		pm.margins.WithLabelValues(labelOr(labels, "margin_unit")).Observe(value)
		return
	}
	pm.unitLatency.WithLabelValues(metric, labelOr(labels, "unit")).Observe(value)
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
