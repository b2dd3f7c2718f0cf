package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-ballot/internal/domain"
)

// BallotSource supplies the ballots for a tally run. Implementations parse
// files, spreadsheets or in-memory fixtures into clean domain ballots and
// fail the whole load on the first malformed record.
type BallotSource interface {
	// Load returns every ballot in source order.
	Load(ctx context.Context) ([]domain.Ballot, error)

	// Name describes the source for logs and ballot IDs.
	Name() string
}

// ResultWriter presents the outcome of a tally run.
type ResultWriter interface {
	// Write renders result. It must not retain result after returning.
	Write(ctx context.Context, result *domain.ElectionResult) error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
