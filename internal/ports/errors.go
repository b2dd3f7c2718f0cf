package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors.
var (
	// ErrMalformedRecord indicates that a source row could not be parsed.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrNoBallots indicates that a source contained no ballots at all.
	ErrNoBallots = errors.New("source contains no ballots")

	// ErrUnsupportedFormat indicates an input or output format that has
	// no implementation.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")
)

// LoaderError reports a failure reading ballots from a source. Line is the
// 1-based line (or spreadsheet row) number, zero when not applicable.
type LoaderError struct {
	Source string
	Line   int
	Err    error
}

// Error implements the error interface for LoaderError.
func (e *LoaderError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("loader error: source=%s, line=%d, err=%v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("loader error: source=%s, err=%v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoaderError) Unwrap() error { return e.Err }

// NewLoaderError creates a new LoaderError with the given details.
func NewLoaderError(source string, line int, err error) *LoaderError {
	return &LoaderError{
		Source: source,
		Line:   line,
		Err:    err,
	}
}

// MetricsError represents an error from metrics collection operations.
type MetricsError struct {
	// Metric is the name of the metric being collected.
	Metric string

	// Operation is the name of the metrics operation that failed.
	Operation string

	Err error
}

// Error implements the error interface for MetricsError.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics error: operation=%s, metric=%s, err=%v", e.Operation, e.Metric, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricsError) Unwrap() error { return e.Err }

// NewMetricsError creates a new MetricsError with the given details.
func NewMetricsError(metric, operation string, err error) *MetricsError {
	return &MetricsError{
		Metric:    metric,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key involved in the failure.
	ConfigKey string

	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
