package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

const tracerName = "github.com/ahrav/go-ballot/middleware"

var _ ports.Unit = (*ObservedUnit)(nil)

// contextual is implemented by units bound to a single scoring context.
type contextual interface {
	Context() string
}

// ObservedUnit decorates a Unit with an OpenTelemetry span and metrics.
// When the wrapped unit is bound to a scoring context and leaves a
// resolution for it in the state, the resolver's trace is replayed as span
// events and the outcome is counted.
type ObservedUnit struct {
	next    ports.Unit
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewObservedUnit wraps next. metrics may be nil, in which case only spans
// are produced.
func NewObservedUnit(next ports.Unit, metrics ports.MetricsCollector) *ObservedUnit {
	if next == nil {
		panic("observed unit: next unit is required")
	}
	return &ObservedUnit{
		next:    next,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
}

// Name returns the wrapped unit's name.
func (o *ObservedUnit) Name() string { return o.next.Name() }

// Unwrap returns the decorated unit.
func (o *ObservedUnit) Unwrap() ports.Unit { return o.next }

// Validate delegates to the wrapped unit.
func (o *ObservedUnit) Validate() error {
	if err := o.next.Validate(); err != nil {
		return fmt.Errorf("wrapped unit validation failed: %w", err)
	}
	return nil
}

// Execute runs the wrapped unit inside a span and records its latency and
// status.
func (o *ObservedUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	attrs := []attribute.KeyValue{attribute.String("unit.name", o.next.Name())}
	scoringContext, bound := o.scoringContext()
	if bound {
		attrs = append(attrs, attribute.String("ballot.context", scoringContext))
	}

	ctx, span := o.tracer.Start(ctx, "Unit.Execute", trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	result, err := o.next.Execute(ctx, state)
	elapsed := time.Since(start)

	labels := map[string]string{"unit": o.next.Name()}
	o.recordLatency(elapsed, labels)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.recordCounter(MetricUnitExecutions, map[string]string{"unit": o.next.Name(), "status": errorStatus(err)})
		return state, err
	}

	o.recordCounter(MetricUnitExecutions, labels)
	if bound {
		if res, ok := domain.GetEntry(result, domain.KeyResolutions, scoringContext); ok {
			o.observeResolution(span, res)
		}
	}
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (o *ObservedUnit) scoringContext() (string, bool) {
	c, ok := o.next.(contextual)
	if !ok {
		return "", false
	}
	return c.Context(), true
}

// observeResolution copies a resolution onto the span and into metrics.
func (o *ObservedUnit) observeResolution(span trace.Span, res domain.Resolution) {
	span.SetAttributes(
		attribute.String("resolution.outcome", string(res.Outcome)),
		attribute.String("resolution.winner", res.Winner.String()),
		attribute.Float64("resolution.margin", res.Margin),
		attribute.String("resolution.margin_unit", string(res.MarginUnit)),
		attribute.Int("resolution.schwartz_set_size", len(res.SchwartzSet)),
	)
	for _, step := range res.Trace {
		span.AddEvent(string(step.Kind), trace.WithAttributes(traceAttributes(step)...))
	}

	if o.metrics == nil {
		return
	}
	unit := o.next.Name()
	o.metrics.RecordCounter(MetricResolutions, 1, map[string]string{"outcome": string(res.Outcome), "unit": unit})
	o.metrics.RecordHistogram(MetricResolutionMargin, res.Margin, map[string]string{"margin_unit": string(res.MarginUnit)})
	o.metrics.RecordGauge(MetricSchwartzSetSize, float64(len(res.SchwartzSet)), map[string]string{"unit": unit})
}

func traceAttributes(step domain.TraceEntry) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if step.Candidate != nil {
		attrs = append(attrs, attribute.String("candidate", step.Candidate.String()))
	}
	if step.By != nil {
		attrs = append(attrs, attribute.String("by", step.By.String()))
	}
	if step.Margin != 0 {
		attrs = append(attrs, attribute.Float64("margin", step.Margin))
	}
	if len(step.Members) > 0 {
		members := make([]string, len(step.Members))
		for i, m := range step.Members {
			members[i] = m.String()
		}
		attrs = append(attrs, attribute.StringSlice("members", members))
	}
	return attrs
}

func (o *ObservedUnit) recordLatency(elapsed time.Duration, labels map[string]string) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordLatency("unit_execute", elapsed, labels)
}

func (o *ObservedUnit) recordCounter(metric string, labels map[string]string) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordCounter(metric, 1, labels)
}

func errorStatus(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
