package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahrav/go-ballot/infrastructure/middleware"
	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

// Engine runs a complete tally: one rank, tally, resolve pipeline per
// scoring context plus the significance average, all inside one parallel
// layer.
type Engine struct {
	config   *ElectionConfig
	registry ports.UnitRegistry
	metrics  ports.MetricsCollector
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector. Units are traced either way.
func WithMetrics(metrics ports.MetricsCollector) EngineOption {
	return func(e *Engine) { e.metrics = metrics }
}

// WithRegistry replaces the unit registry.
func WithRegistry(registry ports.UnitRegistry) EngineOption {
	return func(e *Engine) {
		if registry != nil {
			e.registry = registry
		}
	}
}

// WithClock sets the time source used for result timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator sets the run ID source. The default is a random UUID.
func WithIDGenerator(newID func() string) EngineOption {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// NewEngine creates an engine for config. A nil config selects
// DefaultElectionConfig.
func NewEngine(config *ElectionConfig, opts ...EngineOption) *Engine {
	if config == nil {
		config = DefaultElectionConfig()
	}
	e := &Engine{
		config:   config,
		registry: NewDefaultUnitRegistry(),
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run loads ballots from source and tallies them.
func (e *Engine) Run(ctx context.Context, source ports.BallotSource) (*domain.ElectionResult, error) {
	start := time.Now()
	ballots, err := source.Load(ctx)
	if err != nil {
		e.logger.Error("failed to load ballots", zap.String("source", source.Name()), zap.Error(err))
		return nil, fmt.Errorf("load ballots: %w", err)
	}
	e.logger.Info("ballots loaded",
		zap.String("source", source.Name()),
		zap.Int("ballots", len(ballots)),
		zap.Duration("elapsed", time.Since(start)))

	if e.metrics != nil {
		e.metrics.RecordCounter(middleware.MetricBallotsLoaded, float64(len(ballots)), map[string]string{"source": source.Name()})
		e.metrics.RecordLatency("load", time.Since(start), map[string]string{"unit": source.Name()})
	}
	return e.Tally(ctx, ballots)
}

// Tally resolves the overall context and every selected category for
// ballots. Any malformed ballot aborts the whole run.
func (e *Engine) Tally(ctx context.Context, ballots []domain.Ballot) (*domain.ElectionResult, error) {
	if len(ballots) == 0 {
		return nil, domain.ErrEmptyBallotSet
	}

	categories, err := e.selectCategories(domain.CategoriesOf(ballots))
	if err != nil {
		return nil, err
	}

	runID := e.newID()
	logger := e.logger.With(zap.String("run_id", runID))

	layer, err := e.buildLayer(categories)
	if err != nil {
		return nil, fmt.Errorf("build execution graph: %w", err)
	}

	state := domain.NewState()
	state = domain.With(state, domain.KeyBallots, ballots)
	state = domain.With(state, domain.KeyCategories, categories)
	state = domain.With(state, domain.KeyExecutionID, runID)

	start := time.Now()
	out, err := layer.Execute(ctx, state)
	if err != nil {
		logger.Error("tally failed", zap.Error(err))
		return nil, err
	}

	result, err := assemble(out, runID, len(ballots), categories)
	if err != nil {
		return nil, err
	}
	result.Timestamp = e.now()

	for _, res := range append([]domain.Resolution{result.Overall}, result.PerCategory...) {
		logger.Debug("context resolved",
			zap.String("context", res.Context),
			zap.String("outcome", string(res.Outcome)),
			zap.Stringer("winner", res.Winner),
			zap.Float64("margin", res.Margin),
			zap.String("margin_unit", string(res.MarginUnit)),
			zap.Stringers("schwartz_set", res.SchwartzSet),
			zap.Any("trace", res.Trace))
	}
	logger.Info("tally complete",
		zap.Int("ballots", result.Ballots),
		zap.Int("contexts", len(result.PerCategory)+1),
		zap.Stringer("winner", result.Overall.Winner),
		zap.Duration("elapsed", time.Since(start)))

	if e.metrics != nil {
		e.metrics.RecordLatency("tally", time.Since(start), map[string]string{"unit": "engine"})
		e.metrics.RecordGauge("ballots", float64(result.Ballots), map[string]string{"unit": "engine"})
	}
	return result, nil
}

// selectCategories applies the configured category filter, keeping ballot
// order.
func (e *Engine) selectCategories(all []string) ([]string, error) {
	wanted := e.config.Contexts.Categories
	if len(wanted) == 0 {
		return all, nil
	}
	for _, name := range wanted {
		if !slices.Contains(all, name) {
			return nil, fmt.Errorf("context %q: %w", name, domain.ErrMissingCategory)
		}
	}
	selected := make([]string, 0, len(wanted))
	for _, name := range all {
		if slices.Contains(wanted, name) {
			selected = append(selected, name)
		}
	}
	return selected, nil
}

// buildLayer wires one pipeline per context and the significance unit into
// a layer merged by context.
func (e *Engine) buildLayer(categories []string) (*Layer, error) {
	layer := NewLayer("election")
	layer.SetMergeStrategy(ContextMergeStrategy{})
	if e.config.Concurrency > 0 {
		layer.SetConcurrencyLimit(e.config.Concurrency)
	}

	contexts := append([]string{domain.ContextOverall}, categories...)
	for _, name := range contexts {
		pipeline, err := e.contextPipeline(name)
		if err != nil {
			return nil, err
		}
		if err := layer.Add(pipeline); err != nil {
			return nil, err
		}
	}

	sig, err := e.unit(UnitTypeSignificance, "significance", nil)
	if err != nil {
		return nil, err
	}
	if err := layer.Add(sig); err != nil {
		return nil, err
	}
	return layer, nil
}

func (e *Engine) contextPipeline(name string) (*Pipeline, error) {
	pipeline := NewPipeline("context/" + name)

	resolverParams := map[string]any{
		"context":      name,
		"weakest_link": e.config.Resolver.WeakestLink,
	}
	if len(e.config.Resolver.Candidates) > 0 {
		resolverParams["candidates"] = e.config.Resolver.Candidates
	}

	steps := []struct {
		unitType string
		params   map[string]any
	}{
		{UnitTypeRank, map[string]any{"context": name}},
		{UnitTypePairwiseTally, map[string]any{"context": name}},
		{UnitTypeCondorcet, resolverParams},
	}
	for _, step := range steps {
		exec, err := e.unit(step.unitType, step.unitType+"/"+name, step.params)
		if err != nil {
			return nil, err
		}
		if err := pipeline.Add(exec); err != nil {
			return nil, err
		}
	}
	return pipeline, nil
}

// unit creates a registry unit wrapped for tracing and metrics.
func (e *Engine) unit(unitType, id string, params map[string]any) (ports.Executable, error) {
	u, err := e.registry.CreateUnit(unitType, id, params)
	if err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("unit %s: %w", id, err)
	}
	return NewUnitAdapter(middleware.NewObservedUnit(u, e.metrics), id), nil
}

// assemble builds the result from the merged state.
func assemble(state domain.State, runID string, ballots int, categories []string) (*domain.ElectionResult, error) {
	overall, ok := domain.GetEntry(state, domain.KeyResolutions, domain.ContextOverall)
	if !ok {
		return nil, fmt.Errorf("resolution for %q: %w", domain.ContextOverall, domain.ErrContextNotFound)
	}

	perCategory := make([]domain.Resolution, 0, len(categories))
	for _, name := range categories {
		res, ok := domain.GetEntry(state, domain.KeyResolutions, name)
		if !ok {
			return nil, fmt.Errorf("resolution for %q: %w", name, domain.ErrContextNotFound)
		}
		perCategory = append(perCategory, res)
	}

	report, ok := domain.Get(state, domain.KeySignificance)
	if !ok || report == nil {
		return nil, errors.New("significance report missing from state")
	}

	return &domain.ElectionResult{
		ID:           runID,
		Ballots:      ballots,
		Categories:   categories,
		Overall:      overall,
		PerCategory:  perCategory,
		Significance: *report,
	}, nil
}
