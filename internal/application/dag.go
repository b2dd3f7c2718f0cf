package application

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

// Pipeline runs executables in order, each receiving the previous one's
// output. The engine uses one pipeline per scoring context:
// rank, tally, resolve.
type Pipeline struct {
	id          string
	executables []ports.Executable
	idSet       map[string]struct{}
	mu          sync.RWMutex
}

// NewPipeline creates an empty pipeline.
func NewPipeline(id string) *Pipeline {
	return &Pipeline{
		id:    id,
		idSet: make(map[string]struct{}),
	}
}

// Execute runs every executable in sequence. Cancellation is checked
// between executables; on failure the state reached so far is returned
// along with an error naming the failing step.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	executables := p.Executables()

	current := state
	for _, exec := range executables {
		if err := ctx.Err(); err != nil {
			return current, err
		}
		next, err := exec.Execute(ctx, current)
		if err != nil {
			return current, fmt.Errorf("pipeline %s: execution failed at %s: %w", p.id, exec.ID(), err)
		}
		current = next
	}
	return current, nil
}

// ID returns the pipeline identifier.
func (p *Pipeline) ID() string { return p.id }

// Add appends exec. IDs must be unique within the pipeline.
func (p *Pipeline) Add(exec ports.Executable) error {
	if exec == nil {
		return fmt.Errorf("cannot add nil executable to pipeline")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	id := exec.ID()
	if _, exists := p.idSet[id]; exists {
		return fmt.Errorf("executable with ID %s already exists in pipeline", id)
	}
	p.executables = append(p.executables, exec)
	p.idSet[id] = struct{}{}
	return nil
}

// Executables returns a copy of the ordered executables.
func (p *Pipeline) Executables() []ports.Executable {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]ports.Executable(nil), p.executables...)
}

// Layer runs its executables concurrently against the same input state
// and merges the results in insertion order, so the merged state does not
// depend on scheduling.
type Layer struct {
	id               string
	executables      []ports.Executable
	idSet            map[string]struct{}
	mergeStrategy    ports.MergeStrategy
	concurrencyLimit int
	mu               sync.RWMutex
}

// NewLayer creates an empty layer limited to runtime.NumCPU()*2 concurrent
// executions.
func NewLayer(id string) *Layer {
	return &Layer{
		id:               id,
		idSet:            make(map[string]struct{}),
		concurrencyLimit: defaultConcurrency(),
	}
}

func defaultConcurrency() int { return runtime.NumCPU() * 2 }

// Execute runs all executables and merges their output states. Every
// failure is reported, joined, and the input state is returned.
func (l *Layer) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	l.mu.RLock()
	executables := append([]ports.Executable(nil), l.executables...)
	limit := l.concurrencyLimit
	strategy := l.mergeStrategy
	l.mu.RUnlock()

	if len(executables) == 0 {
		return state, nil
	}
	if limit <= 0 {
		limit = defaultConcurrency()
	}
	if strategy == nil {
		strategy = lastWriteWins{}
	}

	states := make([]domain.State, len(executables))
	errs := make([]error, len(executables))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, exec := range executables {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = fmt.Errorf("executable %s: %w", exec.ID(), err)
				return nil
			}
			out, err := exec.Execute(ctx, state)
			if err != nil {
				errs[i] = fmt.Errorf("executable %s: %w", exec.ID(), err)
				return nil
			}
			states[i] = out
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return state, fmt.Errorf("layer %s failed with %d errors: %w", l.id, len(failed), errors.Join(failed...))
	}

	merged, err := strategy.Merge(state, states)
	if err != nil {
		return state, fmt.Errorf("layer %s: merge failed: %w", l.id, err)
	}
	return merged, nil
}

// ID returns the layer identifier.
func (l *Layer) ID() string { return l.id }

// Add includes exec in the layer. IDs must be unique within the layer.
func (l *Layer) Add(exec ports.Executable) error {
	if exec == nil {
		return fmt.Errorf("cannot add nil executable to layer")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := exec.ID()
	if _, exists := l.idSet[id]; exists {
		return fmt.Errorf("executable with ID %s already exists in layer", id)
	}
	l.executables = append(l.executables, exec)
	l.idSet[id] = struct{}{}
	return nil
}

// Executables returns a copy of the members in insertion order.
func (l *Layer) Executables() []ports.Executable {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]ports.Executable(nil), l.executables...)
}

// SetMergeStrategy configures how results are combined. Without one the
// last executable's state wins.
func (l *Layer) SetMergeStrategy(strategy ports.MergeStrategy) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mergeStrategy = strategy
}

// SetConcurrencyLimit bounds parallel executions. Zero or negative selects
// runtime.NumCPU()*2.
func (l *Layer) SetConcurrencyLimit(limit int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.concurrencyLimit = limit
}

// lastWriteWins returns the state of the last executable.
type lastWriteWins struct{}

func (lastWriteWins) Merge(base domain.State, states []domain.State) (domain.State, error) {
	if len(states) == 0 {
		return base, nil
	}
	return states[len(states)-1], nil
}

var (
	_ ports.Pipeline = (*Pipeline)(nil)
	_ ports.Layer    = (*Layer)(nil)
)
