package ports

import (
	"context"

	"github.com/ahrav/go-ballot/internal/domain"
)

// MergeStrategy defines how the states produced by parallel executions
// are combined into a single output state.
type MergeStrategy interface {
	// Merge combines states from parallel executions. baseState is the
	// input every execution received. The implementation must be
	// deterministic for a given order of states and must not modify its
	// inputs.
	Merge(baseState domain.State, states []domain.State) (domain.State, error)
}

// Executable is anything that can run inside the execution graph: a unit
// adapter, a pipeline, or a layer.
type Executable interface {
	// Execute processes state and returns the updated state. The input
	// state is immutable and may be shared with other executables running
	// concurrently.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// ID returns the identifier of this executable, unique in its graph.
	ID() string
}

// Pipeline runs executables in strict order, feeding each one's output to
// the next. The engine builds one pipeline per scoring context.
type Pipeline interface {
	Executable

	// Add appends exec to the execution sequence.
	Add(exec Executable) error

	// Executables returns the ordered executables. Callers must not modify
	// the returned slice.
	Executables() []Executable
}

// Layer runs executables concurrently on the same input state and merges
// their outputs.
type Layer interface {
	Executable

	// Add includes exec in the parallel group.
	Add(exec Executable) error

	// Executables returns the members of the layer in insertion order.
	Executables() []Executable

	// SetMergeStrategy configures how parallel results are combined.
	// It must be called before Execute.
	SetMergeStrategy(strategy MergeStrategy)
}
