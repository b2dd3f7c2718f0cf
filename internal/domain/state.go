package domain

import (
	"fmt"
	"maps"
	"slices"
)

// Key is a type-safe key for values held in State. The type parameter
// gives compile-time checking on Get and With.
type Key[T any] struct{ name string }

// NewKey creates a Key with the given name. Use it for keys defined
// outside this package.
func NewKey[T any](name string) Key[T] { return Key[T]{name: name} }

// Name returns the key's string name.
func (k Key[T]) Name() string { return k.name }

// Predefined state keys used by the tally pipeline.
var (
	// KeyBallots stores the loaded ballots.
	KeyBallots = Key[[]Ballot]{"ballots"}

	// KeyCategories stores the category list taken from the first ballot.
	KeyCategories = Key[[]string]{"categories"}

	// KeyRankings stores per-context rankings, one per ballot.
	KeyRankings = Key[map[string][]Ranking]{"rankings"}

	// KeyTallies stores the per-context pairwise tallies.
	KeyTallies = Key[map[string]Tally]{"tallies"}

	// KeyResolutions stores the per-context resolutions.
	KeyResolutions = Key[map[string]Resolution]{"resolutions"}

	// KeySignificance stores the averaged significance report.
	KeySignificance = Key[*SignificanceReport]{"significance"}

	// KeyExecutionID stores the run identifier used for tracing and
	// correlation.
	KeyExecutionID = Key[string]{"execution.execution_id"}
)

// State is an immutable bag of values flowing between pipeline units.
// Every With call returns a new State; the receiver is never modified, so a
// State may be shared by units running in parallel. Values stored in a
// State must be treated as read-only by whoever retrieves them.
type State struct {
	data map[string]any
}

// NewState creates an empty State.
func NewState() State {
	return State{data: make(map[string]any)}
}

// Get retrieves a value with compile-time type safety. It reports false if
// the key is absent or holds a value of another type.
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}
	val, ok := value.(T)
	return val, ok
}

// With returns a new State with key set to value.
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any)
	}
	newData[key.name] = value
	return State{data: newData}
}

// GetEntry reads one named entry from a map-valued key, typically a
// per-context value such as a tally.
func GetEntry[V any](s State, key Key[map[string]V], name string) (V, bool) {
	var zero V
	m, ok := Get(s, key)
	if !ok {
		return zero, false
	}
	v, ok := m[name]
	if !ok {
		return zero, false
	}
	return v, true
}

// WithEntry returns a new State whose map-valued key has name set to value.
// The existing map is cloned, never written in place.
func WithEntry[V any](s State, key Key[map[string]V], name string, value V) State {
	current, _ := Get(s, key)
	next := maps.Clone(current)
	if next == nil {
		next = make(map[string]V, 1)
	}
	next[name] = value
	return With(s, key, next)
}

// GetRaw returns the untyped value stored under keyName.
func (s State) GetRaw(keyName string) (any, bool) {
	v, ok := s.data[keyName]
	return v, ok
}

// WithRaw is the untyped counterpart of With.
func (s State) WithRaw(keyName string, value any) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any)
	}
	newData[keyName] = value
	return State{data: newData}
}

// Keys returns all key names present, sorted.
func (s State) Keys() []string {
	keys := slices.Collect(maps.Keys(s.data))
	slices.Sort(keys)
	return keys
}

// String returns a debugging representation listing the keys present.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.Keys())
}
