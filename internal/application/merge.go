package application

import (
	"errors"
	"fmt"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

// ErrMergeConflict is returned when two parallel executions produce an
// entry for the same scoring context.
var ErrMergeConflict = errors.New("merge conflict")

var _ ports.MergeStrategy = ContextMergeStrategy{}

// ContextMergeStrategy merges the states of independent context pipelines.
// The per-context maps (rankings, tallies, resolutions) are unioned; an
// entry produced by more than one execution is a conflict. Other keys
// added by an execution are copied over, later executions winning.
type ContextMergeStrategy struct{}

// Merge implements ports.MergeStrategy.
func (ContextMergeStrategy) Merge(base domain.State, states []domain.State) (domain.State, error) {
	merged := base
	var err error

	if merged, err = mergeEntries(base, merged, states, domain.KeyRankings); err != nil {
		return base, err
	}
	if merged, err = mergeEntries(base, merged, states, domain.KeyTallies); err != nil {
		return base, err
	}
	if merged, err = mergeEntries(base, merged, states, domain.KeyResolutions); err != nil {
		return base, err
	}

	entryKeys := map[string]struct{}{
		domain.KeyRankings.Name():    {},
		domain.KeyTallies.Name():     {},
		domain.KeyResolutions.Name(): {},
	}
	for _, s := range states {
		for _, name := range s.Keys() {
			if _, ok := entryKeys[name]; ok {
				continue
			}
			if _, inherited := base.GetRaw(name); inherited {
				continue
			}
			v, _ := s.GetRaw(name)
			merged = merged.WithRaw(name, v)
		}
	}
	return merged, nil
}

// mergeEntries unions the map stored under key across states. Entries
// already present in base are inherited by every state and skipped.
func mergeEntries[V any](base, merged domain.State, states []domain.State, key domain.Key[map[string]V]) (domain.State, error) {
	inherited, _ := domain.Get(base, key)
	owner := make(map[string]int)

	for i, s := range states {
		entries, ok := domain.Get(s, key)
		if !ok {
			continue
		}
		for name, v := range entries {
			if _, ok := inherited[name]; ok {
				continue
			}
			if prev, dup := owner[name]; dup {
				return base, fmt.Errorf("%w: %s[%q] produced by executions %d and %d",
					ErrMergeConflict, key.Name(), name, prev, i)
			}
			owner[name] = i
			merged = domain.WithEntry(merged, key, name, v)
		}
	}
	return merged, nil
}
