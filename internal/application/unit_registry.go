package application

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ahrav/go-ballot/infrastructure/units"
	"github.com/ahrav/go-ballot/internal/ports"
)

// Built-in unit types.
const (
	UnitTypeRank          = "rank"
	UnitTypePairwiseTally = "pairwise_tally"
	UnitTypeCondorcet     = "condorcet"
	UnitTypeSignificance  = "significance"
)

var _ ports.UnitRegistry = (*DefaultUnitRegistry)(nil)

// DefaultUnitRegistry creates units by type name. The built-in tally
// units are registered on construction and more can be added at runtime.
type DefaultUnitRegistry struct {
	factories map[string]ports.UnitFactory
	mu        sync.RWMutex
}

// NewDefaultUnitRegistry returns a registry with the built-in units.
func NewDefaultUnitRegistry() *DefaultUnitRegistry {
	return &DefaultUnitRegistry{
		factories: map[string]ports.UnitFactory{
			UnitTypeRank:          units.NewRankerFromConfig,
			UnitTypePairwiseTally: units.NewPairwiseTallyFromConfig,
			UnitTypeCondorcet:     units.NewCondorcetFromConfig,
			UnitTypeSignificance:  units.NewSignificanceFromConfig,
		},
	}
}

// CreateUnit instantiates a unit. config is copied before it reaches the
// factory.
func (r *DefaultUnitRegistry) CreateUnit(unitType string, id string, config map[string]any) (ports.Unit, error) {
	r.mu.RLock()
	factory, exists := r.factories[unitType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported unit type: %s", unitType)
	}
	if id == "" {
		return nil, fmt.Errorf("unit ID cannot be empty")
	}

	params := make(map[string]any, len(config))
	maps.Copy(params, config)

	unit, err := factory(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit %s of type %s: %w", id, unitType, err)
	}
	return unit, nil
}

// RegisterUnitFactory adds or replaces the factory for unitType.
func (r *DefaultUnitRegistry) RegisterUnitFactory(unitType string, factory ports.UnitFactory) error {
	if unitType == "" {
		return fmt.Errorf("unit type cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[unitType] = factory
	return nil
}

// GetSupportedTypes returns the registered types in sorted order.
func (r *DefaultUnitRegistry) GetSupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}
