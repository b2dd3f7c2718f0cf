// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-ballot/internal/domain"
)

// Unit is the fundamental building block of the tally pipeline.
// Each Unit performs one transformation on the State, such as ranking the
// ballots for a scoring context or resolving a tally into a winner.
// Units should be stateless and safe for concurrent execution.
type Unit interface {
	// Name returns a unique identifier for this unit.
	Name() string

	// Execute performs the unit's transformation on the provided State and
	// returns a new State. The input State must not be modified.
	//
	// Example:
	//
	//	next, err := unit.Execute(ctx, state)
	//	if err != nil {
	//	    return state, fmt.Errorf("unit %s failed: %w", unit.Name(), err)
	//	}
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks if the unit is properly configured.
	Validate() error
}

// UnitFactory builds a Unit from an identifier and a loosely typed
// configuration map, typically decoded from YAML.
type UnitFactory func(id string, config map[string]any) (Unit, error)

// UnitRegistry creates units by type name.
type UnitRegistry interface {
	// CreateUnit instantiates a unit of unitType with the given id.
	CreateUnit(unitType string, id string, config map[string]any) (Unit, error)

	// RegisterUnitFactory adds or replaces the factory for unitType.
	RegisterUnitFactory(unitType string, factory UnitFactory) error

	// GetSupportedTypes lists the registered unit types.
	GetSupportedTypes() []string
}
