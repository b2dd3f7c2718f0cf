// Package units provides the tally pipeline's units: ranking ballots,
// building pairwise tallies, resolving winners, and averaging category
// significance. Each unit implements ports.Unit.
package units

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// WeakestLinkPolicy selects how the cycle-break step finds the weakest link
// among tied candidates.
type WeakestLinkPolicy string

const (
	// WeakestLinkPairwise examines every ordered pair of distinct tied
	// candidates and picks the smallest score differential. Ties in the
	// minimum go to the pair examined last.
	WeakestLinkPairwise WeakestLinkPolicy = "pairwise"

	// WeakestLinkLegacy reproduces the historical search: each candidate is
	// compared only through its differential against the last distinct
	// candidate examined, and the recorded pair is that candidate with the
	// last member of the tied set. Kept so old results can be reproduced.
	WeakestLinkLegacy WeakestLinkPolicy = "legacy"
)

// Common errors returned by tally units.
var (
	// ErrEmptyUnitName is returned when creating a unit with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrNoCandidates is returned when a resolver is given no candidates.
	ErrNoCandidates = errors.New("no candidates to resolve")

	// ErrDuplicateCandidate is returned when a candidate universe lists the
	// same candidate twice.
	ErrDuplicateCandidate = errors.New("duplicate candidate")
)

// Package-level validator instance for configuration validation.
var validate = validator.New()
