package units

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

var _ ports.Unit = (*PairwiseTallyUnit)(nil)

// BuildTally folds rankings into a pairwise tally. On each ranking every
// candidate beats every candidate placed below it; all six unordered pairs
// are recorded in both directions, so the result is antisymmetric. The
// order of rankings does not affect the result.
func BuildTally(rankings []domain.Ranking) domain.Tally {
	var tally domain.Tally
	for _, r := range rankings {
		for i := 0; i < len(r); i++ {
			for j := i + 1; j < len(r); j++ {
				tally.Record(r[i].Candidate, r[j].Candidate, r[i].Score, r[j].Score)
			}
		}
		tally.AddBallot()
	}
	return tally
}

// PairwiseTallyUnit builds the pairwise tally for one scoring context from
// the rankings stored by a RankerUnit.
//
// State Requirements:
//   - domain.KeyRankings[context]
//
// State Updates:
//   - domain.KeyTallies[context]
type PairwiseTallyUnit struct {
	name   string
	config PairwiseTallyConfig
}

// PairwiseTallyConfig configures a PairwiseTallyUnit.
type PairwiseTallyConfig struct {
	Context string `yaml:"context" json:"context" validate:"required"`
}

// NewPairwiseTallyUnit creates a PairwiseTallyUnit.
func NewPairwiseTallyUnit(name string, config PairwiseTallyConfig) (*PairwiseTallyUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &PairwiseTallyUnit{name: name, config: config}, nil
}

// Name returns the unit's identifier.
func (pu *PairwiseTallyUnit) Name() string { return pu.name }

// Context returns the scoring context whose rankings are tallied.
func (pu *PairwiseTallyUnit) Context() string { return pu.config.Context }

// Execute builds and stores the tally.
func (pu *PairwiseTallyUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}

	rankings, ok := domain.GetEntry(state, domain.KeyRankings, pu.config.Context)
	if !ok {
		return state, fmt.Errorf("rankings for %q: %w", pu.config.Context, domain.ErrContextNotFound)
	}

	tally := BuildTally(rankings)
	return domain.WithEntry(state, domain.KeyTallies, pu.config.Context, tally), nil
}

// Validate checks the unit configuration.
func (pu *PairwiseTallyUnit) Validate() error {
	if err := validate.Struct(pu.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters replaces the configuration from a YAML node.
func (pu *PairwiseTallyUnit) UnmarshalParameters(params yaml.Node) error {
	var config PairwiseTallyConfig
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	pu.config = config
	return nil
}

// NewPairwiseTallyFromConfig creates a PairwiseTallyUnit from a
// configuration map.
func NewPairwiseTallyFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := PairwiseTallyConfig{Context: domain.ContextOverall}
	if err := decodeConfigMap(config, &cfg); err != nil {
		return nil, err
	}
	return NewPairwiseTallyUnit(id, cfg)
}
