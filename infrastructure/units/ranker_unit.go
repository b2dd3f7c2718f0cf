package units

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

var _ ports.Unit = (*RankerUnit)(nil)

// Rank converts ballot b's scores for scoringContext into a strict ordinal
// ranking of all four candidates, highest score first. Candidates with
// equal scores keep the enumeration order, so "a" outranks "b" on a tie.
func Rank(b domain.Ballot, scoringContext string) (domain.Ranking, error) {
	scores, err := ScoreAll(b, scoringContext)
	if err != nil {
		return nil, err
	}

	ranking := make(domain.Ranking, 0, domain.NumCandidates)
	for _, c := range domain.Candidates() {
		ranking = append(ranking, domain.Placement{Candidate: c, Score: scores[c]})
	}
	slices.SortStableFunc(ranking, func(x, y domain.Placement) int {
		return cmp.Compare(y.Score, x.Score)
	})
	return ranking, nil
}

// RankerUnit ranks every ballot in the state for one scoring context and
// stores the rankings under that context in domain.KeyRankings.
//
// State Requirements:
//   - domain.KeyBallots: []domain.Ballot
//
// State Updates:
//   - domain.KeyRankings[context]: []domain.Ranking, one per ballot
type RankerUnit struct {
	name   string
	config RankerConfig
}

// RankerConfig configures a RankerUnit.
type RankerConfig struct {
	// Context is the category to rank by, or "overall".
	Context string `yaml:"context" json:"context" validate:"required"`
}

// NewRankerUnit creates a RankerUnit.
func NewRankerUnit(name string, config RankerConfig) (*RankerUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &RankerUnit{name: name, config: config}, nil
}

// Name returns the unit's identifier.
func (ru *RankerUnit) Name() string { return ru.name }

// Context returns the scoring context this unit ranks.
func (ru *RankerUnit) Context() string { return ru.config.Context }

// Execute ranks all ballots. The first ballot that cannot be scored aborts
// the unit.
func (ru *RankerUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}

	ballots, ok := domain.Get(state, domain.KeyBallots)
	if !ok {
		return state, domain.NewStateError(domain.KeyBallots.Name(), "Get", domain.ErrKeyNotFound)
	}

	rankings := make([]domain.Ranking, 0, len(ballots))
	for _, b := range ballots {
		r, err := Rank(b, ru.config.Context)
		if err != nil {
			return state, fmt.Errorf("rank %s: %w", ru.config.Context, err)
		}
		rankings = append(rankings, r)
	}

	return domain.WithEntry(state, domain.KeyRankings, ru.config.Context, rankings), nil
}

// Validate checks the unit configuration.
func (ru *RankerUnit) Validate() error {
	if err := validate.Struct(ru.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters replaces the configuration from a YAML node.
// It is not safe to call concurrently with Execute.
func (ru *RankerUnit) UnmarshalParameters(params yaml.Node) error {
	var config RankerConfig
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	ru.config = config
	return nil
}

// DefaultRankerConfig ranks by the overall context.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{Context: domain.ContextOverall}
}

// NewRankerFromConfig creates a RankerUnit from a configuration map.
func NewRankerFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultRankerConfig()
	if err := decodeConfigMap(config, &cfg); err != nil {
		return nil, err
	}
	return NewRankerUnit(id, cfg)
}

// decodeConfigMap overlays a loosely typed map onto target by round-tripping
// through YAML.
func decodeConfigMap(config map[string]any, target any) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
