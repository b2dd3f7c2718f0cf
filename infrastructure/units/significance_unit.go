package units

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

var _ ports.Unit = (*SignificanceUnit)(nil)

// AverageSignificance averages each ballot's normalized significance per
// category. Categories come from the first ballot. Because every ballot's
// weights sum to 1, so do the averages.
//
// Errors:
//   - domain.ErrEmptyBallotSet for an empty slice
//   - domain.ErrDegenerateBallot if any ballot cannot be normalized
//   - domain.ErrMissingCategory if a ballot lacks a first-ballot category
func AverageSignificance(ballots []domain.Ballot) (domain.SignificanceReport, error) {
	if len(ballots) == 0 {
		return domain.SignificanceReport{}, domain.ErrEmptyBallotSet
	}

	categories := domain.CategoriesOf(ballots)
	columns := make(map[string][]float64, len(categories))
	for _, b := range ballots {
		weights, err := NormalizeSignificance(b)
		if err != nil {
			return domain.SignificanceReport{}, err
		}
		for _, category := range categories {
			w, ok := weights[category]
			if !ok {
				return domain.SignificanceReport{}, domain.NewBallotError(b.ID, category, "average_significance", domain.ErrMissingCategory)
			}
			columns[category] = append(columns[category], w)
		}
	}

	report := domain.SignificanceReport{
		Categories: categories,
		Weights:    make(map[string]float64, len(categories)),
	}
	for _, category := range categories {
		mean, err := stats.Mean(columns[category])
		if err != nil {
			return domain.SignificanceReport{}, fmt.Errorf("average %q: %w", category, err)
		}
		report.Weights[category] = mean
	}
	return report, nil
}

// SignificanceUnit computes the averaged significance report. It runs
// independently of the ranking pipelines.
//
// State Requirements:
//   - domain.KeyBallots
//
// State Updates:
//   - domain.KeySignificance
type SignificanceUnit struct {
	name string
}

// NewSignificanceUnit creates a SignificanceUnit.
func NewSignificanceUnit(name string) (*SignificanceUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	return &SignificanceUnit{name: name}, nil
}

// Name returns the unit's identifier.
func (su *SignificanceUnit) Name() string { return su.name }

// Execute stores the averaged significance report.
func (su *SignificanceUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}

	ballots, ok := domain.Get(state, domain.KeyBallots)
	if !ok {
		return state, domain.NewStateError(domain.KeyBallots.Name(), "Get", domain.ErrKeyNotFound)
	}

	report, err := AverageSignificance(ballots)
	if err != nil {
		return state, fmt.Errorf("significance: %w", err)
	}
	return domain.With(state, domain.KeySignificance, &report), nil
}

// Validate always succeeds; the unit has no configuration.
func (su *SignificanceUnit) Validate() error { return nil }

// UnmarshalParameters accepts an empty parameter block.
func (su *SignificanceUnit) UnmarshalParameters(params yaml.Node) error {
	var extra map[string]any
	if err := params.Decode(&extra); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if len(extra) > 0 {
		return fmt.Errorf("significance unit takes no parameters, got %d", len(extra))
	}
	return nil
}

// NewSignificanceFromConfig creates a SignificanceUnit; config is ignored.
func NewSignificanceFromConfig(id string, _ map[string]any) (ports.Unit, error) {
	return NewSignificanceUnit(id)
}
