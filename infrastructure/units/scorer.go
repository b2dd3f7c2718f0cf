package units

import (
	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"gonum.org/v1/gonum/floats"

	"github.com/ahrav/go-ballot/internal/domain"
)

// IsOverall reports whether context selects significance-weighted scoring.
// The empty string is treated the same as domain.ContextOverall.
func IsOverall(context string) bool {
	return context == "" || context == domain.ContextOverall
}

// NormalizeSignificance divides each category's raw significance by the
// ballot's total so the weights sum to 1. A zero total yields
// domain.ErrDegenerateBallot wrapped in a *domain.BallotError.
func NormalizeSignificance(b domain.Ballot) (map[string]float64, error) {
	raw := make([]float64, len(b.Categories))
	for i, category := range b.Categories {
		raw[i] = b.Entries[category].Significance
	}

	total := floats.Sum(raw)
	if total == 0 {
		return nil, domain.NewBallotError(b.ID, "", "normalize", domain.ErrDegenerateBallot)
	}

	out := make(map[string]float64, len(raw))
	for i, category := range b.Categories {
		out[category] = raw[i] / total
	}
	return out, nil
}

// Score returns candidate's score on ballot b. With a category it is the
// raw category score; for the overall context it is the sum of each
// category score weighted by the ballot's normalized significance.
//
// Errors:
//   - domain.ErrMissingCategory when category is not on the ballot
//   - domain.ErrDegenerateBallot when overall weights cannot be normalized
func Score(b domain.Ballot, candidate domain.Candidate, category string) (float64, error) {
	scores, err := ScoreAll(b, category)
	if err != nil {
		return 0, err
	}
	return scores[candidate], nil
}

// ScoreAll computes every candidate's score for one context in a single
// pass, normalizing the ballot at most once.
func ScoreAll(b domain.Ballot, context string) ([domain.NumCandidates]float64, error) {
	var scores [domain.NumCandidates]float64

	if !IsOverall(context) {
		entry, ok := b.Entry(context)
		if !ok {
			err := domain.NewBallotError(b.ID, context, "score", domain.ErrMissingCategory)
			err.Suggestion = closestCategory(context, b.Categories)
			return scores, err
		}
		return entry.Scores, nil
	}

	weights, err := NormalizeSignificance(b)
	if err != nil {
		return scores, err
	}
	for _, category := range b.Categories {
		entry := b.Entries[category]
		for c := range scores {
			scores[c] += weights[category] * entry.Scores[c]
		}
	}
	return scores, nil
}

// maxSuggestionDistance bounds how different a suggested category name may
// be from the requested one.
const maxSuggestionDistance = 3

// closestCategory returns the known category nearest to name by
// case-insensitive edit distance, or "" if none is close enough.
func closestCategory(name string, known []string) string {
	fold := cases.Fold()
	target := fold.String(name)

	best, bestDist := "", maxSuggestionDistance+1
	for _, candidate := range known {
		d := levenshtein.ComputeDistance(target, fold.String(candidate))
		if d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
