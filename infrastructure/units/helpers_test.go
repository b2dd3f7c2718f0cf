package units

import (
	"fmt"
	"math/rand"

	"github.com/ahrav/go-ballot/internal/domain"
)

// scores is a compact way to write a category row in tests.
type scores struct {
	sig        float64
	a, b, c, d float64
}

func ballot(id string, rows map[string]scores, order ...string) domain.Ballot {
	b := domain.NewBallot(id)
	for _, category := range order {
		r := rows[category]
		b.Set(category, domain.CategoryEntry{
			Significance: r.sig,
			Scores:       [domain.NumCandidates]float64{r.a, r.b, r.c, r.d},
		})
	}
	return b
}

// tasteBallots is the three-ballot single-category election used across
// tests: a beats every other candidate head to head.
func tasteBallots() []domain.Ballot {
	return []domain.Ballot{
		ballot("b1", map[string]scores{"Taste": {1, 9, 7, 5, 3}}, "Taste"),
		ballot("b2", map[string]scores{"Taste": {1, 8, 9, 4, 2}}, "Taste"),
		ballot("b3", map[string]scores{"Taste": {1, 7, 6, 8, 1}}, "Taste"),
	}
}

// randomBallots generates n well-formed ballots with the given categories.
// Scores are small integers so ties occur regularly.
func randomBallots(rng *rand.Rand, n int, categories []string) []domain.Ballot {
	out := make([]domain.Ballot, 0, n)
	for i := 0; i < n; i++ {
		b := domain.NewBallot(fmt.Sprintf("r%d", i))
		for _, category := range categories {
			var entry domain.CategoryEntry
			entry.Significance = float64(rng.Intn(5) + 1)
			for c := range entry.Scores {
				entry.Scores[c] = float64(rng.Intn(6))
			}
			b.Set(category, entry)
		}
		out = append(out, b)
	}
	return out
}
