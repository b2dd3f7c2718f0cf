// Package testutils provides test data generators for the tally engine.
// These components are intended for internal use within the project's test
// suites and tools and are not part of the public API.
package testutils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ahrav/go-ballot/internal/domain"
)

// Score and significance bounds for generated ballots. Scores are whole
// numbers so that ties occur often enough to exercise every tie-break path.
const (
	MinScore        = 0
	MaxScore        = 10
	MinSignificance = 1
	MaxSignificance = 5
)

// DefaultCategories matches the eight category rows of the default layout.
var DefaultCategories = []string{
	"Taste", "Aroma", "Texture", "Appearance",
	"Heat", "Originality", "Value", "Presentation",
}

// GenerateSampleBallots creates a synthetic election of size ballots, each
// rating every category. The seed parameter controls randomization: use
// time.Now().UnixNano() for non-deterministic generation or a fixed value
// for reproducible tests.
func GenerateSampleBallots(size int, categories []string, seed int64) *BallotDataset {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	rng := rand.New(rand.NewSource(seed))

	dataset := &BallotDataset{
		Metadata: DatasetMetadata{
			Name:        "Sample Ballot Dataset",
			Version:     "1.0.0",
			Source:      "Generated for testing",
			Description: "A synthetic election with uniformly random scores. NOT REAL VOTES.",
			Seed:        seed,
			Size:        size,
			Categories:  append([]string(nil), categories...),
		},
		Ballots: make([]domain.Ballot, 0, size),
	}

	for i := range size {
		b := domain.NewBallot(fmt.Sprintf("generated#%d", i+1))
		for _, category := range categories {
			b.Set(category, randomEntry(rng))
		}
		dataset.Ballots = append(dataset.Ballots, b)
	}
	return dataset
}

// GenerateSampleBallotsDefault creates a dataset over DefaultCategories
// with a time-based seed.
func GenerateSampleBallotsDefault(size int) *BallotDataset {
	return GenerateSampleBallots(size, DefaultCategories, time.Now().UnixNano())
}

func randomEntry(rng *rand.Rand) domain.CategoryEntry {
	var entry domain.CategoryEntry
	entry.Significance = float64(MinSignificance + rng.Intn(MaxSignificance-MinSignificance+1))
	for c := range entry.Scores {
		entry.Scores[c] = float64(MinScore + rng.Intn(MaxScore-MinScore+1))
	}
	return entry
}
