// Package domain contains pure, dependency-free domain models and types
// for the ballot tally engine.
package domain

// ContextOverall names the scoring context that combines every category
// using the ballot's normalized significance weights.
const ContextOverall = "overall"

// DefaultSignificance is the weight assumed for a category whose
// significance cell was left blank.
const DefaultSignificance = 1.0

// CategoryEntry holds one voter's rating of a single category: how much the
// category matters to them and the score they gave each candidate.
type CategoryEntry struct {
	// Significance is the raw, non-negative importance of this category.
	// Weights on a ballot need not sum to 1; normalization happens later.
	Significance float64 `json:"significance" yaml:"significance"`

	// Scores holds the candidate scores indexed by Candidate.
	Scores [NumCandidates]float64 `json:"scores" yaml:"scores"`
}

// Score returns the score given to c in this category.
func (e CategoryEntry) Score(c Candidate) float64 { return e.Scores[c] }

// Ballot is one voter's category-weighted ratings of the four candidates.
// Categories preserves the order in which categories appeared in the source
// so reports and iteration are deterministic.
type Ballot struct {
	// ID identifies the ballot in error messages, typically "<source>#<n>".
	ID string `json:"id"`

	// Categories lists the category names in source order.
	Categories []string `json:"categories"`

	// Entries maps each category name to its ratings.
	Entries map[string]CategoryEntry `json:"entries"`
}

// NewBallot creates an empty ballot with the given identifier.
func NewBallot(id string) Ballot {
	return Ballot{
		ID:      id,
		Entries: make(map[string]CategoryEntry),
	}
}

// Set records the entry for category, appending the category to the
// ordered list the first time it is seen.
func (b *Ballot) Set(category string, entry CategoryEntry) {
	if b.Entries == nil {
		b.Entries = make(map[string]CategoryEntry)
	}
	if _, exists := b.Entries[category]; !exists {
		b.Categories = append(b.Categories, category)
	}
	b.Entries[category] = entry
}

// Entry returns the ratings for category and whether it exists.
func (b Ballot) Entry(category string) (CategoryEntry, bool) {
	e, ok := b.Entries[category]
	return e, ok
}

// CategoriesOf returns the category list shared by all ballots. It is taken
// from the first ballot; the rest are assumed to match.
func CategoriesOf(ballots []Ballot) []string {
	if len(ballots) == 0 {
		return nil
	}
	out := make([]string, len(ballots[0].Categories))
	copy(out, ballots[0].Categories)
	return out
}
