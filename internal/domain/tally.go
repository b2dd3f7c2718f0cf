package domain

// Pairwise holds the head-to-head accumulators for an ordered candidate pair.
type Pairwise struct {
	// Count is +1 for every ballot ranking the first candidate above the
	// second and -1 for every ballot ranking it below.
	Count int `json:"count"`

	// Diff is the signed sum of (first score - second score) across ballots.
	Diff float64 `json:"diff"`
}

// Tally is the full pairwise table for the four candidates. The zero value
// is an empty tally ready for use.
//
// Record keeps the table antisymmetric: Get(x, y).Count == -Get(y, x).Count
// and Get(x, y).Diff == -Get(y, x).Diff.
type Tally struct {
	cells [NumCandidates][NumCandidates]Pairwise
	// ballots counts the rankings folded into the tally.
	ballots int
}

// Get returns the accumulators for the ordered pair (x, y).
func (t Tally) Get(x, y Candidate) Pairwise { return t.cells[x][y] }

// Count is shorthand for Get(x, y).Count.
func (t Tally) Count(x, y Candidate) int { return t.cells[x][y].Count }

// Diff is shorthand for Get(x, y).Diff.
func (t Tally) Diff(x, y Candidate) float64 { return t.cells[x][y].Diff }

// Ballots returns how many rankings have been added.
func (t Tally) Ballots() int { return t.ballots }

// Record notes that winner was ranked above loser on one ballot with the
// given scores, updating both directions of the pair.
func (t *Tally) Record(winner, loser Candidate, winnerScore, loserScore float64) {
	t.cells[winner][loser].Count++
	t.cells[winner][loser].Diff += winnerScore - loserScore
	t.cells[loser][winner].Count--
	t.cells[loser][winner].Diff += loserScore - winnerScore
}

// AddBallot bumps the ballot counter. Callers invoke it once per ranking.
func (t *Tally) AddBallot() { t.ballots++ }

// PairEntry is a flattened view of one ordered pair, used for reporting.
type PairEntry struct {
	For     Candidate `json:"for"`
	Against Candidate `json:"against"`
	Pairwise
}

// Pairs returns every ordered pair of distinct candidates in enumeration
// order.
func (t Tally) Pairs() []PairEntry {
	out := make([]PairEntry, 0, NumCandidates*(NumCandidates-1))
	for _, x := range Candidates() {
		for _, y := range Candidates() {
			if x == y {
				continue
			}
			out = append(out, PairEntry{For: x, Against: y, Pairwise: t.cells[x][y]})
		}
	}
	return out
}
