package domain

// Placement is one candidate's position-bearing entry in a ranking.
type Placement struct {
	Candidate Candidate `json:"candidate"`
	Score     float64   `json:"score"`
}

// Ranking is a strict ordinal ranking of all four candidates for one ballot
// in one scoring context. Index 0 is the ballot's top choice.
type Ranking []Placement
