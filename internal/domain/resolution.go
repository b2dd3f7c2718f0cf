package domain

import "time"

// Outcome names the rule that produced a resolution's winner.
type Outcome string

const (
	// OutcomeCondorcet means exactly one candidate was undefeated.
	OutcomeCondorcet Outcome = "condorcet"

	// OutcomeScoreTiebreak means two candidates were undefeated and the
	// head-to-head score differential decided between them.
	OutcomeScoreTiebreak Outcome = "score_tiebreak"

	// OutcomeCycleBreak means three or more candidates were tied, or every
	// candidate was defeated, and the weakest-link rule picked the winner.
	OutcomeCycleBreak Outcome = "cycle_break"
)

// MarginUnit says what a resolution's margin measures.
type MarginUnit string

const (
	// MarginBallots is a net count of ballots.
	MarginBallots MarginUnit = "ballots"

	// MarginPoints is a summed score differential.
	MarginPoints MarginUnit = "points"
)

// TraceKind classifies a TraceEntry.
type TraceKind string

const (
	TraceDefeated     TraceKind = "defeated"
	TraceSchwartzSet  TraceKind = "schwartz_set"
	TraceWeakestLink  TraceKind = "weakest_link"
	TraceCycleWinner  TraceKind = "cycle_winner"
	TraceTiebreak     TraceKind = "score_tiebreak"
	TraceCondorcetWin TraceKind = "condorcet_winner"
)

// TraceEntry is one step of the resolver's reasoning. Which fields are set
// depends on Kind.
type TraceEntry struct {
	Kind TraceKind `json:"kind"`

	// Candidate is the subject of the step, e.g. the defeated candidate.
	Candidate *Candidate `json:"candidate,omitempty"`

	// By is the opposing candidate, e.g. who defeated Candidate.
	By *Candidate `json:"by,omitempty"`

	// Margin is the count or differential associated with the step.
	Margin float64 `json:"margin,omitempty"`

	// Members lists candidates for set-valued steps.
	Members []Candidate `json:"members,omitempty"`
}

// Resolution is the outcome of one scoring context.
type Resolution struct {
	// Context is the category name or ContextOverall.
	Context string `json:"context"`

	Outcome Outcome   `json:"outcome"`
	Winner  Candidate `json:"winner"`

	// RunnerUp is nil when the rule that decided the winner does not
	// single one out.
	RunnerUp *Candidate `json:"runner_up,omitempty"`

	Margin     float64    `json:"margin"`
	MarginUnit MarginUnit `json:"margin_unit"`

	// SchwartzSet lists the undefeated candidates in enumeration order.
	SchwartzSet []Candidate `json:"schwartz_set"`

	Trace []TraceEntry `json:"trace,omitempty"`

	// Ballots is the number of rankings folded into the resolved tally.
	Ballots int `json:"ballots"`

	// Pairwise is the resolved tally, one entry per ordered pair.
	Pairwise []PairEntry `json:"pairwise,omitempty"`
}

// Defeats returns the defeated-by steps of the trace in order.
func (r Resolution) Defeats() []TraceEntry {
	var out []TraceEntry
	for _, e := range r.Trace {
		if e.Kind == TraceDefeated {
			out = append(out, e)
		}
	}
	return out
}

// SignificanceReport is the per-category weight averaged over all ballots.
type SignificanceReport struct {
	// Categories preserves first-ballot category order.
	Categories []string `json:"categories"`

	// Weights maps each category to its average normalized significance.
	Weights map[string]float64 `json:"weights"`
}

// ElectionResult is everything produced by one tally run.
type ElectionResult struct {
	// ID uniquely identifies this run (a UUID).
	ID string `json:"id"`

	Ballots    int      `json:"ballots"`
	Categories []string `json:"categories"`

	Overall Resolution `json:"overall"`

	// PerCategory holds one resolution per category in category order.
	PerCategory []Resolution `json:"per_category"`

	Significance SignificanceReport `json:"significance"`

	Timestamp time.Time `json:"timestamp"`
}

// Resolver decides a winner from a pairwise tally. Implementations define
// their own tie-break policy for elections without an undefeated candidate.
type Resolver interface {
	// Resolve returns the resolution for the named context. candidates
	// restricts the universe considered; callers normally pass Candidates().
	Resolve(context string, tally Tally, candidates []Candidate) (Resolution, error)
}

// CandidatePtr returns a pointer to a copy of c, for optional fields.
func CandidatePtr(c Candidate) *Candidate { return &c }
