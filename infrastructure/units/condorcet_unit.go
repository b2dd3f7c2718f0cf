package units

import (
	"context"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/ports"
)

var (
	_ ports.Unit      = (*CondorcetUnit)(nil)
	_ domain.Resolver = (*CondorcetResolver)(nil)
)

// CondorcetResolver names a winner from a pairwise tally.
//
// Algorithm:
//  1. A candidate is defeated when another candidate has a positive count
//     against it. The undefeated candidates form the Schwartz set. This is
//     a single direct pass with no transitive closure.
//  2. One undefeated candidate wins outright. The margin is its smallest
//     count against any other candidate and that candidate is runner-up.
//  3. Two undefeated candidates are separated by score differential: the
//     first (in candidate order) wins if its differential against the
//     second is positive, otherwise the second wins.
//  4. Three or more undefeated candidates, or none at all, are separated by
//     the weakest link: the pair with the smallest score differential. If
//     the pair's first candidate beats any remaining candidate it wins,
//     otherwise the pair's second candidate wins. When every candidate is
//     defeated the search runs over the top cycle: the candidates that can
//     reach, through a chain of defeats, every candidate that reaches them.
//     A candidate beaten by all others is never part of it.
//
// Step 4 is exact only for three-way ties; larger cycles get a plausible
// winner that a full minimax or Schulze count might not agree with.
type CondorcetResolver struct {
	policy WeakestLinkPolicy
}

// NewCondorcetResolver creates a resolver using policy for step 4. An empty
// policy selects WeakestLinkPairwise.
func NewCondorcetResolver(policy WeakestLinkPolicy) *CondorcetResolver {
	if policy == "" {
		policy = WeakestLinkPairwise
	}
	return &CondorcetResolver{policy: policy}
}

// Resolve implements domain.Resolver. The order of candidates is the
// tie-break order; callers normally pass domain.Candidates().
func (r *CondorcetResolver) Resolve(
	scoringContext string,
	tally domain.Tally,
	candidates []domain.Candidate,
) (domain.Resolution, error) {
	if err := checkUniverse(candidates); err != nil {
		return domain.Resolution{}, err
	}

	res := domain.Resolution{
		Context:  scoringContext,
		Ballots:  tally.Ballots(),
		Pairwise: tally.Pairs(),
	}

	schwartz := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		defeated := false
		for _, other := range candidates {
			if other == c {
				continue
			}
			if margin := tally.Count(other, c); margin > 0 {
				res.Trace = append(res.Trace, domain.TraceEntry{
					Kind:      domain.TraceDefeated,
					Candidate: domain.CandidatePtr(c),
					By:        domain.CandidatePtr(other),
					Margin:    float64(margin),
				})
				defeated = true
				break
			}
		}
		if !defeated {
			schwartz = append(schwartz, c)
		}
	}
	res.SchwartzSet = schwartz
	res.Trace = append(res.Trace, domain.TraceEntry{
		Kind:    domain.TraceSchwartzSet,
		Members: append([]domain.Candidate(nil), schwartz...),
	})

	switch len(schwartz) {
	case 1:
		r.resolveCondorcet(&res, tally, candidates)
	case 2:
		r.resolveTwoWay(&res, tally)
	default:
		members := schwartz
		if len(members) == 0 {
			members = topCycle(tally, candidates)
		}
		r.resolveCycle(&res, tally, members)
	}
	return res, nil
}

func (r *CondorcetResolver) resolveCondorcet(res *domain.Resolution, tally domain.Tally, candidates []domain.Candidate) {
	winner := res.SchwartzSet[0]
	res.Outcome = domain.OutcomeCondorcet
	res.Winner = winner
	res.MarginUnit = domain.MarginBallots

	mov := math.Inf(1)
	for _, other := range candidates {
		if other == winner {
			continue
		}
		if m := float64(tally.Count(winner, other)); m < mov {
			mov = m
			res.RunnerUp = domain.CandidatePtr(other)
		}
	}
	if res.RunnerUp == nil {
		mov = 0
	}
	res.Margin = mov

	entry := domain.TraceEntry{
		Kind:      domain.TraceCondorcetWin,
		Candidate: domain.CandidatePtr(winner),
		Margin:    mov,
	}
	if res.RunnerUp != nil {
		entry.By = domain.CandidatePtr(*res.RunnerUp)
	}
	res.Trace = append(res.Trace, entry)
}

func (r *CondorcetResolver) resolveTwoWay(res *domain.Resolution, tally domain.Tally) {
	first, second := res.SchwartzSet[0], res.SchwartzSet[1]
	diff := tally.Diff(first, second)

	winner, loser := second, first
	if diff > 0 {
		winner, loser = first, second
	}

	res.Outcome = domain.OutcomeScoreTiebreak
	res.Winner = winner
	res.RunnerUp = domain.CandidatePtr(loser)
	res.Margin = math.Abs(diff)
	res.MarginUnit = domain.MarginPoints
	res.Trace = append(res.Trace, domain.TraceEntry{
		Kind:      domain.TraceTiebreak,
		Candidate: domain.CandidatePtr(winner),
		By:        domain.CandidatePtr(loser),
		Margin:    res.Margin,
	})
}

func (r *CondorcetResolver) resolveCycle(res *domain.Resolution, tally domain.Tally, members []domain.Candidate) {
	var first, second domain.Candidate
	var weakest float64
	if r.policy == WeakestLinkLegacy {
		first, second, weakest = legacyWeakestLink(tally, members)
	} else {
		first, second, weakest = pairwiseWeakestLink(tally, members)
	}
	res.Trace = append(res.Trace, domain.TraceEntry{
		Kind:      domain.TraceWeakestLink,
		Candidate: domain.CandidatePtr(first),
		By:        domain.CandidatePtr(second),
		Margin:    weakest,
	})

	winner := second
	for _, c := range members {
		if c == first || c == second {
			continue
		}
		if tally.Count(first, c) > 0 {
			winner = first
			break
		}
	}

	res.Outcome = domain.OutcomeCycleBreak
	res.Winner = winner
	res.Margin = math.Abs(weakest)
	res.MarginUnit = domain.MarginPoints
	if first != second {
		if winner == first {
			res.RunnerUp = domain.CandidatePtr(second)
		} else {
			res.RunnerUp = domain.CandidatePtr(first)
		}
	}
	res.Trace = append(res.Trace, domain.TraceEntry{
		Kind:      domain.TraceCycleWinner,
		Candidate: domain.CandidatePtr(winner),
		Members:   append([]domain.Candidate(nil), members...),
	})
}

// topCycle returns the members of candidates not dominated through a chain
// of defeats: X is kept unless some Y reaches X while X cannot reach Y.
// The result is never empty for a non-empty candidate set.
func topCycle(tally domain.Tally, candidates []domain.Candidate) []domain.Candidate {
	var reach [domain.NumCandidates][domain.NumCandidates]bool
	for _, x := range candidates {
		for _, y := range candidates {
			if x != y && tally.Count(x, y) > 0 {
				reach[x][y] = true
			}
		}
	}
	for _, k := range candidates {
		for _, i := range candidates {
			for _, j := range candidates {
				if reach[i][k] && reach[k][j] {
					reach[i][j] = true
				}
			}
		}
	}

	out := make([]domain.Candidate, 0, len(candidates))
	for _, x := range candidates {
		dominated := false
		for _, y := range candidates {
			if y != x && reach[y][x] && !reach[x][y] {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, x)
		}
	}
	return out
}

// pairwiseWeakestLink returns the ordered pair of distinct members with the
// smallest score differential. Equal minima resolve to the pair examined
// last.
func pairwiseWeakestLink(tally domain.Tally, members []domain.Candidate) (domain.Candidate, domain.Candidate, float64) {
	minDiff := math.Inf(1)
	var first, second domain.Candidate
	for _, x := range members {
		for _, y := range members {
			if x == y {
				continue
			}
			if d := tally.Diff(x, y); d <= minDiff {
				minDiff, first, second = d, x, y
			}
		}
	}
	return first, second, minDiff
}

// legacyWeakestLink reproduces the historical search. For each member x the
// differential compared against the running minimum is the one against the
// last distinct member visited, while the pair recorded is x together with
// the last member of the set, which is x itself for the final member.
func legacyWeakestLink(tally domain.Tally, members []domain.Candidate) (domain.Candidate, domain.Candidate, float64) {
	minDiff := math.Inf(1)
	var first, second domain.Candidate
	var diff float64
	for _, x := range members {
		var last domain.Candidate
		for _, y := range members {
			last = y
			if x == y {
				continue
			}
			diff = tally.Diff(x, y)
		}
		if diff < minDiff {
			minDiff, first, second = diff, x, last
		}
	}
	return first, second, minDiff
}

func checkUniverse(candidates []domain.Candidate) error {
	if len(candidates) == 0 {
		return ErrNoCandidates
	}
	var seen [domain.NumCandidates]bool
	for _, c := range candidates {
		if !c.Valid() {
			return fmt.Errorf("%w: %d", domain.ErrUnknownCandidate, int(c))
		}
		if seen[c] {
			return fmt.Errorf("%w: %s", ErrDuplicateCandidate, c)
		}
		seen[c] = true
	}
	return nil
}

// CondorcetUnit resolves the tally stored for its context.
//
// State Requirements:
//   - domain.KeyTallies[context]
//
// State Updates:
//   - domain.KeyResolutions[context]
type CondorcetUnit struct {
	name     string
	config   CondorcetConfig
	resolver *CondorcetResolver
}

// CondorcetConfig configures a CondorcetUnit.
type CondorcetConfig struct {
	// Context is the scoring context whose tally is resolved.
	Context string `yaml:"context" json:"context" validate:"required"`

	// WeakestLink selects the cycle-break search. Default: "pairwise".
	WeakestLink WeakestLinkPolicy `yaml:"weakest_link" json:"weakest_link" validate:"required,oneof=pairwise legacy"`

	// Candidates restricts the universe considered. Empty means all four.
	Candidates []domain.Candidate `yaml:"candidates,omitempty" json:"candidates,omitempty" validate:"max=4,unique"`
}

// NewCondorcetUnit creates a CondorcetUnit.
func NewCondorcetUnit(name string, config CondorcetConfig) (*CondorcetUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if len(config.Candidates) > 0 {
		if err := checkUniverse(config.Candidates); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return &CondorcetUnit{
		name:     name,
		config:   config,
		resolver: NewCondorcetResolver(config.WeakestLink),
	}, nil
}

// Name returns the unit's identifier.
func (cu *CondorcetUnit) Name() string { return cu.name }

// Context returns the scoring context this unit resolves.
func (cu *CondorcetUnit) Context() string { return cu.config.Context }

// Execute resolves the context's tally over the configured candidate set.
func (cu *CondorcetUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}

	tally, ok := domain.GetEntry(state, domain.KeyTallies, cu.config.Context)
	if !ok {
		return state, fmt.Errorf("tally for %q: %w", cu.config.Context, domain.ErrContextNotFound)
	}

	universe := cu.config.Candidates
	if len(universe) == 0 {
		universe = domain.Candidates()
	}
	res, err := cu.resolver.Resolve(cu.config.Context, tally, universe)
	if err != nil {
		return state, fmt.Errorf("resolve %s: %w", cu.config.Context, err)
	}
	return domain.WithEntry(state, domain.KeyResolutions, cu.config.Context, res), nil
}

// Validate checks the unit configuration.
func (cu *CondorcetUnit) Validate() error {
	if err := validate.Struct(cu.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters replaces the configuration from a YAML node.
func (cu *CondorcetUnit) UnmarshalParameters(params yaml.Node) error {
	config := DefaultCondorcetConfig()
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	cu.config = config
	cu.resolver = NewCondorcetResolver(config.WeakestLink)
	return nil
}

// DefaultCondorcetConfig resolves the overall context with the pairwise
// weakest-link search.
func DefaultCondorcetConfig() CondorcetConfig {
	return CondorcetConfig{
		Context:     domain.ContextOverall,
		WeakestLink: WeakestLinkPairwise,
	}
}

// NewCondorcetFromConfig creates a CondorcetUnit from a configuration map.
func NewCondorcetFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultCondorcetConfig()
	if err := decodeConfigMap(config, &cfg); err != nil {
		return nil, err
	}
	return NewCondorcetUnit(id, cfg)
}
