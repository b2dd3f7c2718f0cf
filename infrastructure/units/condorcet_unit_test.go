package units

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-ballot/internal/domain"
)

var (
	ca = domain.CandidateA
	cb = domain.CandidateB
	cc = domain.CandidateC
	cd = domain.CandidateD
)

func resolve(t *testing.T, policy WeakestLinkPolicy, tally domain.Tally) domain.Resolution {
	t.Helper()
	res, err := NewCondorcetResolver(policy).Resolve("test", tally, domain.Candidates())
	require.NoError(t, err)
	return res
}

func TestResolve_CondorcetWinner(t *testing.T) {
	tally := BuildTally(rankAll(t, tasteBallots(), "Taste"))
	res := resolve(t, WeakestLinkPairwise, tally)

	assert.Equal(t, domain.OutcomeCondorcet, res.Outcome)
	assert.Equal(t, ca, res.Winner)
	assert.Equal(t, []domain.Candidate{ca}, res.SchwartzSet)
	assert.Equal(t, 1.0, res.Margin)
	assert.Equal(t, domain.MarginBallots, res.MarginUnit)
	require.NotNil(t, res.RunnerUp)
	assert.Equal(t, cb, *res.RunnerUp, "first candidate reaching the minimum margin is runner-up")

	defeats := res.Defeats()
	require.Len(t, defeats, 3)
	assert.Equal(t, cb, *defeats[0].Candidate)
	assert.Equal(t, ca, *defeats[0].By)
	assert.Equal(t, 1.0, defeats[0].Margin)
	assert.Equal(t, cd, *defeats[2].Candidate)
	assert.Equal(t, 3.0, defeats[2].Margin)
}

func TestResolve_BeatsEveryoneWinsWithMinMargin(t *testing.T) {
	var tally domain.Tally
	for i := 0; i < 5; i++ {
		tally.Record(cc, ca, 1, 0)
	}
	for i := 0; i < 2; i++ {
		tally.Record(cc, cb, 1, 0)
	}
	for i := 0; i < 4; i++ {
		tally.Record(cc, cd, 1, 0)
	}

	res := resolve(t, WeakestLinkPairwise, tally)
	assert.Equal(t, cc, res.Winner)
	assert.Equal(t, 2.0, res.Margin)
	require.NotNil(t, res.RunnerUp)
	assert.Equal(t, cb, *res.RunnerUp)
}

func TestResolve_TwoWayTieUsesScoreDifferential(t *testing.T) {
	// Equal head-to-head record between a and b, but a's wins were wider.
	ballots := []domain.Ballot{
		ballot("1", map[string]scores{"Taste": {1, 10, 3, 2, 1}}, "Taste"),
		ballot("2", map[string]scores{"Taste": {1, 6, 8, 2, 1}}, "Taste"),
	}
	tally := BuildTally(rankAll(t, ballots, "Taste"))
	require.Equal(t, 0, tally.Count(ca, cb))
	require.InDelta(t, 5.0, tally.Diff(ca, cb), 1e-12)

	res := resolve(t, WeakestLinkPairwise, tally)
	assert.Equal(t, domain.OutcomeScoreTiebreak, res.Outcome)
	assert.Equal(t, []domain.Candidate{ca, cb}, res.SchwartzSet)
	assert.Equal(t, ca, res.Winner)
	assert.Equal(t, 5.0, res.Margin)
	assert.Equal(t, domain.MarginPoints, res.MarginUnit)
	require.NotNil(t, res.RunnerUp)
	assert.Equal(t, cb, *res.RunnerUp)
}

func TestResolve_TwoWayTieSecondCandidateWins(t *testing.T) {
	var tally domain.Tally
	tally.Record(cb, cc, 9, 1)
	tally.Record(cc, cb, 5, 4)
	tally.Record(cb, ca, 1, 0)
	tally.Record(cc, cd, 1, 0)

	res := resolve(t, WeakestLinkPairwise, tally)
	require.Equal(t, []domain.Candidate{cb, cc}, res.SchwartzSet)
	assert.Equal(t, cb, res.Winner)
	assert.Equal(t, 7.0, res.Margin)

	// A zero differential falls through to the second candidate.
	var even domain.Tally
	even.Record(cb, cc, 2, 1)
	even.Record(cc, cb, 2, 1)
	even.Record(cb, ca, 1, 0)
	even.Record(cc, cd, 1, 0)

	res = resolve(t, WeakestLinkPairwise, even)
	assert.Equal(t, cc, res.Winner)
	assert.Equal(t, 0.0, res.Margin)
}

func TestResolve_ThreeWayTie(t *testing.T) {
	var tally domain.Tally
	tally.Record(ca, cb, 4, 1)
	tally.Record(cb, ca, 2, 1)
	tally.Record(cb, cc, 5, 1)
	tally.Record(cc, cb, 2, 1)
	tally.Record(ca, cc, 3, 2)
	tally.Record(cc, ca, 9, 1)
	tally.Record(ca, cd, 1, 0)

	res := resolve(t, WeakestLinkPairwise, tally)
	assert.Equal(t, []domain.Candidate{ca, cb, cc}, res.SchwartzSet)
	assert.Equal(t, domain.OutcomeCycleBreak, res.Outcome)

	// Weakest link is (a, c) at -7; a beats no other tied candidate, so c wins.
	assert.Equal(t, cc, res.Winner)
	assert.Equal(t, 7.0, res.Margin)
	require.NotNil(t, res.RunnerUp)
	assert.Equal(t, ca, *res.RunnerUp)
}

// fullCycle builds a > b > c > a with everyone beating d, so no candidate
// is undefeated.
func fullCycle() domain.Tally {
	var tally domain.Tally
	tally.Record(ca, cb, 5, 0)
	tally.Record(cb, cc, 3, 0)
	tally.Record(cc, ca, 1, 0)
	tally.Record(ca, cd, 2, 0)
	tally.Record(cb, cd, 2, 0)
	tally.Record(cc, cd, 2, 0)
	return tally
}

func TestResolve_FullCyclePairwise(t *testing.T) {
	res := resolve(t, WeakestLinkPairwise, fullCycle())

	assert.Empty(t, res.SchwartzSet)
	assert.Len(t, res.Defeats(), 4)
	assert.Equal(t, domain.OutcomeCycleBreak, res.Outcome)

	// Weakest link is (b, a) at -5; b beats c, so b wins.
	assert.Equal(t, cb, res.Winner)
	assert.Equal(t, 5.0, res.Margin)
	require.NotNil(t, res.RunnerUp)
	assert.Equal(t, ca, *res.RunnerUp)

	var link domain.TraceEntry
	for _, e := range res.Trace {
		if e.Kind == domain.TraceWeakestLink {
			link = e
		}
	}
	require.NotNil(t, link.Candidate)
	assert.Equal(t, cb, *link.Candidate)
	assert.Equal(t, ca, *link.By)
	assert.Equal(t, -5.0, link.Margin)
}

func TestResolve_FullCycleLegacy(t *testing.T) {
	res := resolve(t, WeakestLinkLegacy, fullCycle())

	// d loses to everyone and is dropped before the search. Over {a, b, c}
	// the legacy search ends on (c, c) with differential -3, and c wins
	// because it beats a.
	assert.Equal(t, cc, res.Winner)
	assert.Equal(t, 3.0, res.Margin)
	assert.Nil(t, res.RunnerUp)

	var last domain.TraceEntry
	for _, e := range res.Trace {
		if e.Kind == domain.TraceCycleWinner {
			last = e
		}
	}
	assert.Equal(t, []domain.Candidate{ca, cb, cc}, last.Members)
}

// cycleOverLoser builds a > b > c > a where every one of them beats d, a
// by dMargin points and b and c by 10.
func cycleOverLoser(dMargin float64) domain.Tally {
	var tally domain.Tally
	tally.Record(ca, cb, 2, 0)
	tally.Record(cb, cc, 1, 0)
	tally.Record(cc, ca, 3, 0)
	tally.Record(ca, cd, dMargin, 0)
	tally.Record(cb, cd, 10, 0)
	tally.Record(cc, cd, 10, 0)
	return tally
}

func TestResolve_CycleIgnoresCondorcetLoser(t *testing.T) {
	cycleOnly, err := NewCondorcetResolver(WeakestLinkPairwise).Resolve("test", cycleOverLoser(10), []domain.Candidate{ca, cb, cc})
	require.NoError(t, err)
	require.Equal(t, ca, cycleOnly.Winner)

	for _, dMargin := range []float64{1, 10, 11, 50} {
		for _, policy := range []WeakestLinkPolicy{WeakestLinkPairwise, WeakestLinkLegacy} {
			res := resolve(t, policy, cycleOverLoser(dMargin))
			assert.Empty(t, res.SchwartzSet)
			assert.NotEqual(t, cd, res.Winner, "policy %s, d margin %g", policy, dMargin)
			assert.Equal(t, ca, res.Winner, "policy %s, d margin %g", policy, dMargin)
			assert.Equal(t, 3.0, res.Margin)
		}
	}
}

func TestTopCycle(t *testing.T) {
	assert.Equal(t, []domain.Candidate{ca, cb, cc}, topCycle(fullCycle(), domain.Candidates()))

	// A four-way cycle keeps everyone.
	var four domain.Tally
	four.Record(ca, cb, 1, 0)
	four.Record(cb, cc, 1, 0)
	four.Record(cc, cd, 1, 0)
	four.Record(cd, ca, 1, 0)
	assert.Equal(t, domain.Candidates(), topCycle(four, domain.Candidates()))

	// d beats a but loses to b and c, so all four lie on one cycle.
	var chain domain.Tally
	chain.Record(ca, cb, 1, 0)
	chain.Record(cb, cc, 1, 0)
	chain.Record(cc, ca, 1, 0)
	chain.Record(cd, ca, 1, 0)
	chain.Record(cb, cd, 1, 0)
	chain.Record(cc, cd, 1, 0)
	assert.Equal(t, domain.Candidates(), topCycle(chain, domain.Candidates()))

	var zero domain.Tally
	assert.Equal(t, domain.Candidates(), topCycle(zero, domain.Candidates()))
}

func TestResolve_CarriesPairwiseTable(t *testing.T) {
	tally := BuildTally(rankAll(t, tasteBallots(), "Taste"))
	res := resolve(t, WeakestLinkPairwise, tally)

	assert.Equal(t, 3, res.Ballots)
	require.Len(t, res.Pairwise, 12)
	assert.Equal(t, ca, res.Pairwise[0].For)
	assert.Equal(t, cb, res.Pairwise[0].Against)
	assert.Equal(t, 1, res.Pairwise[0].Count)
}

func TestResolve_AllTied(t *testing.T) {
	var zero domain.Tally

	res := resolve(t, WeakestLinkPairwise, zero)
	assert.Len(t, res.SchwartzSet, 4)
	assert.Equal(t, cc, res.Winner, "last examined pair (d, c) is the weakest link")

	res = resolve(t, WeakestLinkLegacy, zero)
	assert.Equal(t, cd, res.Winner, "legacy pair is (a, d)")
}

func TestResolve_NeverFailsOnWellFormedInput(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	categories := []string{"Taste", "Texture", "Aroma"}

	for round := 0; round < 200; round++ {
		ballots := randomBallots(rng, 3+rng.Intn(12), categories)
		for _, scoringContext := range append([]string{domain.ContextOverall}, categories...) {
			tally := BuildTally(rankAll(t, ballots, scoringContext))
			for _, policy := range []WeakestLinkPolicy{WeakestLinkPairwise, WeakestLinkLegacy} {
				res, err := NewCondorcetResolver(policy).Resolve(scoringContext, tally, domain.Candidates())
				require.NoError(t, err)
				assert.True(t, res.Winner.Valid())
				assert.NotEmpty(t, res.Outcome)
				assert.GreaterOrEqual(t, res.Margin, 0.0)
			}
		}
	}
}

func TestResolve_CandidateUniverse(t *testing.T) {
	r := NewCondorcetResolver("")

	_, err := r.Resolve("x", domain.Tally{}, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = r.Resolve("x", domain.Tally{}, []domain.Candidate{ca, ca})
	assert.ErrorIs(t, err, ErrDuplicateCandidate)

	_, err = r.Resolve("x", domain.Tally{}, []domain.Candidate{domain.Candidate(9)})
	assert.ErrorIs(t, err, domain.ErrUnknownCandidate)

	res, err := r.Resolve("x", domain.Tally{}, []domain.Candidate{cb})
	require.NoError(t, err)
	assert.Equal(t, cb, res.Winner)
	assert.Nil(t, res.RunnerUp)
	assert.Equal(t, 0.0, res.Margin)
}

func TestCondorcetUnit_Execute(t *testing.T) {
	unit, err := NewCondorcetFromConfig("resolve_taste", map[string]any{"context": "Taste"})
	require.NoError(t, err)

	tally := BuildTally(rankAll(t, tasteBallots(), "Taste"))
	state := domain.WithEntry(domain.NewState(), domain.KeyTallies, "Taste", tally)

	out, err := unit.Execute(context.Background(), state)
	require.NoError(t, err)

	res, ok := domain.GetEntry(out, domain.KeyResolutions, "Taste")
	require.True(t, ok)
	assert.Equal(t, "Taste", res.Context)
	assert.Equal(t, ca, res.Winner)

	_, err = unit.Execute(context.Background(), domain.NewState())
	assert.ErrorIs(t, err, domain.ErrContextNotFound)
}

func TestCondorcetConfig(t *testing.T) {
	t.Run("legacy policy", func(t *testing.T) {
		unit, err := NewCondorcetFromConfig("r", map[string]any{"weakest_link": "legacy"})
		require.NoError(t, err)
		assert.Equal(t, WeakestLinkLegacy, unit.(*CondorcetUnit).config.WeakestLink)
	})

	t.Run("unknown policy", func(t *testing.T) {
		_, err := NewCondorcetFromConfig("r", map[string]any{"weakest_link": "schulze"})
		assert.Error(t, err)
	})

	t.Run("default", func(t *testing.T) {
		cfg := DefaultCondorcetConfig()
		assert.Equal(t, domain.ContextOverall, cfg.Context)
		assert.Equal(t, WeakestLinkPairwise, cfg.WeakestLink)
	})
}

func TestCondorcetConfig_Candidates(t *testing.T) {
	unit, err := NewCondorcetFromConfig("r", map[string]any{
		"context":    "Taste",
		"candidates": []string{"b", "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Candidate{cb, cc}, unit.(*CondorcetUnit).config.Candidates)

	tally := BuildTally(rankAll(t, tasteBallots(), "Taste"))
	out, err := unit.Execute(context.Background(), domain.WithEntry(domain.NewState(), domain.KeyTallies, "Taste", tally))
	require.NoError(t, err)

	res, ok := domain.GetEntry(out, domain.KeyResolutions, "Taste")
	require.True(t, ok)
	assert.NotContains(t, []domain.Candidate{ca, cd}, res.Winner)

	_, err = NewCondorcetFromConfig("r", map[string]any{"candidates": []string{"a", "e"}})
	assert.Error(t, err)

	_, err = NewCondorcetFromConfig("r", map[string]any{"candidates": []string{"a", "a"}})
	assert.Error(t, err)
}
