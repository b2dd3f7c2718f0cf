package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-ballot/internal/domain"
)

func resolutionFor(name string, winner domain.Candidate) domain.Resolution {
	return domain.Resolution{Context: name, Outcome: domain.OutcomeCondorcet, Winner: winner}
}

func TestContextMergeStrategy_UnionsContexts(t *testing.T) {
	base := domain.With(domain.NewState(), domain.KeyExecutionID, "run")

	overall := domain.WithEntry(base, domain.KeyResolutions, domain.ContextOverall, resolutionFor(domain.ContextOverall, domain.CandidateA))
	overall = domain.WithEntry(overall, domain.KeyTallies, domain.ContextOverall, domain.Tally{})

	taste := domain.WithEntry(base, domain.KeyResolutions, "Taste", resolutionFor("Taste", domain.CandidateC))
	taste = domain.WithEntry(taste, domain.KeyRankings, "Taste", []domain.Ranking{})

	report := &domain.SignificanceReport{Categories: []string{"Taste"}, Weights: map[string]float64{"Taste": 1}}
	significance := domain.With(base, domain.KeySignificance, report)

	merged, err := ContextMergeStrategy{}.Merge(base, []domain.State{overall, taste, significance})
	require.NoError(t, err)

	resolutions, ok := domain.Get(merged, domain.KeyResolutions)
	require.True(t, ok)
	assert.Len(t, resolutions, 2)
	assert.Equal(t, domain.CandidateA, resolutions[domain.ContextOverall].Winner)
	assert.Equal(t, domain.CandidateC, resolutions["Taste"].Winner)

	_, ok = domain.GetEntry(merged, domain.KeyTallies, domain.ContextOverall)
	assert.True(t, ok)
	_, ok = domain.GetEntry(merged, domain.KeyRankings, "Taste")
	assert.True(t, ok)

	got, ok := domain.Get(merged, domain.KeySignificance)
	require.True(t, ok)
	assert.Same(t, report, got)

	id, _ := domain.Get(merged, domain.KeyExecutionID)
	assert.Equal(t, "run", id)
}

func TestContextMergeStrategy_Conflict(t *testing.T) {
	base := domain.NewState()
	first := domain.WithEntry(base, domain.KeyResolutions, "Taste", resolutionFor("Taste", domain.CandidateA))
	second := domain.WithEntry(base, domain.KeyResolutions, "Taste", resolutionFor("Taste", domain.CandidateB))

	_, err := ContextMergeStrategy{}.Merge(base, []domain.State{first, second})
	assert.ErrorIs(t, err, ErrMergeConflict)
}

func TestContextMergeStrategy_InheritedEntriesAreNotConflicts(t *testing.T) {
	base := domain.WithEntry(domain.NewState(), domain.KeyTallies, "Price", domain.Tally{})

	first := domain.WithEntry(base, domain.KeyTallies, "Taste", domain.Tally{})
	second := domain.WithEntry(base, domain.KeyTallies, "Texture", domain.Tally{})

	merged, err := ContextMergeStrategy{}.Merge(base, []domain.State{first, second})
	require.NoError(t, err)

	tallies, _ := domain.Get(merged, domain.KeyTallies)
	assert.Len(t, tallies, 3)
}

func TestContextMergeStrategy_NoStates(t *testing.T) {
	base := domain.With(domain.NewState(), domain.KeyExecutionID, "run")
	merged, err := ContextMergeStrategy{}.Merge(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base.Keys(), merged.Keys())
}
