package testutils

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-ballot/infrastructure/ballots"
	"github.com/ahrav/go-ballot/internal/domain"
)

func TestGenerateSampleBallots(t *testing.T) {
	dataset := GenerateSampleBallots(50, nil, 7)

	assert.Equal(t, 50, dataset.Metadata.Size)
	assert.Equal(t, int64(7), dataset.Metadata.Seed)
	assert.Equal(t, DefaultCategories, dataset.Metadata.Categories)
	require.Len(t, dataset.Ballots, 50)

	for _, b := range dataset.Ballots {
		assert.Equal(t, DefaultCategories, b.Categories)
		for _, category := range b.Categories {
			entry := b.Entries[category]
			assert.GreaterOrEqual(t, entry.Significance, float64(MinSignificance))
			assert.LessOrEqual(t, entry.Significance, float64(MaxSignificance))
			for _, s := range entry.Scores {
				assert.GreaterOrEqual(t, s, float64(MinScore))
				assert.LessOrEqual(t, s, float64(MaxScore))
			}
		}
	}

	again := GenerateSampleBallots(50, nil, 7)
	assert.Equal(t, dataset.Ballots, again.Ballots, "same seed yields the same election")
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	dataset := GenerateSampleBallots(25, nil, 11)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, dataset, ballots.DefaultLayout()))

	source, err := ballots.NewCSVReaderSource("generated.csv", &buf, ballots.DefaultLayout())
	require.NoError(t, err)
	loaded, err := source.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, loaded, len(dataset.Ballots))
	for i := range loaded {
		assert.Equal(t, dataset.Ballots[i].Categories, loaded[i].Categories)
		assert.Equal(t, dataset.Ballots[i].Entries, loaded[i].Entries)
	}
}

func TestWriteCSV_CustomLayout(t *testing.T) {
	dataset := GenerateSampleBallots(3, []string{"Taste", "Price"}, 1)
	layout := ballots.Layout{BlockSize: 5, HeaderRows: 2, CategoryRows: 2}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, dataset, layout))
	assert.Equal(t, 15, bytes.Count(buf.Bytes(), []byte("\n")))

	source, err := ballots.NewCSVReaderSource("custom.csv", &buf, layout)
	require.NoError(t, err)
	loaded, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded, 3)
}

func TestWriteCSV_Errors(t *testing.T) {
	dataset := GenerateSampleBallots(1, []string{"Taste"}, 1)

	var buf bytes.Buffer
	err := WriteCSV(&buf, dataset, ballots.DefaultLayout())
	assert.ErrorContains(t, err, "layout expects 8")

	err = WriteCSV(&buf, dataset, ballots.Layout{BlockSize: 1, HeaderRows: 1, CategoryRows: 1})
	assert.Error(t, err)
}

func TestComputeDatasetStatistics(t *testing.T) {
	b1 := domain.NewBallot("1")
	b1.Set("Taste", domain.CategoryEntry{Significance: 2, Scores: [4]float64{1, 2, 3, 4}})
	b2 := domain.NewBallot("2")
	b2.Set("Taste", domain.CategoryEntry{Significance: 4, Scores: [4]float64{3, 2, 1, 4}})

	got := ComputeDatasetStatistics(&BallotDataset{Ballots: []domain.Ballot{b1, b2}})
	assert.Equal(t, 2, got.TotalBallots)
	assert.Equal(t, 1, got.Categories)
	assert.Equal(t, [4]float64{2, 2, 2, 4}, got.MeanScore)
	assert.InDelta(t, 1.0, got.ScoreStdDev[domain.CandidateA], 1e-12)
	assert.InDelta(t, 0.0, got.ScoreStdDev[domain.CandidateB], 1e-12)
	assert.Equal(t, 3.0, got.MeanSignificance["Taste"])

	empty := ComputeDatasetStatistics(&BallotDataset{})
	assert.Zero(t, empty.TotalBallots)
	assert.Empty(t, empty.MeanSignificance)
}

func TestSaveBallotDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ballots.csv")
	dataset := GenerateSampleBallots(4, nil, 3)
	require.NoError(t, SaveBallotDataset(dataset, path, ballots.DefaultLayout()))

	source, err := ballots.NewCSVSource(path, ballots.DefaultLayout())
	require.NoError(t, err)
	loaded, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded, 4)
}
