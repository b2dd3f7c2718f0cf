package testutils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/ahrav/go-ballot/infrastructure/ballots"
	"github.com/ahrav/go-ballot/internal/domain"
)

// BallotDataset is a generated election together with a description of how
// it was produced.
type BallotDataset struct {
	// Ballots holds every generated ballot in order.
	Ballots []domain.Ballot `json:"ballots"`

	// Metadata provides information about the dataset itself.
	Metadata DatasetMetadata `json:"metadata"`
}

// DatasetMetadata describes a generated dataset.
type DatasetMetadata struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Source      string   `json:"source"`
	Description string   `json:"description"`
	Seed        int64    `json:"seed"`
	Size        int      `json:"ballot_count"`
	Categories  []string `json:"categories"`
}

// DatasetStatistics summarizes the score distribution of a dataset.
type DatasetStatistics struct {
	TotalBallots int
	Categories   int

	// MeanScore and ScoreStdDev are indexed by domain.Candidate and pool
	// every category.
	MeanScore   [domain.NumCandidates]float64
	ScoreStdDev [domain.NumCandidates]float64

	// MeanSignificance is the average raw significance per category.
	MeanSignificance map[string]float64
}

// ComputeDatasetStatistics calculates summary statistics for ballots.
func ComputeDatasetStatistics(dataset *BallotDataset) *DatasetStatistics {
	out := &DatasetStatistics{
		TotalBallots:     len(dataset.Ballots),
		MeanSignificance: make(map[string]float64),
	}
	categories := domain.CategoriesOf(dataset.Ballots)
	out.Categories = len(categories)

	var scores [domain.NumCandidates]stats.Float64Data
	significance := make(map[string]stats.Float64Data, len(categories))
	for _, b := range dataset.Ballots {
		for _, category := range b.Categories {
			entry := b.Entries[category]
			significance[category] = append(significance[category], entry.Significance)
			for c, s := range entry.Scores {
				scores[c] = append(scores[c], s)
			}
		}
	}

	for c := range scores {
		// Errors only signal empty input, which leaves the zero value.
		out.MeanScore[c], _ = stats.Mean(scores[c])
		out.ScoreStdDev[c], _ = stats.StandardDeviation(scores[c])
	}
	for _, category := range categories {
		out.MeanSignificance[category], _ = stats.Mean(significance[category])
	}
	return out
}

// WriteCSV renders ballots in the block layout read by ballots.CSVSource.
// Each block is a "Ballot N" header row padded to layout.HeaderRows, one
// row per category and blank rows up to layout.BlockSize.
func WriteCSV(w io.Writer, dataset *BallotDataset, layout ballots.Layout) error {
	if err := layout.Validate(); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	for i, b := range dataset.Ballots {
		if len(b.Categories) != layout.CategoryRows {
			return fmt.Errorf("ballot %s has %d categories, layout expects %d",
				b.ID, len(b.Categories), layout.CategoryRows)
		}

		written := 0
		for h := range layout.HeaderRows {
			header := ""
			if h == 0 {
				header = fmt.Sprintf("Ballot %d", i+1)
			}
			if err := cw.Write([]string{header}); err != nil {
				return err
			}
			written++
		}
		for _, category := range b.Categories {
			if err := cw.Write(categoryRecord(category, b.Entries[category])); err != nil {
				return err
			}
			written++
		}
		for ; written < layout.BlockSize; written++ {
			if err := cw.Write([]string{""}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func categoryRecord(category string, entry domain.CategoryEntry) []string {
	record := make([]string, 0, 2+domain.NumCandidates)
	record = append(record, category, formatNumber(entry.Significance))
	for _, s := range entry.Scores {
		record = append(record, formatNumber(s))
	}
	return record
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SaveBallotDataset writes dataset as CSV to path, creating parent
// directories as needed.
func SaveBallotDataset(dataset *BallotDataset, path string, layout ballots.Layout) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, dataset, layout); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return f.Close()
}
