// Command generate_ballots writes a synthetic ballot file for load testing
// and demos.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ahrav/go-ballot/infrastructure/ballots"
	"github.com/ahrav/go-ballot/internal/domain"
	"github.com/ahrav/go-ballot/internal/testutils"
)

func main() {
	var (
		size       = flag.Int("size", 500, "Number of ballots to generate")
		categories = flag.String("categories", strings.Join(testutils.DefaultCategories, ","), "Comma-separated category names")
		seed       = flag.Int64("seed", 0, "Random seed (0 uses the current time)")
		outputPath = flag.String("output", "testdata/ballots/sample_ballots.csv", "Output file path")
	)
	flag.Parse()

	names := strings.Split(*categories, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	layout := ballots.DefaultLayout()
	layout.CategoryRows = len(names)
	if layout.HeaderRows+layout.CategoryRows > layout.BlockSize {
		layout.BlockSize = layout.HeaderRows + layout.CategoryRows + 1
	}

	dataset := testutils.GenerateSampleBallots(*size, names, *seed)
	if err := testutils.SaveBallotDataset(dataset, *outputPath, layout); err != nil {
		log.Fatalf("Failed to save dataset: %v", err)
	}

	stats := testutils.ComputeDatasetStatistics(dataset)

	fmt.Printf("Generated ballot dataset:\n")
	fmt.Printf("- Path: %s\n", *outputPath)
	fmt.Printf("- Seed: %d\n", *seed)
	fmt.Printf("- Layout: block_size=%d header_rows=%d category_rows=%d\n",
		layout.BlockSize, layout.HeaderRows, layout.CategoryRows)
	fmt.Printf("- Total ballots: %d\n", stats.TotalBallots)
	fmt.Printf("- Categories: %d\n", stats.Categories)
	for _, c := range domain.Candidates() {
		fmt.Printf("- Candidate %s: mean %.2f, stddev %.2f\n", c, stats.MeanScore[c], stats.ScoreStdDev[c])
	}
}
