// Command ballot tallies multi-criteria score ballots with a Condorcet
// count per scoring category.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	envConfig = "BALLOT_CONFIG"
	envInput  = "BALLOT_INPUT"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ballot",
	Short: "Condorcet tally for multi-criteria score ballots",
	Long: `ballot reads blocks of per-category scores for four candidates,
ranks them per ballot and names a Condorcet winner for the overall
score and for every category.

Configuration comes from --config, or from BALLOT_CONFIG in the
environment or a .env file in the working directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is the normal case.
		_ = godotenv.Load()

		if configPath == "" {
			configPath = os.Getenv(envConfig)
		}

		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Election config file (or set BALLOT_CONFIG)")

	tallyCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Ballot file (or set BALLOT_INPUT)")
	tallyCmd.Flags().StringVarP(&inputFormat, "input-format", "t", "", "Ballot file format: csv or xlsx (default: from extension)")
	tallyCmd.Flags().StringSliceVar(&sheets, "sheet", nil, "Workbook sheet to read, repeatable (xlsx only)")
	tallyCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Report format: text or json")
	tallyCmd.Flags().IntVar(&precision, "precision", -1, "Decimal places for category weightings")
	tallyCmd.Flags().StringVar(&metricsPath, "metrics-file", "", "Write Prometheus metrics in text format to this file")

	rootCmd.AddCommand(tallyCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
