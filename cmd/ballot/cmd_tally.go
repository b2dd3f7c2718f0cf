package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahrav/go-ballot/infrastructure/ballots"
	"github.com/ahrav/go-ballot/infrastructure/middleware"
	"github.com/ahrav/go-ballot/infrastructure/report"
	"github.com/ahrav/go-ballot/internal/application"
	"github.com/ahrav/go-ballot/internal/ports"
)

var (
	inputPath    string
	inputFormat  string
	sheets       []string
	outputFormat string
	precision    int
	metricsPath  string
)

// tallyCmd runs a full election and prints the report.
var tallyCmd = &cobra.Command{
	Use:   "tally [ballot-file]",
	Short: "Tally a ballot file and print the winners",
	Long: `Tally loads the ballots, resolves the overall context and each
category, then prints every winner with its margin, runner-up and the
steps taken to reach it, followed by the average category weightings.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTally,
}

func runTally(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadElectionConfig(ctx)
	if err != nil {
		return err
	}
	if err := applyTallyFlags(cfg, args); err != nil {
		return err
	}

	source, err := ballots.NewSource(cfg.Input.Format, cfg.Input.Path, cfg.Input.Sheets, cfg.Input.Layout)
	if err != nil {
		return err
	}
	writer, err := report.New(cfg.Output.Format, cmd.OutOrStdout(), cfg.Output.Precision)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	engine := application.NewEngine(cfg,
		application.WithLogger(logger),
		application.WithMetrics(middleware.NewPrometheusMetrics(registry)),
	)

	logger.Info("Starting tally",
		zap.String("election", cfg.Metadata.Name),
		zap.String("input", source.Name()))

	result, err := engine.Run(ctx, source)
	if err != nil {
		return fmt.Errorf("tally failed: %w", err)
	}
	if err := writer.Write(ctx, result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if metricsPath != "" {
		if err := writeMetrics(registry, metricsPath); err != nil {
			return err
		}
		logger.Debug("Metrics written", zap.String("path", metricsPath))
	}
	return nil
}

// loadElectionConfig reads --config when set and falls back to the
// defaults otherwise. The result is a private copy safe to modify.
func loadElectionConfig(ctx context.Context) (*application.ElectionConfig, error) {
	if configPath == "" {
		return application.DefaultElectionConfig(), nil
	}

	loader, err := application.NewConfigLoader()
	if err != nil {
		return nil, err
	}
	cfg, err := loader.LoadFromFile(ctx, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg = cfg.Clone()

	// Input paths in a config file are relative to that file.
	if cfg.Input.Path != "" && !filepath.IsAbs(cfg.Input.Path) {
		cfg.Input.Path = filepath.Join(filepath.Dir(configPath), cfg.Input.Path)
	}
	logger.Debug("Config loaded", zap.String("path", configPath), zap.String("version", cfg.Version))
	return cfg, nil
}

// applyTallyFlags layers the command line over cfg. Input precedence is the
// positional argument, then --input, then the config, then BALLOT_INPUT.
func applyTallyFlags(cfg *application.ElectionConfig, args []string) error {
	switch {
	case len(args) == 1:
		cfg.Input.Path = args[0]
	case inputPath != "":
		cfg.Input.Path = inputPath
	case cfg.Input.Path == "":
		cfg.Input.Path = os.Getenv(envInput)
	}
	if cfg.Input.Path == "" {
		return fmt.Errorf("no ballot file: pass one as an argument, with --input or in %s: %w", envInput, ports.ErrConfigNotFound)
	}

	if inputFormat != "" {
		cfg.Input.Format = inputFormat
	}
	if len(sheets) > 0 {
		cfg.Input.Sheets = sheets
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}
	if precision >= 0 {
		cfg.Output.Precision = precision
	}

	format := cfg.Input.Format
	if format == "" {
		format = ballots.FormatFromPath(cfg.Input.Path)
	}
	if len(cfg.Input.Sheets) > 0 && format != ballots.FormatXLSX {
		return fmt.Errorf("sheets require xlsx input, got %q for %s", format, cfg.Input.Path)
	}
	return nil
}

// writeMetrics dumps every family gathered from g to path in the text
// exposition format.
func writeMetrics(g prometheus.Gatherer, path string) error {
	families, err := g.Gather()
	if err != nil {
		return ports.NewMetricsError("*", "gather", err)
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer f.Close()

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return ports.NewMetricsError(mf.GetName(), "encode", err)
		}
	}
	return f.Close()
}
