package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahrav/go-ballot/internal/application"
)

// validateCmd checks a configuration file without reading any ballots.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an election config file",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		return fmt.Errorf("validate requires --config or %s", envConfig)
	}

	loader, err := application.NewConfigLoader()
	if err != nil {
		return err
	}
	cfg, err := loader.LoadFromFile(cmd.Context(), configPath)
	if err != nil {
		logger.Error("Config rejected", zap.String("path", configPath), zap.Error(err))
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: valid (version %s)\n", configPath, cfg.Version)
	fmt.Fprintf(out, "  election: %s\n", cfg.Metadata.Name)
	if len(cfg.Contexts.Categories) > 0 {
		fmt.Fprintf(out, "  categories: %v\n", cfg.Contexts.Categories)
	} else {
		fmt.Fprintln(out, "  categories: all")
	}
	fmt.Fprintf(out, "  weakest link: %s\n", cfg.Resolver.WeakestLink)
	return nil
}
