package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"newssignal/backend-go/internal/logging"
	"newssignal/backend-go/internal/store"
)

var flagTimeout time.Duration

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion cycle and print the report as JSON",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().DurationVar(&flagTimeout, "timeout", 2*time.Minute, "overall deadline for the cycle")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	st := store.New()
	pipeline := buildPipeline(cfg, st, logger)

	arch, err := openArchive(ctx, cfg)
	if err != nil {
		logger.Error("archive unavailable", "error", err)
	}
	if arch != nil {
		defer arch.Close()
		pipeline.WithArchive(arch)
	}

	report := pipeline.RunOnce(ctx)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
