package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newssignal/backend-go/internal/archive"
	"newssignal/backend-go/internal/config"
	"newssignal/backend-go/internal/ingest"
	"newssignal/backend-go/internal/ingest/sources"
	"newssignal/backend-go/internal/scoring"
	"newssignal/backend-go/internal/store"
)

func loadConfig() config.Config {
	cfg := config.Load()
	if flagSources != "" {
		cfg.SourcesFile = flagSources
	}
	return cfg
}

// buildPipeline registers every valid configured source. An unreadable
// sources file is logged and leaves the pipeline empty.
func buildPipeline(cfg config.Config, st *store.Store, logger *slog.Logger) *ingest.Pipeline {
	p := ingest.NewPipeline(st, scoring.NewKeyword(), logger)
	srcs, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		logger.Error("sources file ignored", "path", cfg.SourcesFile, "error", err)
		return p
	}
	opts := sources.Options{
		Timeout:   cfg.RequestTimeout,
		FailLimit: cfg.CircuitFailLimit,
		Cooldown:  cfg.CircuitCooldown,
	}
	for _, sc := range srcs {
		src, err := sources.FromConfig(sc, opts)
		if err != nil {
			logger.Error("source skipped", "source", sc.Name, "error", err)
			continue
		}
		p.AddSource(src, sc.PollInterval(cfg.DefaultPollInterval))
	}
	if len(srcs) == 0 {
		logger.Warn("no sources configured", "path", cfg.SourcesFile)
	}
	return p
}

// openArchive connects, migrates and returns nil when no DSN is set.
func openArchive(ctx context.Context, cfg config.Config) (*archive.Postgres, error) {
	if cfg.ArchiveDSN == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	arch, err := archive.Open(ctx, cfg.ArchiveDSN)
	if err != nil {
		return nil, err
	}
	if err := arch.Migrate(ctx); err != nil {
		_ = arch.Close()
		return nil, err
	}
	return arch, nil
}

// hydrate restores articles within the retention window from the archive.
func hydrate(ctx context.Context, arch *archive.Postgres, st *store.Store, retention time.Duration) (int, error) {
	articles, err := arch.LoadSince(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("hydrate store: %w", err)
	}
	for _, a := range articles {
		st.Upsert(a)
	}
	return len(articles), nil
}
