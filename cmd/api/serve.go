package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"newssignal/backend-go/internal/handlers"
	internalhttp "newssignal/backend-go/internal/http"
	"newssignal/backend-go/internal/ingest"
	"newssignal/backend-go/internal/logging"
	"newssignal/backend-go/internal/services"
	"newssignal/backend-go/internal/store"
)

const janitorInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with background ingestion",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New()
	cache := services.NewCache(cfg, logger)
	pipeline := buildPipeline(cfg, st, logger)

	var summarizer services.Summarizer
	if cfg.SummarizerEnabled() {
		summarizer = services.NewLLMSummarizer(cfg)
	}

	api := handlers.New(cfg, st, cache, summarizer, pipeline, logger).WithVersion(version)
	if rc, ok := cache.(*services.RedisCache); ok {
		api.WithCheck("redis", rc.Ping)
		defer rc.Close()
	}

	arch, err := openArchive(ctx, cfg)
	if err != nil {
		logger.Error("archive unavailable, continuing in memory only", "error", err)
	}
	if arch != nil {
		defer arch.Close()
		n, err := hydrate(ctx, arch, st, cfg.Retention)
		if err != nil {
			logger.Error("archive hydrate failed", "error", err)
		} else {
			logger.Info("store hydrated from archive", "articles", n)
		}
		pipeline.WithArchive(arch)
		api.WithCheck("archive", arch.Ping)
	}

	pipeline.Start(ctx)
	defer pipeline.Stop()
	go ingest.RunJanitor(ctx, st, janitorInterval, cfg.Retention, logger.With("component", "janitor"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           internalhttp.NewRouter(cfg, api, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("news engine listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
