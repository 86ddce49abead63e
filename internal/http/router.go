package http

import (
	"log/slog"
	"net/http"

	"newssignal/backend-go/internal/config"
	"newssignal/backend-go/internal/handlers"
)

func NewRouter(cfg config.Config, api *handlers.API, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", api.Health)
	mux.HandleFunc("/news", api.News)
	mux.HandleFunc("/news/briefing", api.Briefing)
	mux.HandleFunc("/news/alerts", api.Alerts)
	mux.HandleFunc("/news/alerts/stream", api.StreamAlerts)
	mux.HandleFunc("/news/sources", api.Sources)

	logger = logger.With("component", "http")
	h := http.Handler(mux)
	h = withRecovery(logger)(h)
	h = withLogging(logger)(h)
	h = withRequestID(h)
	h = withRateLimit(cfg.RateLimitPerMin)(h)
	h = withCORS(h)
	return h
}
