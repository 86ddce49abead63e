package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newssignal/backend-go/internal/config"
	"newssignal/backend-go/internal/ingest"
	"newssignal/backend-go/internal/services"
	"newssignal/backend-go/internal/store"
)

// Check probes one dependency for /health.
type Check func(ctx context.Context) error

type API struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *store.Store
	cache    services.Cache
	news     *services.NewsService
	briefing *services.BriefingService
	alerts   *services.AlertService
	pipeline *ingest.Pipeline
	checks   map[string]Check
	version  string
}

func New(cfg config.Config, st *store.Store, cache services.Cache, summarizer services.Summarizer, pipeline *ingest.Pipeline, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	news := services.NewNewsService(st)
	return &API{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		cache:    cache,
		news:     news,
		briefing: services.NewBriefingService(cfg, news, cache, summarizer, logger.With("component", "briefing")),
		alerts:   services.NewAlertService(st),
		pipeline: pipeline,
		checks:   map[string]Check{},
	}
}

// WithCheck registers a dependency probe reported by /health.
func (a *API) WithCheck(name string, c Check) *API {
	a.checks[name] = c
	return a
}

func (a *API) WithVersion(v string) *API {
	a.version = v
	return a
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func parseIntParam(v string, def int, min int, max int) int {
	if v == "" {
		return def
	}
	var out int
	_, err := fmt.Sscanf(v, "%d", &out)
	if err != nil {
		return def
	}
	if out < min {
		return min
	}
	if out > max {
		return max
	}
	return out
}

var quoteSuffixes = []string{"USDT", "USDC", "BUSD", "USD", "EUR", "TRY"}

// resolveAssetParam defaults to ALL and turns FOR_YOU plus a trading pair
// into the pair's base ticker. FOR_YOU without a pair is passed through.
func resolveAssetParam(asset, pair string) string {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	if asset == "" {
		return services.AssetAll
	}
	if asset != "FOR_YOU" {
		return asset
	}
	p := strings.ToUpper(strings.TrimSpace(pair))
	p = strings.NewReplacer("/", "", "-", "", "_", "").Replace(p)
	if p == "" {
		return asset
	}
	for _, suffix := range quoteSuffixes {
		if strings.HasSuffix(p, suffix) && len(p) > len(suffix) {
			return strings.TrimSuffix(p, suffix)
		}
	}
	return p
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
