package sources

import (
	"fmt"
	"time"

	"newssignal/backend-go/internal/config"
	"newssignal/backend-go/internal/ingest"
	"newssignal/backend-go/internal/upstream"
)

const userAgent = "newssignal/1.0"

// Options carry the outbound HTTP settings shared by all adapters.
type Options struct {
	Timeout   time.Duration
	FailLimit int
	Cooldown  time.Duration
}

// FromConfig builds the adapter named by cfg.Type.
func FromConfig(cfg config.SourceConfig, opts Options) (ingest.Source, error) {
	switch cfg.Type {
	case "rss":
		return NewRSS(cfg.Name, cfg.URL, cfg.CategoryHint, cfg.Assets, opts.Timeout), nil
	case "json":
		return NewJSON(cfg.Name, cfg.URL, cfg.CategoryHint, cfg.Assets, newClient(opts)), nil
	case "html":
		return NewHTML(cfg.Name, cfg.URL, cfg.CategoryHint, cfg.Assets, cfg.Selectors, newClient(opts)), nil
	default:
		return nil, fmt.Errorf("source %q: %w", cfg.Name, config.ErrSourceBadType)
	}
}

func newClient(opts Options) *upstream.Client {
	return upstream.NewClient(upstream.Options{
		Timeout:   opts.Timeout,
		FailLimit: opts.FailLimit,
		Cooldown:  opts.Cooldown,
		Headers:   map[string]string{"User-Agent": userAgent},
	})
}
