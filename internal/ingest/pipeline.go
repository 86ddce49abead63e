// Package ingest pulls raw articles from configured sources, normalizes and
// scores them, and upserts the result into the article store.
package ingest

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/scoring"
	"newssignal/backend-go/internal/store"
)

// Source is one upstream feed of raw articles.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.RawArticle, error)
}

// Archive receives inserted and replaced articles after each cycle.
type Archive interface {
	Save(ctx context.Context, articles []models.Article) error
}

type scheduled struct {
	src      Source
	interval time.Duration
}

type Pipeline struct {
	store   *store.Store
	scorer  *scoring.Safe
	archive Archive
	logger  *slog.Logger
	now     func() time.Time

	sources []scheduled

	mu     sync.RWMutex
	status map[string]models.SourceReport

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPipeline(st *store.Store, scorer scoring.Scorer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ingest")
	return &Pipeline{
		store:  st,
		scorer: scoring.NewSafe(scorer, logger),
		logger: logger,
		now:    time.Now,
		status: make(map[string]models.SourceReport),
	}
}

// WithArchive enables write-through of stored articles.
func (p *Pipeline) WithArchive(a Archive) *Pipeline {
	p.archive = a
	return p
}

// DefaultInterval is used for sources registered with a non-positive interval.
const DefaultInterval = 5 * time.Minute

// AddSource registers src to be polled every interval. Must be called before Start.
func (p *Pipeline) AddSource(src Source, interval time.Duration) {
	if interval <= 0 {
		p.logger.Warn("non-positive poll interval, using default", "source", src.Name(), "interval", interval, "default", DefaultInterval)
		interval = DefaultInterval
	}
	p.sources = append(p.sources, scheduled{src: src, interval: interval})
}

func (p *Pipeline) SourceNames() []string {
	names := make([]string, 0, len(p.sources))
	for _, s := range p.sources {
		names = append(names, s.src.Name())
	}
	return names
}

// Start launches one polling goroutine per source. Each runs a cycle
// immediately and then on its own ticker until Stop or ctx is done.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for _, s := range p.sources {
		p.wg.Add(1)
		go p.poll(ctx, s)
	}
	p.logger.Info("ingestion started", "sources", len(p.sources))
}

func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pipeline) poll(ctx context.Context, s scheduled) {
	defer p.wg.Done()
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	p.RunSource(ctx, s.src)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunSource(ctx, s.src)
		}
	}
}

// RunOnce runs every source concurrently a single time.
func (p *Pipeline) RunOnce(ctx context.Context) models.CycleReport {
	report := models.CycleReport{
		ID:        uuid.NewString(),
		StartedAt: p.now().UTC().Format(time.RFC3339),
		Sources:   make([]models.SourceReport, len(p.sources)),
	}
	var wg sync.WaitGroup
	for i, s := range p.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			report.Sources[i] = p.RunSource(ctx, src)
		}(i, s.src)
	}
	wg.Wait()
	p.logger.Info("ingestion cycle complete", "cycle", report.ID, "sources", len(report.Sources))
	return report
}

// RunSource fetches, normalizes, scores and stores one source's items. A
// fetch failure is recorded in the report and never propagates.
func (p *Pipeline) RunSource(ctx context.Context, src Source) (rep models.SourceReport) {
	started := p.now()
	rep = models.SourceReport{Source: src.Name(), StartedAt: started.UTC().Format(time.RFC3339)}
	defer func() {
		rep.DurationMs = p.now().Sub(started).Milliseconds()
		p.record(rep)
	}()

	items, err := src.Fetch(ctx)
	if err != nil {
		rep.Errors++
		rep.Error = err.Error()
		p.logger.Warn("source fetch failed", "source", rep.Source, "error", err)
		return rep
	}
	rep.Fetched = len(items)

	var stored []models.Article
	// A later copy in the same batch replaces the earlier one so each id
	// reaches the archive once.
	pos := make(map[string]int)
	keep := func(a models.Article) {
		if i, ok := pos[a.ID]; ok {
			stored[i] = a
			return
		}
		pos[a.ID] = len(stored)
		stored = append(stored, a)
	}
	for _, raw := range items {
		if raw.Source == "" {
			raw.Source = src.Name()
		}
		norm, ok := Normalize(raw, started)
		if !ok {
			rep.Errors++
			continue
		}
		article, degraded := p.scorer.Score(norm)
		if degraded {
			rep.Degraded++
		}
		switch p.store.Upsert(article) {
		case store.Inserted:
			rep.Inserted++
			keep(article)
		case store.Replaced:
			rep.Replaced++
			keep(article)
		default:
			rep.Duplicates++
		}
	}

	if p.archive != nil && len(stored) > 0 {
		if err := p.archive.Save(ctx, stored); err != nil {
			p.logger.Warn("archive write failed", "source", rep.Source, "articles", len(stored), "error", err)
		}
	}
	p.logger.Debug("source ingested", "source", rep.Source, "fetched", rep.Fetched,
		"inserted", rep.Inserted, "replaced", rep.Replaced, "duplicates", rep.Duplicates, "errors", rep.Errors)
	return rep
}

func (p *Pipeline) record(rep models.SourceReport) {
	p.mu.Lock()
	p.status[rep.Source] = rep
	p.mu.Unlock()
}

// Status returns the last report per source, ordered by source name.
func (p *Pipeline) Status() []models.SourceReport {
	p.mu.RLock()
	out := make([]models.SourceReport, 0, len(p.status))
	for _, r := range p.status {
		out = append(out, r)
	}
	p.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}
