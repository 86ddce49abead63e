package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/sync/singleflight"

	"newssignal/backend-go/internal/config"
	"newssignal/backend-go/internal/models"
)

const Disclaimer = "Informational only. Generated from automated news scoring; not investment advice."

const (
	postureNeutralBelow = 0.15
	postureMildBelow    = 0.35
	postureStrongFrom   = 0.6
	minRecencyWeight    = 0.1
	headlineWidth       = 80
)

// BriefingService reduces a window of articles into a cached Briefing.
// Concurrent requests for the same key share one computation.
type BriefingService struct {
	news       *NewsService
	cache      Cache
	summarizer Summarizer
	logger     *slog.Logger
	ttl        time.Duration
	timeout    time.Duration
	topN       int
	group      singleflight.Group
	now        func() time.Time
}

func NewBriefingService(cfg config.Config, news *NewsService, cache Cache, summarizer Summarizer, logger *slog.Logger) *BriefingService {
	topN := cfg.HighImpactTopN
	if topN <= 0 {
		topN = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BriefingService{
		news:       news,
		cache:      cache,
		summarizer: summarizer,
		logger:     logger,
		ttl:        cfg.CacheTTLBriefing,
		timeout:    cfg.SynthesisTimeout,
		topN:       topN,
		now:        time.Now,
	}
}

func briefingCacheKey(asset string, hours int) string {
	return fmt.Sprintf("briefing:v1:%s:%d", asset, hours)
}

// GetBriefing never fails: empty windows and synthesis failures produce
// deterministic output instead of errors.
func (s *BriefingService) GetBriefing(ctx context.Context, asset string, hours int) models.Briefing {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	key := briefingCacheKey(asset, hours)
	if b, ok := s.cached(ctx, key); ok {
		return b
	}

	v, _, _ := s.group.Do(key, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		if b, ok := s.cached(shared, key); ok {
			return b, nil
		}
		b := s.build(shared, asset, hours)
		if s.ttl > 0 {
			raw, err := MarshalCache(b)
			if err == nil {
				err = s.cache.Set(shared, key, raw, s.ttl)
			}
			if err != nil {
				s.logger.Warn("briefing cache write failed", "key", key, "error", err)
			}
		}
		return b, nil
	})
	return cloneBriefing(v.(models.Briefing))
}

func (s *BriefingService) cached(ctx context.Context, key string) (models.Briefing, bool) {
	if s.ttl <= 0 {
		return models.Briefing{}, false
	}
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return models.Briefing{}, false
	}
	var b models.Briefing
	if err := UnmarshalCache(raw, &b); err != nil {
		return models.Briefing{}, false
	}
	return b, true
}

func (s *BriefingService) build(ctx context.Context, asset string, hours int) models.Briefing {
	now := s.now().UTC()
	b := models.Briefing{
		GeneratedAt:   now.Format(time.RFC3339),
		Asset:         asset,
		Hours:         hours,
		Posture:       "Neutral",
		Sentiment:     models.SentimentNeutral,
		StrategyHints: []string{},
		HighImpact:    []models.Article{},
		Disclaimer:    Disclaimer,
	}

	articles := s.news.ListNews(asset, "all", hours, 0, "")
	if len(articles) == 0 {
		b.Briefing = fmt.Sprintf("No articles matched %s in the last %d hours, so there is no news-driven signal to report.", assetLabel(asset), hours)
		b.StrategyHints = []string{"Wait for fresh headlines before acting on news flow."}
		return b
	}

	agg := aggregate(articles, now, time.Duration(hours)*time.Hour)
	b.Counts = agg.counts
	b.ArticleCount = len(articles)
	b.Sentiment = agg.sentiment
	b.ImpactScore = agg.impact
	b.VolatilityScore = agg.volatility
	b.BiasScore = agg.bias
	b.Posture = postureFor(agg.bias)
	b.HighImpact = topByImpact(articles, s.topN)

	in := SynthesisInput{
		Asset:           asset,
		Hours:           hours,
		Posture:         b.Posture,
		Sentiment:       b.Sentiment,
		ImpactScore:     b.ImpactScore,
		VolatilityScore: b.VolatilityScore,
		BiasScore:       b.BiasScore,
		Counts:          b.Counts,
		Headlines:       b.HighImpact,
	}
	syn, err := s.synthesize(ctx, in)
	if err == nil {
		b.AIUsed = true
		b.Briefing = syn.Briefing
		if syn.StrategyHints != nil {
			b.StrategyHints = syn.StrategyHints
		}
		return b
	}
	if s.summarizer != nil {
		s.logger.Info("synthesis unavailable, using template", "asset", asset, "hours", hours, "error", err)
	}
	b.Briefing = templateNarrative(in, len(articles))
	b.StrategyHints = templateHints(in)
	return b
}

type synthesisResult struct {
	syn Synthesis
	err error
}

// synthesize bounds the summarizer by the configured timeout even when the
// implementation ignores its context.
func (s *BriefingService) synthesize(ctx context.Context, in SynthesisInput) (Synthesis, error) {
	if s.summarizer == nil {
		return Synthesis{}, ErrEmptySynthesis
	}
	tctx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ch := make(chan synthesisResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- synthesisResult{err: fmt.Errorf("summarizer panic: %v", rec)}
			}
		}()
		syn, err := s.summarizer.Summarize(tctx, in)
		ch <- synthesisResult{syn: syn, err: err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			return Synthesis{}, r.err
		}
		if strings.TrimSpace(r.syn.Briefing) == "" {
			return Synthesis{}, ErrEmptySynthesis
		}
		return r.syn, nil
	case <-tctx.Done():
		return Synthesis{}, tctx.Err()
	}
}

type aggregation struct {
	counts     models.SentimentCounts
	sentiment  models.Sentiment
	impact     int
	volatility int
	bias       float64
}

// recencyWeight decays linearly from 1 at now to minRecencyWeight at the
// window edge. A non-positive window weights every article equally.
func recencyWeight(ts, now time.Time, window time.Duration) float64 {
	if window <= 0 {
		return 1
	}
	age := now.Sub(ts)
	if age < 0 {
		age = 0
	}
	return math.Max(minRecencyWeight, 1-float64(age)/float64(window))
}

func aggregate(articles []models.Article, now time.Time, window time.Duration) aggregation {
	var out aggregation
	var wSum, impact, vol, bias float64
	for _, a := range articles {
		switch a.Sentiment {
		case models.SentimentBullish:
			out.counts.Bullish++
		case models.SentimentBearish:
			out.counts.Bearish++
		default:
			out.counts.Neutral++
		}
		w := recencyWeight(a.Timestamp, now, window)
		wSum += w
		impact += w * float64(a.ImpactScore)
		vol += w * float64(a.VolatilityScore)
		bias += w * a.BiasScore
	}
	out.sentiment = majority(out.counts)
	if wSum > 0 {
		out.impact = int(math.Round(impact / wSum))
		out.volatility = int(math.Round(vol / wSum))
		out.bias = math.Round(bias/wSum*1000) / 1000
	}
	return out
}

// majority picks the label with the strictly highest count; ties are neutral.
func majority(c models.SentimentCounts) models.Sentiment {
	switch {
	case c.Bullish > c.Bearish && c.Bullish > c.Neutral:
		return models.SentimentBullish
	case c.Bearish > c.Bullish && c.Bearish > c.Neutral:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

func postureFor(bias float64) string {
	mag := math.Abs(bias)
	if mag < postureNeutralBelow {
		return "Neutral"
	}
	side := "Risk-on"
	if bias < 0 {
		side = "Risk-off"
	}
	switch {
	case mag < postureMildBelow:
		return "Mild " + side
	case mag < postureStrongFrom:
		return side
	default:
		return "Strong " + side
	}
}

func topByImpact(articles []models.Article, n int) []models.Article {
	sorted := make([]models.Article, len(articles))
	copy(sorted, articles)
	sortByImpact(sorted)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func assetLabel(asset string) string {
	if asset == AssetAll || asset == "" {
		return "the market"
	}
	return asset
}

func templateNarrative(in SynthesisInput, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "News flow for %s over the last %d hours reads %s (%s): %d bullish, %d bearish and %d neutral across %d articles.",
		assetLabel(in.Asset), in.Hours, strings.ToLower(in.Posture), in.Sentiment,
		in.Counts.Bullish, in.Counts.Bearish, in.Counts.Neutral, total)
	fmt.Fprintf(&sb, " Weighted impact is %d/100 with volatility at %d/100.", in.ImpactScore, in.VolatilityScore)
	if len(in.Headlines) > 0 {
		top := in.Headlines[0]
		fmt.Fprintf(&sb, " Top headline: %q (%s, impact %d).",
			runewidth.Truncate(top.Title, headlineWidth, "..."), top.Source, top.ImpactScore)
	}
	return sb.String()
}

func templateHints(in SynthesisInput) []string {
	hints := []string{}
	switch {
	case strings.Contains(in.Posture, "Risk-off"):
		hints = append(hints, "Headline flow leans risk-off; tighten risk on long exposure.")
	case strings.Contains(in.Posture, "Risk-on"):
		hints = append(hints, "Headline flow leans risk-on; watch high-impact items for continuation.")
	default:
		hints = append(hints, "No clear directional lean; wait for confirmation before positioning.")
	}
	if in.VolatilityScore >= 60 {
		hints = append(hints, "Volatility cues are elevated; consider smaller position sizes.")
	}
	high := 0
	for _, a := range in.Headlines {
		if a.Importance == models.ImportanceHigh {
			high++
		}
	}
	if high > 0 {
		hints = append(hints, fmt.Sprintf("%d high-impact headline(s) in the window; review them before trading.", high))
	}
	return hints
}

func cloneBriefing(b models.Briefing) models.Briefing {
	out := b
	out.StrategyHints = append([]string{}, b.StrategyHints...)
	out.HighImpact = make([]models.Article, len(b.HighImpact))
	for i, a := range b.HighImpact {
		out.HighImpact[i] = a.Clone()
	}
	return out
}
