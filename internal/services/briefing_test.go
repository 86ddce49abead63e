package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newssignal/backend-go/internal/config"
	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/scoring"
	"newssignal/backend-go/internal/store"
)

type stubSummarizer struct {
	calls   atomic.Int32
	release chan struct{}
	delay   time.Duration
	syn     Synthesis
	err     error
}

func (s *stubSummarizer) Summarize(ctx context.Context, in SynthesisInput) (Synthesis, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.syn, s.err
}

type briefingEnv struct {
	now   time.Time
	store *store.Store
	svc   *BriefingService
}

func newBriefingEnv(sum Summarizer) *briefingEnv {
	env := &briefingEnv{now: fixedNow, store: store.New()}
	clock := clockAt(&env.now)
	news := NewNewsService(env.store)
	news.now = clock
	cfg := config.Config{CacheTTLBriefing: 45 * time.Second, SynthesisTimeout: 50 * time.Millisecond, HighImpactTopN: 5}
	env.svc = NewBriefingService(cfg, news, NewMemoryCacheWithClock(clock), sum, nil)
	env.svc.now = clock
	return env
}

func TestBriefingEmptyWindow(t *testing.T) {
	env := newBriefingEnv(&stubSummarizer{syn: Synthesis{Briefing: "should not be used"}})
	b := env.svc.GetBriefing(context.Background(), "BTC", 24)

	assert.Equal(t, "Neutral", b.Posture)
	assert.Equal(t, models.SentimentNeutral, b.Sentiment)
	assert.Zero(t, b.ImpactScore)
	assert.Zero(t, b.VolatilityScore)
	assert.False(t, b.AIUsed)
	assert.NotEmpty(t, b.Briefing)
	assert.NotNil(t, b.HighImpact)
	assert.Equal(t, Disclaimer, b.Disclaimer)
}

func TestBriefingCachedWithinTTL(t *testing.T) {
	env := newBriefingEnv(nil)
	env.store.Upsert(seeded(env.now, "ETF inflows", time.Hour, 60, models.SentimentBullish, 0.4, "BTC"))

	first := env.svc.GetBriefing(context.Background(), "BTC", 24)
	env.now = env.now.Add(10 * time.Second)
	env.store.Upsert(seeded(env.now, "Another story", 0, 90, models.SentimentBearish, -0.7, "BTC"))
	second := env.svc.GetBriefing(context.Background(), "btc", 24)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
	assert.Equal(t, 1, second.ArticleCount, "cached briefing ignores newer articles")

	other := env.svc.GetBriefing(context.Background(), "BTC", 48)
	assert.NotEqual(t, first.GeneratedAt, other.GeneratedAt, "different hours is a different key")

	env.now = env.now.Add(40 * time.Second)
	third := env.svc.GetBriefing(context.Background(), "BTC", 24)
	assert.NotEqual(t, first.GeneratedAt, third.GeneratedAt)
	assert.Equal(t, 2, third.ArticleCount)
}

func TestBriefingUsesSummarizer(t *testing.T) {
	sum := &stubSummarizer{syn: Synthesis{Briefing: "Calm tape.", StrategyHints: []string{"Hold."}}}
	env := newBriefingEnv(sum)
	env.store.Upsert(seeded(env.now, "ETF inflows", time.Hour, 60, models.SentimentBullish, 0.4, "BTC"))

	b := env.svc.GetBriefing(context.Background(), "ALL", 24)
	assert.True(t, b.AIUsed)
	assert.Equal(t, "Calm tape.", b.Briefing)
	assert.Equal(t, []string{"Hold."}, b.StrategyHints)
}

func TestBriefingFallsBackOnFailure(t *testing.T) {
	tests := map[string]*stubSummarizer{
		"error":   {err: errors.New("model overloaded")},
		"empty":   {syn: Synthesis{Briefing: "   "}},
		"timeout": {delay: 300 * time.Millisecond, syn: Synthesis{Briefing: "too late"}},
	}
	for name, sum := range tests {
		t.Run(name, func(t *testing.T) {
			env := newBriefingEnv(sum)
			env.store.Upsert(seeded(env.now, "Exchange halts withdrawals", 10*time.Minute, 85, models.SentimentBearish, -0.6, "BTC"))

			start := time.Now()
			b := env.svc.GetBriefing(context.Background(), "BTC", 24)
			assert.Less(t, time.Since(start), 250*time.Millisecond)
			assert.False(t, b.AIUsed)
			assert.Contains(t, b.Briefing, "Exchange halts withdrawals")
			assert.NotEmpty(t, b.StrategyHints)
		})
	}
}

func TestBriefingCoalescesConcurrentCallers(t *testing.T) {
	sum := &stubSummarizer{release: make(chan struct{}), syn: Synthesis{Briefing: "Shared."}}
	env := newBriefingEnv(sum)
	env.svc.timeout = 5 * time.Second
	env.store.Upsert(seeded(env.now, "ETF inflows", time.Hour, 60, models.SentimentBullish, 0.4, "BTC"))

	const callers = 8
	results := make([]models.Briefing, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = env.svc.GetBriefing(context.Background(), "BTC", 24)
		}(i)
	}
	require.Eventually(t, func() bool { return sum.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(sum.release)
	wg.Wait()

	assert.Equal(t, int32(1), sum.calls.Load())
	for _, b := range results {
		assert.Equal(t, results[0].GeneratedAt, b.GeneratedAt)
		assert.Equal(t, "Shared.", b.Briefing)
	}
}

func TestBriefingSurvivesCallerCancellation(t *testing.T) {
	sum := &stubSummarizer{syn: Synthesis{Briefing: "Done."}}
	env := newBriefingEnv(sum)
	env.store.Upsert(seeded(env.now, "ETF inflows", time.Hour, 60, models.SentimentBullish, 0.4, "BTC"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := env.svc.GetBriefing(ctx, "BTC", 24)
	assert.True(t, b.AIUsed)
}

func TestHaltedWithdrawalsScenario(t *testing.T) {
	env := newBriefingEnv(nil)
	scored, err := scoring.NewKeyword().Score(models.RawArticle{
		Title:     "Exchange X halts withdrawals",
		Source:    "wire",
		Timestamp: env.now.Add(-10 * time.Minute),
		Assets:    []string{"BTC"},
	})
	require.NoError(t, err)
	require.Equal(t, store.Inserted, env.store.Upsert(scored))

	news := NewNewsService(env.store)
	news.now = clockAt(&env.now)
	listed := news.ListNews("BTC", "all", 48, 0, "")
	require.Len(t, listed, 1)
	assert.Equal(t, scored.ID, listed[0].ID)

	alerts := NewAlertService(env.store)
	alerts.now = clockAt(&env.now)
	w := alerts.GetAlerts("ALL", 180, 75)
	require.NotEmpty(t, w.Alerts)
	assert.Equal(t, scored.ID, w.Alerts[0].ID)

	b := env.svc.GetBriefing(context.Background(), "BTC", 24)
	assert.Contains(t, b.Posture, "Risk-off")
	assert.NotZero(t, b.ImpactScore)
	assert.Equal(t, models.SentimentBearish, b.Sentiment)
	require.Len(t, b.HighImpact, 1)
}

func TestPostureThresholds(t *testing.T) {
	tests := []struct {
		bias float64
		want string
	}{
		{0, "Neutral"},
		{0.149, "Neutral"},
		{-0.149, "Neutral"},
		{0.15, "Mild Risk-on"},
		{-0.2, "Mild Risk-off"},
		{0.35, "Risk-on"},
		{-0.59, "Risk-off"},
		{0.6, "Strong Risk-on"},
		{-1, "Strong Risk-off"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, postureFor(tt.bias), "bias %v", tt.bias)
	}
}

func TestAggregateMajorityAndRecency(t *testing.T) {
	now := fixedNow
	articles := []models.Article{
		seeded(now, "fresh", 0, 90, models.SentimentBullish, 0.8),
		seeded(now, "stale", 24*time.Hour, 10, models.SentimentBearish, -0.8),
	}
	agg := aggregate(articles, now, 24*time.Hour)
	assert.Equal(t, models.SentimentNeutral, agg.sentiment, "tie is neutral")
	// weights 1.0 and 0.1
	assert.Equal(t, 83, agg.impact)
	assert.InDelta(t, 0.655, agg.bias, 0.001)

	assert.Equal(t, models.SentimentBearish, majority(models.SentimentCounts{Bearish: 3, Bullish: 1, Neutral: 2}))
	assert.Equal(t, models.SentimentNeutral, majority(models.SentimentCounts{Bearish: 2, Neutral: 2}))
}

func TestRecencyWeight(t *testing.T) {
	now := fixedNow
	assert.Equal(t, 1.0, recencyWeight(now.Add(time.Minute), now, time.Hour))
	assert.InDelta(t, 0.5, recencyWeight(now.Add(-30*time.Minute), now, time.Hour), 1e-9)
	assert.Equal(t, minRecencyWeight, recencyWeight(now.Add(-2*time.Hour), now, time.Hour))
	assert.Equal(t, 1.0, recencyWeight(now.Add(-2*time.Hour), now, 0))
}
