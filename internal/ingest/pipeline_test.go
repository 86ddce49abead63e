package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/scoring"
	"newssignal/backend-go/internal/store"
)

var fetchTime = time.Date(2026, 6, 2, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	name  string
	items []models.RawArticle
	err   error
	calls atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(context.Context) ([]models.RawArticle, error) {
	f.calls.Add(1)
	return f.items, f.err
}

type recordingArchive struct {
	mu    sync.Mutex
	saved []models.Article
	err   error
}

func (r *recordingArchive) Save(_ context.Context, articles []models.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, articles...)
	return r.err
}

func newTestPipeline(st *store.Store) *Pipeline {
	p := NewPipeline(st, scoring.NewKeyword(), nil)
	p.now = func() time.Time { return fetchTime }
	return p
}

func TestRunSourceCountsOutcomes(t *testing.T) {
	st := store.New()
	p := newTestPipeline(st)
	src := &fakeSource{name: "wire", items: []models.RawArticle{
		{Title: "Exchange X halts withdrawals", Timestamp: fetchTime.Add(-10 * time.Minute), Assets: []string{"BTC"}},
		{Title: "Exchange  X halts withdrawals ", Timestamp: fetchTime.Add(-5 * time.Minute)},
		{Title: "   ", Summary: "orphan summary"},
		{Title: "ETF approval boosts ether", Summary: "<p>Spot <b>ETH</b> ETF approved</p>"},
	}}

	rep := p.RunSource(context.Background(), src)
	assert.Equal(t, "wire", rep.Source)
	assert.Equal(t, 4, rep.Fetched)
	assert.Equal(t, 2, rep.Inserted)
	assert.Equal(t, 1, rep.Duplicates)
	assert.Equal(t, 1, rep.Errors)
	assert.True(t, rep.OK())
	assert.Equal(t, 2, st.Len())

	etf := st.Query(store.Filter{Text: "spot eth"})
	require.Len(t, etf, 1)
	assert.Equal(t, "Spot ETH ETF approved", etf[0].Summary)
	assert.Equal(t, "wire", etf[0].Source)
	assert.True(t, etf[0].Timestamp.Equal(fetchTime), "missing timestamp becomes fetch time")
}

func TestRunSourceIsolatesFailures(t *testing.T) {
	st := store.New()
	p := newTestPipeline(st)
	bad := &fakeSource{name: "broken", err: errors.New("connection refused")}
	good := &fakeSource{name: "wire", items: []models.RawArticle{{Title: "Bitcoin rallies", Timestamp: fetchTime}}}
	p.AddSource(bad, time.Minute)
	p.AddSource(good, time.Minute)

	cycle := p.RunOnce(context.Background())
	assert.NotEmpty(t, cycle.ID)
	require.Len(t, cycle.Sources, 2)
	assert.Equal(t, "connection refused", cycle.Sources[0].Error)
	assert.Equal(t, 1, cycle.Sources[0].Errors)
	assert.Equal(t, 1, cycle.Sources[1].Inserted)
	assert.Equal(t, 1, st.Len())

	status := p.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "broken", status[0].Source)
	assert.False(t, status[0].OK())
	assert.Equal(t, []string{"broken", "wire"}, p.SourceNames())
}

func TestRunSourceWritesThroughToArchive(t *testing.T) {
	st := store.New()
	arch := &recordingArchive{err: errors.New("db down")}
	p := newTestPipeline(st).WithArchive(arch)
	src := &fakeSource{name: "wire", items: []models.RawArticle{
		{Title: "Bitcoin rallies", Summary: "first", Timestamp: fetchTime.Add(-time.Hour)},
		{Title: "Bitcoin rallies", Summary: "first", Timestamp: fetchTime.Add(-time.Hour)},
	}}

	rep := p.RunSource(context.Background(), src)
	assert.Equal(t, 1, rep.Inserted)
	assert.Equal(t, 1, st.Len(), "archive failure does not undo the store write")
	require.Len(t, arch.saved, 1)

	src.items = []models.RawArticle{{Title: "Bitcoin rallies", Summary: "corrected figures", Timestamp: fetchTime.Add(-30 * time.Minute)}}
	rep = p.RunSource(context.Background(), src)
	assert.Equal(t, 1, rep.Replaced)
	assert.Len(t, arch.saved, 2)
}

func TestRunSourceArchivesEachIDOnce(t *testing.T) {
	st := store.New()
	arch := &recordingArchive{}
	p := newTestPipeline(st).WithArchive(arch)
	src := &fakeSource{name: "wire", items: []models.RawArticle{
		{Title: "Exchange X halts withdrawals", Summary: "initial report", Timestamp: fetchTime.Add(-20 * time.Minute)},
		{Title: "Exchange X halts withdrawals", Summary: "exchange confirms pause", Timestamp: fetchTime.Add(-10 * time.Minute)},
		{Title: "Bitcoin rallies", Timestamp: fetchTime.Add(-5 * time.Minute)},
	}}

	rep := p.RunSource(context.Background(), src)
	assert.Equal(t, 2, rep.Inserted)
	assert.Equal(t, 1, rep.Replaced)

	require.Len(t, arch.saved, 2)
	ids := map[string]int{}
	for _, a := range arch.saved {
		ids[a.ID]++
	}
	for id, n := range ids {
		assert.Equal(t, 1, n, "id %s archived more than once", id)
	}
	assert.Equal(t, "Exchange X halts withdrawals", arch.saved[0].Title)
	assert.Equal(t, "exchange confirms pause", arch.saved[0].Summary, "latest copy wins")
}

func TestAddSourceReplacesNonPositiveInterval(t *testing.T) {
	p := newTestPipeline(store.New())
	p.AddSource(&fakeSource{name: "zero"}, 0)
	p.AddSource(&fakeSource{name: "negative"}, -time.Second)
	for _, s := range p.sources {
		assert.Equal(t, DefaultInterval, s.interval, s.src.Name())
	}
}

func TestPollSurvivesZeroInterval(t *testing.T) {
	p := newTestPipeline(store.New())
	src := &fakeSource{name: "wire", items: []models.RawArticle{{Title: "Bitcoin rallies"}}}
	ctx, cancel := context.WithCancel(context.Background())

	p.wg.Add(1)
	go p.poll(ctx, scheduled{src: src, interval: 0})
	require.Eventually(t, func() bool { return src.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	p.wg.Wait()
}

func TestStartPollsUntilStopped(t *testing.T) {
	p := newTestPipeline(store.New())
	src := &fakeSource{name: "wire", items: []models.RawArticle{{Title: "Bitcoin rallies"}}}
	p.AddSource(src, 10*time.Millisecond)

	p.Start(context.Background())
	require.Eventually(t, func() bool { return src.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	p.Stop()

	after := src.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, src.calls.Load())
}

func TestConcurrentIngestAndQuery(t *testing.T) {
	st := store.New()
	p := newTestPipeline(st)
	src := &fakeSource{name: "wire", items: []models.RawArticle{
		{Title: "Bitcoin rallies", Timestamp: fetchTime},
		{Title: "Ether slides", Timestamp: fetchTime},
	}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.RunSource(context.Background(), src)
		}()
		go func() {
			defer wg.Done()
			_ = st.Query(store.Filter{Limit: 10})
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, st.Len())
}
