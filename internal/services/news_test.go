package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/store"
)

func newsFixture() (*NewsService, *store.Store) {
	st := store.New()
	now := fixedNow
	st.Upsert(seeded(now, "Bitcoin ETF inflows", time.Hour, 60, models.SentimentBullish, 0.4, "BTC"))
	st.Upsert(seeded(now, "Ether staking update", 2*time.Hour, 45, models.SentimentNeutral, 0.05, "ETH"))
	st.Upsert(seeded(now, "Macro roundup", 3*time.Hour, 30, models.SentimentNeutral, 0.0))
	st.Upsert(seeded(now, "Old bitcoin story", 72*time.Hour, 50, models.SentimentBearish, -0.3, "BTC"))
	regulation := seeded(now, "SEC sues exchange", 30*time.Minute, 80, models.SentimentBearish, -0.5, "BTC")
	regulation.Category = models.CategoryRegulation
	st.Upsert(regulation)

	svc := NewNewsService(st)
	svc.now = func() time.Time { return now }
	return svc, st
}

func TestResolveAsset(t *testing.T) {
	tests := []struct {
		in     string
		ticker string
		ok     bool
	}{
		{"ALL", "", true},
		{"all", "", true},
		{"btc", "BTC", true},
		{" ETH ", "ETH", true},
		{"", "", false},
		{"FOR_YOU", "", false},
		{"B", "", false},
		{"BTC-USD", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ticker, ok := ResolveAsset(tt.in)
			assert.Equal(t, tt.ticker, ticker)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestListNewsAssetFiltering(t *testing.T) {
	svc, _ := newsFixture()

	all := svc.ListNews("ALL", "all", 24, 0, "")
	assert.Len(t, all, 4)

	btc := svc.ListNews("BTC", "", 24, 0, "")
	assert.Len(t, btc, 2)
	for _, a := range btc {
		assert.Contains(t, a.Assets, "BTC")
	}

	assert.Empty(t, svc.ListNews("FOR_YOU", "all", 24, 0, ""))
	assert.Empty(t, svc.ListNews("", "all", 24, 0, ""))
	assert.Empty(t, svc.ListNews("DOGE", "all", 24, 0, ""))
}

func TestListNewsCategoryHoursLimitAndText(t *testing.T) {
	svc, _ := newsFixture()

	reg := svc.ListNews("ALL", "Regulation", 24, 0, "")
	assert.Len(t, reg, 1)
	assert.Equal(t, "SEC sues exchange", reg[0].Title)

	assert.Empty(t, svc.ListNews("ALL", "gossip", 24, 0, ""))

	assert.Len(t, svc.ListNews("BTC", "all", 0, 0, ""), 3, "hours <= 0 removes the time bound")

	limited := svc.ListNews("ALL", "all", 24, 2, "")
	assert.Len(t, limited, 2)
	assert.Equal(t, "SEC sues exchange", limited[0].Title, "newest first")

	assert.Len(t, svc.ListNews("ALL", "all", 24, 0, "STAKING"), 1)
}
