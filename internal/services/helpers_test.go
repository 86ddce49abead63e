package services

import (
	"time"

	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/store"
)

var fixedNow = time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)

func clockAt(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func seeded(t time.Time, title string, age time.Duration, impact int, sentiment models.Sentiment, bias float64, assets ...string) models.Article {
	ts := t.Add(-age)
	return models.Article{
		ID:              store.DedupKey(title, "wire", ts),
		Title:           title,
		Summary:         title,
		Source:          "wire",
		Timestamp:       ts,
		Category:        models.CategoryMarket,
		Assets:          assets,
		Sentiment:       sentiment,
		Importance:      models.ImportanceMedium,
		ImpactScore:     impact,
		VolatilityScore: impact / 2,
		BiasScore:       bias,
		Reasons:         []string{"category:market"},
	}
}
