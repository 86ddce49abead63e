package services

import (
	"sort"
	"time"

	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/store"
)

// AlertService computes the high-impact window on every call.
type AlertService struct {
	store *store.Store
	now   func() time.Time
}

func NewAlertService(st *store.Store) *AlertService {
	return &AlertService{store: st, now: time.Now}
}

func (s *AlertService) GetAlerts(asset string, minutes, minImpact int) models.AlertWindow {
	now := s.now().UTC()
	out := models.AlertWindow{
		GeneratedAt: now.Format(time.RFC3339),
		Asset:       asset,
		Minutes:     minutes,
		MinImpact:   minImpact,
		Alerts:      []models.Article{},
	}
	ticker, ok := ResolveAsset(asset)
	if !ok {
		return out
	}
	alerts := s.store.Query(store.Filter{
		Asset:     ticker,
		Since:     now.Add(-time.Duration(minutes) * time.Minute),
		MinImpact: minImpact,
	})
	sortByImpact(alerts)
	out.Alerts = alerts
	return out
}

// sortByImpact orders by impactScore desc, then timestamp desc, then id.
func sortByImpact(articles []models.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i], articles[j]
		if a.ImpactScore != b.ImpactScore {
			return a.ImpactScore > b.ImpactScore
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})
}
