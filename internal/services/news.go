package services

import (
	"regexp"
	"strings"
	"time"

	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/store"
)

// AssetAll disables asset filtering.
const AssetAll = "ALL"

var tickerPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// NewsService answers filtered reads against the article store.
type NewsService struct {
	store *store.Store
	now   func() time.Time
}

func NewNewsService(st *store.Store) *NewsService {
	return &NewsService{store: st, now: time.Now}
}

// ResolveAsset maps the asset parameter to a store filter. ALL yields an
// empty ticker; a malformed or unknown sentinel yields ok=false.
func ResolveAsset(asset string) (ticker string, ok bool) {
	a := strings.ToUpper(strings.TrimSpace(asset))
	if a == AssetAll {
		return "", true
	}
	if a == "FOR_YOU" || !tickerPattern.MatchString(a) {
		return "", false
	}
	return a, true
}

// ResolveCategory treats "" and "all" as no filter.
func ResolveCategory(category string) (models.Category, bool) {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" || c == "all" {
		return "", true
	}
	return models.ParseCategory(c)
}

// ListNews returns matching articles newest first. Unresolvable asset or
// category values produce an empty list rather than an error. hours <= 0
// removes the time bound and limit <= 0 removes the cap.
func (s *NewsService) ListNews(asset, category string, hours, limit int, q string) []models.Article {
	ticker, ok := ResolveAsset(asset)
	if !ok {
		return []models.Article{}
	}
	cat, ok := ResolveCategory(category)
	if !ok {
		return []models.Article{}
	}
	f := store.Filter{Asset: ticker, Category: cat, Text: q, Limit: limit}
	if hours > 0 {
		f.Since = s.now().Add(-time.Duration(hours) * time.Hour)
	}
	return s.store.Query(f)
}
