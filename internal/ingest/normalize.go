package ingest

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newssignal/backend-go/internal/models"
)

// maxFutureSkew bounds how far ahead of the fetch time a timestamp may be
// before it is clamped.
const maxFutureSkew = 5 * time.Minute

// Normalize cleans raw in place of the scorer. Items without a title are
// rejected.
func Normalize(raw models.RawArticle, fetchedAt time.Time) (models.RawArticle, bool) {
	raw.Title = collapse(StripHTML(raw.Title))
	if raw.Title == "" {
		return raw, false
	}
	raw.Summary = collapse(StripHTML(raw.Summary))
	raw.Source = strings.TrimSpace(raw.Source)
	raw.URL = strings.TrimSpace(raw.URL)
	raw.CategoryHint = strings.ToLower(strings.TrimSpace(raw.CategoryHint))

	fetchedAt = fetchedAt.UTC().Truncate(time.Second)
	switch {
	case raw.Timestamp.IsZero():
		raw.Timestamp = fetchedAt
	case raw.Timestamp.After(fetchedAt.Add(maxFutureSkew)):
		raw.Timestamp = fetchedAt
	default:
		raw.Timestamp = raw.Timestamp.UTC().Truncate(time.Second)
	}
	return raw, true
}

// StripHTML returns the text content of s.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
