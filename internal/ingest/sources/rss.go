// Package sources holds the generic feed adapters used by the ingestion
// pipeline.
package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"newssignal/backend-go/internal/models"
)

// RSS reads RSS and Atom feeds.
type RSS struct {
	name   string
	url    string
	hint   string
	assets []string
	parser *gofeed.Parser
}

func NewRSS(name, url, hint string, assets []string, timeout time.Duration) *RSS {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = userAgent
	return &RSS{name: name, url: url, hint: hint, assets: assets, parser: parser}
}

func (r *RSS) Name() string { return r.name }

func (r *RSS) Fetch(ctx context.Context) ([]models.RawArticle, error) {
	feed, err := r.parser.ParseURLWithContext(r.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", r.name, err)
	}

	out := make([]models.RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		var ts time.Time
		if item.PublishedParsed != nil {
			ts = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			ts = *item.UpdatedParsed
		}
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		hint := r.hint
		if hint == "" && len(item.Categories) > 0 {
			hint = item.Categories[0]
		}
		out = append(out, models.RawArticle{
			Title:        item.Title,
			Summary:      summary,
			URL:          item.Link,
			Source:       r.name,
			Timestamp:    ts,
			CategoryHint: hint,
			Assets:       append([]string(nil), r.assets...),
		})
	}
	return out, nil
}
