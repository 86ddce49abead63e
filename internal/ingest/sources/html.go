package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newssignal/backend-go/internal/config"
	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/upstream"
)

// HTML scrapes a listing page using CSS selectors.
type HTML struct {
	name      string
	url       string
	hint      string
	assets    []string
	selectors config.SelectorsConfig
	client    *upstream.Client
}

func NewHTML(name, pageURL, hint string, assets []string, selectors config.SelectorsConfig, client *upstream.Client) *HTML {
	return &HTML{name: name, url: pageURL, hint: hint, assets: assets, selectors: selectors, client: client}
}

func (h *HTML) Name() string { return h.name }

func (h *HTML) Fetch(ctx context.Context) ([]models.RawArticle, error) {
	body, err := h.client.Get(ctx, h.url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", h.name, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	base, _ := url.Parse(h.url)

	var out []models.RawArticle
	doc.Find(h.selectors.Item).Each(func(_ int, item *goquery.Selection) {
		raw := models.RawArticle{
			Title:        text(item, h.selectors.Title),
			Summary:      text(item, h.selectors.Summary),
			URL:          h.link(item, base),
			Source:       h.name,
			Timestamp:    h.timestamp(item),
			CategoryHint: h.hint,
			Assets:       append([]string(nil), h.assets...),
		}
		out = append(out, raw)
	})
	return out, nil
}

func text(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(item.Find(selector).First().Text())
}

func (h *HTML) link(item *goquery.Selection, base *url.URL) string {
	selector := h.selectors.Link
	if selector == "" {
		selector = "a[href]"
	}
	href, ok := item.Find(selector).First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func (h *HTML) timestamp(item *goquery.Selection) time.Time {
	if h.selectors.Time == "" {
		return time.Time{}
	}
	sel := item.Find(h.selectors.Time).First()
	if dt, ok := sel.Attr("datetime"); ok {
		if ts, ok := parseTimeString(dt); ok {
			return ts
		}
	}
	ts, _ := parseTimeString(sel.Text())
	return ts
}

var timeLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
