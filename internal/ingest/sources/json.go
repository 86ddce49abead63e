package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/upstream"
)

var ErrUnsupportedPayload = errors.New("json source: payload is neither an array nor an object with items")

// JSON reads a JSON array of articles, or an object wrapping one under
// "items", "articles" or "data".
type JSON struct {
	name   string
	url    string
	hint   string
	assets []string
	client *upstream.Client
}

func NewJSON(name, url, hint string, assets []string, client *upstream.Client) *JSON {
	return &JSON{name: name, url: url, hint: hint, assets: assets, client: client}
}

func (j *JSON) Name() string { return j.name }

type jsonItem struct {
	Title       string          `json:"title"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	Link        string          `json:"link"`
	Source      string          `json:"source"`
	Timestamp   json.RawMessage `json:"timestamp"`
	PublishedAt json.RawMessage `json:"publishedAt"`
	Category    string          `json:"category"`
	Assets      []string        `json:"assets"`
	Tickers     []string        `json:"tickers"`
}

func (j *JSON) Fetch(ctx context.Context) ([]models.RawArticle, error) {
	body, err := j.client.Get(ctx, j.url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", j.name, err)
	}
	items, err := decodeItems(body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", j.name, err)
	}

	out := make([]models.RawArticle, 0, len(items))
	for _, it := range items {
		raw := models.RawArticle{
			Title:        it.Title,
			Summary:      firstNonEmpty(it.Summary, it.Description),
			URL:          firstNonEmpty(it.URL, it.Link),
			Source:       firstNonEmpty(it.Source, j.name),
			Timestamp:    parseTimestamp(it.Timestamp, it.PublishedAt),
			CategoryHint: firstNonEmpty(it.Category, j.hint),
		}
		raw.Assets = append(append(raw.Assets, j.assets...), it.Assets...)
		raw.Assets = append(raw.Assets, it.Tickers...)
		out = append(out, raw)
	}
	return out, nil
}

func decodeItems(body []byte) ([]jsonItem, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var items []jsonItem
		err := json.Unmarshal(body, &items)
		return items, err
	}
	var wrapper struct {
		Items    []jsonItem `json:"items"`
		Articles []jsonItem `json:"articles"`
		Data     []jsonItem `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, err
	}
	switch {
	case wrapper.Items != nil:
		return wrapper.Items, nil
	case wrapper.Articles != nil:
		return wrapper.Articles, nil
	case wrapper.Data != nil:
		return wrapper.Data, nil
	}
	return nil, ErrUnsupportedPayload
}

// parseTimestamp accepts RFC 3339 strings or unix seconds. Unparseable
// values yield the zero time, which the pipeline replaces with fetch time.
func parseTimestamp(candidates ...json.RawMessage) time.Time {
	for _, raw := range candidates {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if ts, ok := parseTimeString(s); ok {
				return ts
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return unixTime(n)
			}
			continue
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return unixTime(int64(n))
		}
	}
	return time.Time{}
}

// unixTime reads values above 1e12 as milliseconds.
func unixTime(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
