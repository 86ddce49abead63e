package models

import "time"

type Category string

const (
	CategoryMarket     Category = "market"
	CategoryRegulation Category = "regulation"
	CategoryTechnology Category = "technology"
	CategoryDeFi       Category = "defi"
	CategorySecurity   Category = "security"
	CategoryAdoption   Category = "adoption"
	CategoryOther      Category = "other"
)

// AllCategories returns the closed category set in canonical order.
func AllCategories() []Category {
	return []Category{
		CategoryMarket,
		CategoryRegulation,
		CategoryTechnology,
		CategoryDeFi,
		CategorySecurity,
		CategoryAdoption,
		CategoryOther,
	}
}

// ParseCategory maps a raw value onto the category set.
func ParseCategory(v string) (Category, bool) {
	for _, c := range AllCategories() {
		if string(c) == v {
			return c, true
		}
	}
	return "", false
}

type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// RawArticle is what a source adapter hands to the ingestion pipeline.
type RawArticle struct {
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	URL          string    `json:"url"`
	Source       string    `json:"source"`
	Timestamp    time.Time `json:"timestamp"`
	CategoryHint string    `json:"rawCategoryHint,omitempty"`
	Assets       []string  `json:"assets,omitempty"`
}

// Article is a scored, deduplicated record owned by the store. Sentiment and
// BiasScore are computed independently and may disagree.
type Article struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Summary         string     `json:"summary"`
	URL             string     `json:"url"`
	Source          string     `json:"source"`
	Timestamp       time.Time  `json:"timestamp"`
	Category        Category   `json:"category"`
	Assets          []string   `json:"assets"`
	Sentiment       Sentiment  `json:"sentiment"`
	Importance      Importance `json:"importance"`
	ImpactScore     int        `json:"impactScore"`
	VolatilityScore int        `json:"volatilityScore"`
	BiasScore       float64    `json:"biasScore"`
	Reasons         []string   `json:"reasons"`
}

// HasAsset reports whether ticker is one of the article's assets.
func (a Article) HasAsset(ticker string) bool {
	for _, s := range a.Assets {
		if s == ticker {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with a.
func (a Article) Clone() Article {
	out := a
	out.Assets = append([]string(nil), a.Assets...)
	out.Reasons = append([]string(nil), a.Reasons...)
	if out.Assets == nil {
		out.Assets = []string{}
	}
	if out.Reasons == nil {
		out.Reasons = []string{}
	}
	return out
}

type SentimentCounts struct {
	Bullish int `json:"bullish"`
	Bearish int `json:"bearish"`
	Neutral int `json:"neutral"`
}

type Briefing struct {
	GeneratedAt     string          `json:"generatedAt"`
	Asset           string          `json:"asset"`
	Hours           int             `json:"hours"`
	Posture         string          `json:"posture"`
	Sentiment       Sentiment       `json:"sentiment"`
	ImpactScore     int             `json:"impactScore"`
	VolatilityScore int             `json:"volatilityScore"`
	BiasScore       float64         `json:"biasScore"`
	Counts          SentimentCounts `json:"counts"`
	ArticleCount    int             `json:"articleCount"`
	AIUsed          bool            `json:"aiUsed"`
	Briefing        string          `json:"briefing"`
	StrategyHints   []string        `json:"strategyHints"`
	HighImpact      []Article       `json:"highImpact"`
	Disclaimer      string          `json:"disclaimer"`
}

type AlertWindow struct {
	GeneratedAt string    `json:"generatedAt"`
	Asset       string    `json:"asset"`
	Minutes     int       `json:"minutes"`
	MinImpact   int       `json:"minImpact"`
	Alerts      []Article `json:"alerts"`
}

// SourceReport is the outcome of one ingestion cycle for one source.
type SourceReport struct {
	Source     string `json:"source"`
	StartedAt  string `json:"startedAt"`
	DurationMs int64  `json:"durationMs"`
	Fetched    int    `json:"fetched"`
	Inserted   int    `json:"inserted"`
	Replaced   int    `json:"replaced"`
	Duplicates int    `json:"duplicates"`
	Degraded   int    `json:"degraded"`
	Errors     int    `json:"errors"`
	Error      string `json:"error,omitempty"`
}

// OK reports whether the fetch itself succeeded.
func (r SourceReport) OK() bool {
	return r.Error == ""
}

type CycleReport struct {
	ID        string         `json:"id"`
	StartedAt string         `json:"startedAt"`
	Sources   []SourceReport `json:"sources"`
}

type SourcesResponse struct {
	TsISO   string         `json:"tsISO"`
	Stored  int            `json:"stored"`
	Sources []SourceReport `json:"sources"`
}

type HealthResponse struct {
	Ok          bool                 `json:"ok"`
	TsISO       string               `json:"tsISO"`
	Service     string               `json:"service"`
	Version     string               `json:"version,omitempty"`
	Stored      int                  `json:"stored"`
	Deps        []string             `json:"deps"`
	DepsStatus  map[string]DepStatus `json:"deps_status,omitempty"`
	DataMissing []string             `json:"data_missing"`
	Features    map[string]bool      `json:"features"`
}

type DepStatus struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
