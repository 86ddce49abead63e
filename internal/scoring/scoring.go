// Package scoring classifies raw articles and assigns impact, volatility and
// directional bias scores.
package scoring

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/store"
)

// MaxReasons caps the reason tags attached to an article.
const MaxReasons = 4

var ErrEmptyInput = errors.New("scoring: article has no title or summary")

var tickerPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// Scorer turns a raw article into a scored one.
type Scorer interface {
	Score(raw models.RawArticle) (models.Article, error)
}

// Keyword is a lexicon-driven Scorer.
type Keyword struct{}

func NewKeyword() *Keyword {
	return &Keyword{}
}

func (k *Keyword) Score(raw models.RawArticle) (models.Article, error) {
	if strings.TrimSpace(raw.Title) == "" && strings.TrimSpace(raw.Summary) == "" {
		return models.Article{}, ErrEmptyInput
	}

	text := raw.Title + " " + raw.Summary
	doc := newDocument(text)
	category := classify(raw.Title, raw.Summary, raw.CategoryHint)
	assets := mergeAssets(extractAssets(text), raw.Assets)

	net, sentCue := directional(doc)
	sentiment := models.SentimentNeutral
	switch {
	case net >= 1:
		sentiment = models.SentimentBullish
	case net <= -1:
		sentiment = models.SentimentBearish
	}

	dir := math.Tanh(0.3 * net)
	bias := round3(clamp(dir+categoryPrior[category], -1, 1))

	impactSum, impactCue := sumWeights(doc, impactCues)
	impact := 20 + impactSum + assetBonus(assets)

	volSum, volCue := sumWeights(doc, volatilityCues)
	volatility := 15 + volSum + 20*math.Abs(dir)

	a := models.Article{
		ID:              store.DedupKey(raw.Title, raw.Source, raw.Timestamp),
		Title:           raw.Title,
		Summary:         raw.Summary,
		URL:             raw.URL,
		Source:          raw.Source,
		Timestamp:       raw.Timestamp,
		Category:        category,
		Assets:          assets,
		Sentiment:       sentiment,
		ImpactScore:     clampScore(impact),
		VolatilityScore: clampScore(volatility),
		BiasScore:       bias,
	}
	a.Importance = importanceFor(a.ImpactScore)

	reasons := []string{"category:" + string(category)}
	if impactCue != "" {
		reasons = append(reasons, "impact:"+impactCue)
	}
	if sentiment != models.SentimentNeutral && sentCue != "" {
		reasons = append(reasons, string(sentiment)+":"+sentCue)
	}
	if volCue != "" && volCue != impactCue {
		reasons = append(reasons, "volatility:"+volCue)
	}
	for _, asset := range assets {
		reasons = append(reasons, "asset:"+asset)
	}
	if len(reasons) > MaxReasons {
		reasons = reasons[:MaxReasons]
	}
	a.Reasons = reasons
	return a, nil
}

func importanceFor(impact int) models.Importance {
	switch {
	case impact >= 70:
		return models.ImportanceHigh
	case impact >= 40:
		return models.ImportanceMedium
	default:
		return models.ImportanceLow
	}
}

// Safe wraps a Scorer so that errors and panics degrade to a neutral,
// low-importance record instead of dropping the article.
type Safe struct {
	inner  Scorer
	logger *slog.Logger
}

func NewSafe(inner Scorer, logger *slog.Logger) *Safe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Safe{inner: inner, logger: logger}
}

// Score always returns an article; degraded reports whether the fallback was used.
func (s *Safe) Score(raw models.RawArticle) (a models.Article, degraded bool) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Warn("scorer panicked", "source", raw.Source, "title", raw.Title, "panic", fmt.Sprint(rec))
			a, degraded = Degraded(raw), true
		}
	}()
	if s.inner == nil {
		return Degraded(raw), true
	}
	scored, err := s.inner.Score(raw)
	if err != nil {
		s.logger.Warn("scoring degraded", "source", raw.Source, "title", raw.Title, "error", err)
		return Degraded(raw), true
	}
	return scored, false
}

// Degraded builds the fallback record for raw.
func Degraded(raw models.RawArticle) models.Article {
	category := models.CategoryOther
	if c, ok := models.ParseCategory(strings.ToLower(strings.TrimSpace(raw.CategoryHint))); ok {
		category = c
	}
	return models.Article{
		ID:         store.DedupKey(raw.Title, raw.Source, raw.Timestamp),
		Title:      raw.Title,
		Summary:    raw.Summary,
		URL:        raw.URL,
		Source:     raw.Source,
		Timestamp:  raw.Timestamp,
		Category:   category,
		Assets:     mergeAssets(nil, raw.Assets),
		Sentiment:  models.SentimentNeutral,
		Importance: models.ImportanceLow,
		Reasons:    []string{"degraded"},
	}
}

// document is a lowercased, token-split view of article text.
type document struct {
	padded string
	tokens map[string]bool
}

func newDocument(text string) document {
	words := splitWords(strings.ToLower(text))
	tokens := make(map[string]bool, len(words))
	for _, w := range words {
		tokens[w] = true
	}
	return document{padded: " " + strings.Join(words, " ") + " ", tokens: tokens}
}

func (d document) has(term string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(d.padded, " "+term+" ")
	}
	return d.tokens[term]
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '$'
	})
}

// classify weights title hits twice as heavily as summary hits. A valid hint
// adds a prior worth one title hit.
func classify(title, summary, hint string) models.Category {
	titleDoc := newDocument(title)
	summaryDoc := newDocument(summary)
	hintCat, hinted := models.ParseCategory(strings.ToLower(strings.TrimSpace(hint)))

	best := models.CategoryOther
	bestScore := 0
	for _, cat := range models.AllCategories() {
		score := 0
		for _, kw := range categoryKeywords[cat] {
			if titleDoc.has(kw) {
				score += 2
			}
			if summaryDoc.has(kw) {
				score++
			}
		}
		if hinted && cat == hintCat {
			score += 2
		}
		if score > bestScore {
			best, bestScore = cat, score
		}
	}
	return best
}

// directional returns bullish minus bearish cue weight and the strongest cue
// on the winning side.
func directional(doc document) (float64, string) {
	bull, bullCue := sumWeights(doc, bullishCues)
	bear, bearCue := sumWeights(doc, bearishCues)
	net := bull - bear
	if net < 0 {
		return net, bearCue
	}
	return net, bullCue
}

func sumWeights(doc document, cues []cue) (float64, string) {
	total, strongest, top := 0.0, 0.0, ""
	for _, c := range cues {
		if !doc.has(c.term) {
			continue
		}
		total += c.weight
		if c.weight > strongest {
			strongest, top = c.weight, c.term
		}
	}
	return total, top
}

func extractAssets(text string) []string {
	var out []string
	for _, w := range splitWords(text) {
		bare := strings.TrimLeft(w, "$")
		if knownTickers[bare] {
			out = append(out, bare)
			continue
		}
		if t, ok := assetNames[strings.ToLower(bare)]; ok {
			out = append(out, t)
		}
	}
	return out
}

// mergeAssets uppercases, validates and dedupes tickers into a sorted set.
func mergeAssets(lists ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, list := range lists {
		for _, a := range list {
			a = strings.ToUpper(strings.TrimSpace(strings.TrimLeft(a, "$")))
			if !tickerPattern.MatchString(a) || seen[a] {
				continue
			}
			seen[a] = true
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}

func assetBonus(assets []string) float64 {
	bonus, extra := 0.0, 0.0
	for _, a := range assets {
		if majorAssets[a] && bonus == 0 {
			bonus = 10
			continue
		}
		extra += 5
	}
	if extra > 10 {
		extra = 10
	}
	return bonus + extra
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampScore(v float64) int {
	return int(math.Round(clamp(v, 0, 100)))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
