// Package store holds scored articles in memory behind sharded locks.
package store

import (
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"newssignal/backend-go/internal/models"
)

const shardCount = 16

type UpsertResult string

const (
	Inserted  UpsertResult = "inserted"
	Replaced  UpsertResult = "replaced"
	Duplicate UpsertResult = "duplicate"
)

// Filter narrows a Query. Zero values disable each criterion.
type Filter struct {
	Asset     string
	Category  models.Category
	Since     time.Time
	MinImpact int
	Text      string
	Limit     int
}

type shard struct {
	mu         sync.RWMutex
	articles   map[string]models.Article
	byAsset    map[string]map[string]struct{}
	byCategory map[models.Category]map[string]struct{}
}

// Store is safe for concurrent use. Writes to the same id serialize on the
// owning shard; writes to ids on different shards do not contend.
type Store struct {
	shards [shardCount]*shard
}

func New() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{
			articles:   make(map[string]models.Article),
			byAsset:    make(map[string]map[string]struct{}),
			byCategory: make(map[models.Category]map[string]struct{}),
		}
	}
	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// Upsert stores a. An existing record with the same id is kept unless a has a
// strictly newer timestamp and a materially different summary, in which case
// a replaces it wholesale.
func (s *Store) Upsert(a models.Article) UpsertResult {
	a = a.Clone()
	sh := s.shardFor(a.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	prev, ok := sh.articles[a.ID]
	if !ok {
		sh.put(a)
		return Inserted
	}
	if !a.Timestamp.After(prev.Timestamp) || !materiallyDifferent(a.Summary, prev.Summary) {
		return Duplicate
	}
	sh.remove(prev)
	sh.put(a)
	return Replaced
}

func (sh *shard) put(a models.Article) {
	sh.articles[a.ID] = a
	for _, asset := range a.Assets {
		set := sh.byAsset[asset]
		if set == nil {
			set = make(map[string]struct{})
			sh.byAsset[asset] = set
		}
		set[a.ID] = struct{}{}
	}
	set := sh.byCategory[a.Category]
	if set == nil {
		set = make(map[string]struct{})
		sh.byCategory[a.Category] = set
	}
	set[a.ID] = struct{}{}
}

func (sh *shard) remove(a models.Article) {
	delete(sh.articles, a.ID)
	for _, asset := range a.Assets {
		if set := sh.byAsset[asset]; set != nil {
			delete(set, a.ID)
			if len(set) == 0 {
				delete(sh.byAsset, asset)
			}
		}
	}
	if set := sh.byCategory[a.Category]; set != nil {
		delete(set, a.ID)
		if len(set) == 0 {
			delete(sh.byCategory, a.Category)
		}
	}
}

// Get returns a copy of the article with the given id.
func (s *Store) Get(id string) (models.Article, bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	a, ok := sh.articles[id]
	if !ok {
		return models.Article{}, false
	}
	return a.Clone(), true
}

func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.articles)
		sh.mu.RUnlock()
	}
	return n
}

// Query returns copies of matching articles, newest first.
func (s *Store) Query(f Filter) []models.Article {
	text := strings.ToLower(strings.TrimSpace(f.Text))
	out := []models.Article{}
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, a := range sh.candidates(f) {
			if matches(a, f, text) {
				out = append(out, a.Clone())
			}
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// candidates picks the narrowest index for the filter. Caller holds sh.mu.
func (sh *shard) candidates(f Filter) []models.Article {
	var ids map[string]struct{}
	switch {
	case f.Asset != "":
		ids = sh.byAsset[f.Asset]
	case f.Category != "":
		ids = sh.byCategory[f.Category]
	default:
		out := make([]models.Article, 0, len(sh.articles))
		for _, a := range sh.articles {
			out = append(out, a)
		}
		return out
	}
	out := make([]models.Article, 0, len(ids))
	for id := range ids {
		out = append(out, sh.articles[id])
	}
	return out
}

func matches(a models.Article, f Filter, text string) bool {
	if f.Asset != "" && !a.HasAsset(f.Asset) {
		return false
	}
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	if !f.Since.IsZero() && a.Timestamp.Before(f.Since) {
		return false
	}
	if a.ImpactScore < f.MinImpact {
		return false
	}
	if text != "" {
		hay := strings.ToLower(a.Title + " " + a.Summary)
		if !strings.Contains(hay, text) {
			return false
		}
	}
	return true
}

// Prune drops articles published before cutoff and reports how many went.
func (s *Store) Prune(cutoff time.Time) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, a := range sh.articles {
			if a.Timestamp.Before(cutoff) {
				sh.remove(a)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}
