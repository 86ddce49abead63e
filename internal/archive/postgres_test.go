package archive

import (
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newssignal/backend-go/internal/models"
)

func TestSaveQueryUpsertsAllRows(t *testing.T) {
	p := New(nil)
	ts := time.Date(2026, 6, 2, 9, 0, 0, 0, time.FixedZone("EST", -5*3600))
	articles := []models.Article{
		{ID: "a", Title: "one", Source: "wire", Timestamp: ts, Category: models.CategoryMarket, Assets: []string{"BTC"}, Sentiment: models.SentimentBullish, Importance: models.ImportanceHigh, ImpactScore: 80, Reasons: []string{"category:market"}},
		{ID: "b", Title: "two", Source: "wire", Timestamp: ts, Category: models.CategoryOther},
	}

	query, args, err := p.saveQuery(articles)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(query, "INSERT INTO scored_articles (id,title,summary"))
	assert.Contains(t, query, "$28")
	assert.NotContains(t, query, "?")
	assert.Contains(t, query, "ON CONFLICT (id) DO UPDATE SET")
	require.Len(t, args, 2*len(columns))

	assert.Equal(t, "a", args[0])
	assert.Equal(t, ts.UTC(), args[5])
	assert.Equal(t, pq.StringArray{"BTC"}, args[7])
	assert.Equal(t, 80, args[10])
}

func TestLoadQueryFiltersBySince(t *testing.T) {
	p := New(nil)
	since := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	query, args, err := p.loadQuery(since)
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+strings.Join(columns, ", ")+" FROM scored_articles WHERE published_at >= $1 ORDER BY published_at DESC, id ASC", query)
	assert.Equal(t, []any{since}, args)
}

func TestSchemaMatchesColumns(t *testing.T) {
	for _, c := range columns {
		assert.Contains(t, schema, c+" ")
	}
}

func TestTextArrayNeverNil(t *testing.T) {
	assert.Equal(t, pq.StringArray{}, textArray(nil))
	v, err := textArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}
