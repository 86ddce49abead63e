// Package archive persists scored articles to Postgres so the in-memory
// store can be rebuilt after a restart.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"newssignal/backend-go/internal/models"
)

const table = "scored_articles"

const schema = `CREATE TABLE IF NOT EXISTS scored_articles (
    id               TEXT PRIMARY KEY,
    title            TEXT NOT NULL,
    summary          TEXT NOT NULL DEFAULT '',
    url              TEXT NOT NULL DEFAULT '',
    source           TEXT NOT NULL,
    published_at     TIMESTAMPTZ NOT NULL,
    category         TEXT NOT NULL,
    assets           TEXT[] NOT NULL DEFAULT '{}',
    sentiment        TEXT NOT NULL,
    importance       TEXT NOT NULL,
    impact_score     INTEGER NOT NULL,
    volatility_score INTEGER NOT NULL,
    bias_score       DOUBLE PRECISION NOT NULL,
    reasons          TEXT[] NOT NULL DEFAULT '{}',
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS scored_articles_published_at_idx ON scored_articles (published_at DESC);`

var columns = []string{
	"id", "title", "summary", "url", "source", "published_at", "category", "assets",
	"sentiment", "importance", "impact_score", "volatility_score", "bias_score", "reasons",
}

// Postgres is the archive backend.
type Postgres struct {
	db   *sql.DB
	psql sq.StatementBuilderType
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}
	return New(db), nil
}

func New(db *sql.DB) *Postgres {
	return &Postgres{db: db, psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate archive: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// Save upserts articles in one statement. A conflicting id is overwritten,
// matching the store's last-scored-wins replacement.
func (p *Postgres) Save(ctx context.Context, articles []models.Article) error {
	if len(articles) == 0 {
		return nil
	}
	query, args, err := p.saveQuery(articles)
	if err != nil {
		return fmt.Errorf("build save: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save articles: %w", err)
	}
	return nil
}

func (p *Postgres) saveQuery(articles []models.Article) (string, []any, error) {
	ins := p.psql.Insert(table).Columns(columns...)
	for _, a := range articles {
		ins = ins.Values(
			a.ID, a.Title, a.Summary, a.URL, a.Source, a.Timestamp.UTC(), string(a.Category),
			textArray(a.Assets), string(a.Sentiment), string(a.Importance),
			a.ImpactScore, a.VolatilityScore, a.BiasScore, textArray(a.Reasons),
		)
	}
	ins = ins.Suffix(`ON CONFLICT (id) DO UPDATE SET
        summary = EXCLUDED.summary,
        url = EXCLUDED.url,
        published_at = EXCLUDED.published_at,
        category = EXCLUDED.category,
        assets = EXCLUDED.assets,
        sentiment = EXCLUDED.sentiment,
        importance = EXCLUDED.importance,
        impact_score = EXCLUDED.impact_score,
        volatility_score = EXCLUDED.volatility_score,
        bias_score = EXCLUDED.bias_score,
        reasons = EXCLUDED.reasons,
        updated_at = NOW()`)
	return ins.ToSql()
}

// textArray keeps nil slices from becoming NULL.
func textArray(v []string) pq.StringArray {
	if v == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(v)
}

// LoadSince returns archived articles published at or after since, newest first.
func (p *Postgres) LoadSince(ctx context.Context, since time.Time) ([]models.Article, error) {
	query, args, err := p.loadQuery(since)
	if err != nil {
		return nil, fmt.Errorf("build load: %w", err)
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	var out []models.Article
	for rows.Next() {
		var (
			a                               models.Article
			category, sentiment, importance string
			assets, reasons                 pq.StringArray
		)
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Summary, &a.URL, &a.Source, &a.Timestamp, &category, &assets,
			&sentiment, &importance, &a.ImpactScore, &a.VolatilityScore, &a.BiasScore, &reasons,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.Timestamp = a.Timestamp.UTC()
		a.Category = models.Category(category)
		a.Sentiment = models.Sentiment(sentiment)
		a.Importance = models.Importance(importance)
		a.Assets = []string(assets)
		a.Reasons = []string(reasons)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func (p *Postgres) loadQuery(since time.Time) (string, []any, error) {
	return p.psql.Select(columns...).
		From(table).
		Where(sq.GtOrEq{"published_at": since.UTC()}).
		OrderBy("published_at DESC", "id ASC").
		ToSql()
}
