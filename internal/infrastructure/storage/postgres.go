package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"HuntScanner/internal/domain"
	"HuntScanner/internal/ports"
)

// metadataTermLimit caps how many matched terms are persisted per
// category; the full lists exist only in-flight.
const metadataTermLimit = 10

// Postgres persists scored articles, check history, and source health.
type Postgres struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.Store = (*Postgres)(nil)

// Open connects and bootstraps the schema.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	p := &Postgres{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
	if err := p.bootstrap(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// DB exposes the underlying handle so the Postgres deduplicator can
// share the connection pool.
func (p *Postgres) DB() *sql.DB {
	return p.db
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) bootstrap(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sources (
			identifier            TEXT PRIMARY KEY,
			health                TEXT NOT NULL DEFAULT 'active',
			consecutive_failures  INTEGER NOT NULL DEFAULT 0,
			updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS articles (
			id               BIGSERIAL PRIMARY KEY,
			source_id        TEXT NOT NULL,
			canonical_url    TEXT NOT NULL,
			title            TEXT NOT NULL,
			summary          TEXT,
			content          TEXT NOT NULL,
			content_hash     CHAR(64) NOT NULL UNIQUE,
			hunt_score       DOUBLE PRECISION NOT NULL,
			word_count       INTEGER NOT NULL,
			taxonomy_version TEXT NOT NULL,
			article_metadata JSONB,
			published_at     TIMESTAMPTZ,
			discovered_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_articles_source ON articles (source_id);
		CREATE INDEX IF NOT EXISTS idx_articles_hunt_score ON articles (hunt_score DESC);
		CREATE TABLE IF NOT EXISTS source_checks (
			id               TEXT PRIMARY KEY,
			source_id        TEXT NOT NULL,
			method           TEXT NOT NULL,
			started_at       TIMESTAMPTZ NOT NULL,
			duration_ms      DOUBLE PRECISION NOT NULL,
			candidates_seen  INTEGER NOT NULL,
			candidates_new   INTEGER NOT NULL,
			duplicates       INTEGER NOT NULL,
			failures         INTEGER NOT NULL,
			outcome          TEXT NOT NULL,
			error_detail     TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_source_checks_source ON source_checks (source_id, started_at DESC);
		CREATE TABLE IF NOT EXISTS content_hashes (
			content_hash CHAR(64) PRIMARY KEY
		);
	`)
	if err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

// PersistArticle inserts a scored article. The unique content_hash
// constraint backs the dedup guarantee across processes; a conflicting
// insert is treated as a duplicate, not a failure.
func (p *Postgres) PersistArticle(ctx context.Context, a domain.ScoredArticle) error {
	metadata, err := json.Marshal(truncatedBreakdown(a.Breakdown))
	if err != nil {
		return fmt.Errorf("%w: marshal metadata: %v", domain.ErrPersistence, err)
	}

	var publishedAt interface{}
	if !a.PublishedAt.IsZero() {
		publishedAt = a.PublishedAt
	}

	query, args, err := p.builder.
		Insert("articles").
		Columns("source_id", "canonical_url", "title", "summary", "content",
			"content_hash", "hunt_score", "word_count", "taxonomy_version",
			"article_metadata", "published_at", "discovered_at").
		Values(a.SourceID, a.URL, a.Title, a.Summary, a.NormalizedText,
			a.ContentHash, a.HuntScore, a.WordCount, a.TaxonomyVersion,
			metadata, publishedAt, a.DiscoveredAt).
		Suffix("ON CONFLICT (content_hash) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build insert: %v", domain.ErrPersistence, err)
	}

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insert article: %v", domain.ErrPersistence, err)
	}
	return nil
}

// PersistCheck appends a check record to the history.
func (p *Postgres) PersistCheck(ctx context.Context, rec domain.SourceCheckRecord) error {
	query, args, err := p.builder.
		Insert("source_checks").
		Columns("id", "source_id", "method", "started_at", "duration_ms",
			"candidates_seen", "candidates_new", "duplicates", "failures",
			"outcome", "error_detail").
		Values(rec.ID, rec.SourceID, string(rec.Method), rec.StartedAt,
			float64(rec.Duration)/float64(time.Millisecond),
			rec.CandidatesSeen, rec.CandidatesNew, rec.Duplicates,
			rec.Failures, string(rec.Outcome), rec.ErrorDetail).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build insert: %v", domain.ErrPersistence, err)
	}

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insert check: %v", domain.ErrPersistence, err)
	}
	return nil
}

// UpdateHealth upserts the source health row.
func (p *Postgres) UpdateHealth(ctx context.Context, sourceID string, state domain.HealthState, consecutiveFailures int) error {
	query, args, err := p.builder.
		Insert("sources").
		Columns("identifier", "health", "consecutive_failures", "updated_at").
		Values(sourceID, string(state), consecutiveFailures, time.Now().UTC()).
		Suffix(`ON CONFLICT (identifier) DO UPDATE
			SET health = EXCLUDED.health,
			    consecutive_failures = EXCLUDED.consecutive_failures,
			    updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build upsert: %v", domain.ErrPersistence, err)
	}

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: upsert health: %v", domain.ErrPersistence, err)
	}
	return nil
}

// KnownHashes loads every persisted content hash, used to warm an
// in-memory deduplicator at startup.
func (p *Postgres) KnownHashes(ctx context.Context) ([]string, error) {
	query, args, err := p.builder.Select("content_hash").From("content_hashes").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query hashes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan hash: %w", err)
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

func truncatedBreakdown(breakdown map[string]domain.CategoryScore) map[string]domain.CategoryScore {
	out := make(map[string]domain.CategoryScore, len(breakdown))
	for name, cs := range breakdown {
		terms := cs.MatchedTerms
		if len(terms) > metadataTermLimit {
			terms = terms[:metadataTermLimit]
		}
		out[name] = domain.CategoryScore{Points: cs.Points, MatchedTerms: terms}
	}
	return out
}
