package dedup

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Postgres backs the hash set with a uniqueness constraint, so the
// atomicity guarantee holds across processes. INSERT ... ON CONFLICT
// DO NOTHING reports via the affected-row count whether this caller
// won the race for the hash.
type Postgres struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// TryAccept implements Deduplicator.
func (p *Postgres) TryAccept(ctx context.Context, contentHash string) (bool, error) {
	query, args, err := p.builder.
		Insert("content_hashes").
		Columns("content_hash").
		Values(contentHash).
		Suffix("ON CONFLICT (content_hash) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert hash: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows == 1, nil
}
