package ports

import (
	"context"
	"time"

	"HuntScanner/internal/domain"
)

// Fetcher retrieves candidate articles for a source. One implementation
// exists per fetch mode (RSS, web); retry/backoff policy is owned by a
// thin wrapper around the fetcher, not by callers.
type Fetcher interface {
	Mode() domain.FetchMode
	Fetch(ctx context.Context, src domain.Source) ([]domain.CandidateArticle, error)
}

// Normalizer cleans raw article markup into normalized text and derives
// the content hash.
type Normalizer interface {
	Apply(c domain.CandidateArticle) domain.NormalizedArticle
}

// Deduplicator accepts each content hash exactly once, atomically.
type Deduplicator interface {
	TryAccept(ctx context.Context, contentHash string) (bool, error)
}

// Store persists scored articles, check history, and source health.
type Store interface {
	PersistArticle(ctx context.Context, a domain.ScoredArticle) error
	PersistCheck(ctx context.Context, rec domain.SourceCheckRecord) error
	UpdateHealth(ctx context.Context, sourceID string, state domain.HealthState, consecutiveFailures int) error
	// KnownHashes loads previously persisted content hashes so an
	// in-memory deduplicator can be warmed at startup.
	KnownHashes(ctx context.Context) ([]string, error)
}

// Scheduler controls when ingestion cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
