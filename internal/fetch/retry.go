package fetch

import (
	"context"
	"time"

	"HuntScanner/internal/domain"
	"HuntScanner/internal/ports"
)

// Retrying wraps a fetcher with a bounded retry policy. Fetch errors
// are retryable at this level; the orchestrator above sees only the
// final outcome.
type Retrying struct {
	inner    ports.Fetcher
	attempts int
	backoff  time.Duration
}

// WithRetry gives the fetcher attempts total tries with a fixed pause
// between them. attempts < 1 is treated as 1.
func WithRetry(inner ports.Fetcher, attempts int, backoff time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{inner: inner, attempts: attempts, backoff: backoff}
}

func (r *Retrying) Mode() domain.FetchMode {
	return r.inner.Mode()
}

func (r *Retrying) Fetch(ctx context.Context, src domain.Source) ([]domain.CandidateArticle, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff):
			}
		}
		candidates, err := r.inner.Fetch(ctx, src)
		if err == nil {
			return candidates, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}
