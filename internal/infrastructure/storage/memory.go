package storage

import (
	"context"
	"sync"

	"HuntScanner/internal/domain"
	"HuntScanner/internal/ports"
)

// Memory is an in-process store used when no database is configured.
// It honors the same one-article-per-hash rule as the Postgres schema.
type Memory struct {
	mu       sync.Mutex
	articles map[string]domain.ScoredArticle
	checks   []domain.SourceCheckRecord
	health   map[string]domain.HealthState
}

var _ ports.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		articles: make(map[string]domain.ScoredArticle),
		health:   make(map[string]domain.HealthState),
	}
}

func (m *Memory) PersistArticle(_ context.Context, a domain.ScoredArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[a.ContentHash]; ok {
		return nil
	}
	m.articles[a.ContentHash] = a
	return nil
}

func (m *Memory) PersistCheck(_ context.Context, rec domain.SourceCheckRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, rec)
	return nil
}

func (m *Memory) UpdateHealth(_ context.Context, sourceID string, state domain.HealthState, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health[sourceID] = state
	return nil
}

func (m *Memory) KnownHashes(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hashes := make([]string, 0, len(m.articles))
	for h := range m.articles {
		hashes = append(hashes, h)
	}
	return hashes, nil
}

// Articles returns persisted articles, used by reporting and tests.
func (m *Memory) Articles() []domain.ScoredArticle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ScoredArticle, 0, len(m.articles))
	for _, a := range m.articles {
		out = append(out, a)
	}
	return out
}

// Checks returns the recorded check history.
func (m *Memory) Checks() []domain.SourceCheckRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SourceCheckRecord, len(m.checks))
	copy(out, m.checks)
	return out
}
