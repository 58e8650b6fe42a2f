// Package dedup provides the atomic check-and-insert over content
// hashes that guarantees at most one persisted article per hash, even
// when sources race on the same content.
package dedup

import (
	"context"
	"sync"

	"HuntScanner/internal/ports"
)

var (
	_ ports.Deduplicator = (*Memory)(nil)
	_ ports.Deduplicator = (*Postgres)(nil)
)

// Memory is the single-process backing: a mutex-guarded set. The
// check-and-insert happens under one lock acquisition, so two
// concurrent callers can never both see true for the same hash.
type Memory struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{seen: make(map[string]struct{})}
}

// TryAccept implements Deduplicator. It never returns an error.
func (m *Memory) TryAccept(_ context.Context, contentHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[contentHash]; ok {
		return false, nil
	}
	m.seen[contentHash] = struct{}{}
	return true, nil
}

// Preload marks hashes as already seen, used at startup to warm the set
// from persisted articles.
func (m *Memory) Preload(hashes []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range hashes {
		m.seen[h] = struct{}{}
	}
}

// Len reports the number of known hashes.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
