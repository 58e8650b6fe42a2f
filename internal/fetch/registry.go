// Package fetch routes sources to the fetcher implementation for their
// fetch mode.
package fetch

import (
	"fmt"

	"HuntScanner/internal/domain"
	"HuntScanner/internal/ports"
)

// Registry keeps a mapping from fetch modes to their implementations.
type Registry struct {
	fetchers map[domain.FetchMode]ports.Fetcher
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: map[domain.FetchMode]ports.Fetcher{}}
}

// Register adds or replaces a fetcher implementation.
func (r *Registry) Register(f ports.Fetcher) {
	if r.fetchers == nil {
		r.fetchers = map[domain.FetchMode]ports.Fetcher{}
	}
	r.fetchers[f.Mode()] = f
}

// Resolve returns a fetcher by mode or an error if it is absent.
func (r *Registry) Resolve(mode domain.FetchMode) (ports.Fetcher, error) {
	if f, ok := r.fetchers[mode]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no fetcher registered for mode %q", mode)
}
