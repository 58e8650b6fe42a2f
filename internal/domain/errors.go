package domain

import "errors"

// Error taxonomy. All of these are contained at per-article or
// per-source scope; none may abort a cycle.
var (
	// ErrFetch wraps network or parse failures from a fetcher.
	ErrFetch = errors.New("fetch failed")

	// ErrPersistence wraps store write failures.
	ErrPersistence = errors.New("persistence failed")
)
