package domain

import "time"

// FetchMode selects how a source is checked.
type FetchMode string

const (
	ModeRSS FetchMode = "rss"
	ModeWeb FetchMode = "web"
)

// CandidateArticle is what a fetcher returns; it exists only in-flight.
type CandidateArticle struct {
	URL         string
	Title       string
	Summary     string
	Authors     []string
	RawText     string
	PublishedAt time.Time
	SourceID    string
}

// NormalizedArticle is a candidate with cleaned text and its content hash.
type NormalizedArticle struct {
	CandidateArticle
	NormalizedText string
	ContentHash    string
}

// CategoryScore holds one taxonomy category's contribution to the hunt score.
type CategoryScore struct {
	Points       float64
	MatchedTerms []string
}

// ScoredArticle is the persisted unit: a deduplicated article plus its
// hunt score and per-category breakdown.
type ScoredArticle struct {
	NormalizedArticle
	HuntScore       float64
	Breakdown       map[string]CategoryScore
	WordCount       int
	TaxonomyVersion string
	DiscoveredAt    time.Time
}

// CheckOutcome classifies a single source check.
type CheckOutcome string

const (
	OutcomeSuccess CheckOutcome = "success"
	OutcomePartial CheckOutcome = "partial"
	OutcomeFailed  CheckOutcome = "failed"
)

// SourceCheckRecord is the immutable history entry written after each check.
type SourceCheckRecord struct {
	ID             string
	SourceID       string
	Method         FetchMode
	StartedAt      time.Time
	Duration       time.Duration
	CandidatesSeen int
	CandidatesNew  int
	Duplicates     int
	Failures       int
	Outcome        CheckOutcome
	ErrorDetail    string
}

// CheckResult is the per-source summary returned from a cycle. Sources
// that were skipped (disabled, inactive, not due) do not produce one.
type CheckResult struct {
	SourceID       string
	Outcome        CheckOutcome
	CandidatesSeen int
	CandidatesNew  int
	Duplicates     int
	Failures       int
	Duration       time.Duration
	Err            string
	Health         HealthState
}
