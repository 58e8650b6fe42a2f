package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"HuntScanner/internal/domain"
	"HuntScanner/internal/fetch"
	"HuntScanner/internal/ports"
	"HuntScanner/internal/score"
)

// Options tune a cycle's concurrency, timeouts, and health thresholds.
type Options struct {
	Workers      int
	FetchTimeout time.Duration
	Thresholds   domain.HealthThresholds
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 30 * time.Second
	}
	if o.Thresholds.Soft <= 0 || o.Thresholds.Hard <= 0 {
		o.Thresholds = domain.DefaultThresholds()
	}
	return o
}

// Deps wires all collaborators into the orchestrator.
type Deps struct {
	Registry   *fetch.Registry
	Normalizer ports.Normalizer
	Dedup      ports.Deduplicator
	Scorer     *score.Scorer
	Store      ports.Store
	Logger     *slog.Logger
	Options    Options
}

// Orchestrator iterates configured sources, dispatches due checks over
// a bounded worker pool, routes candidates through normalize ->
// deduplicate -> score -> persist, and folds each outcome into the
// source health state machine. The source table is the orchestrator's
// only shared mutable state and is guarded by mu.
type Orchestrator struct {
	registry   *fetch.Registry
	normalizer ports.Normalizer
	dedup      ports.Deduplicator
	scorer     *score.Scorer
	store      ports.Store
	logger     *slog.Logger
	opts       Options

	mu      sync.Mutex
	sources map[string]*domain.Source

	now func() time.Time
}

// New builds an orchestrator over a static source list. Source state is
// owned here from this point on; callers must not retain the slice
// elements.
func New(deps Deps, sources []domain.Source) *Orchestrator {
	o := &Orchestrator{
		registry:   deps.Registry,
		normalizer: deps.Normalizer,
		dedup:      deps.Dedup,
		scorer:     deps.Scorer,
		store:      deps.Store,
		logger:     deps.Logger,
		opts:       deps.Options.withDefaults(),
		sources:    make(map[string]*domain.Source, len(sources)),
		now:        time.Now,
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	for i := range sources {
		src := sources[i]
		if src.Health == "" {
			src.Health = domain.HealthActive
		}
		o.sources[src.Identifier] = &src
	}
	return o
}

// RunCycle checks every due source once and returns a per-source
// result map. Sources that were skipped (disabled, inactive, not due)
// do not appear. Nothing a single source does can abort the cycle;
// errors surface only inside the returned results.
func (o *Orchestrator) RunCycle(ctx context.Context) map[string]domain.CheckResult {
	cycleID := uuid.NewString()
	due := o.dueSources()

	o.logger.Info("cycle start", "cycle", cycleID, "due", len(due), "total", o.sourceCount())

	results := make(map[string]domain.CheckResult, len(due))
	var (
		resultsMu sync.Mutex
		wg        sync.WaitGroup
	)
	sem := make(chan struct{}, o.opts.Workers)

	for _, src := range due {
		if ctx.Err() != nil {
			// Cooperative shutdown: stop scheduling new sources,
			// let the in-flight ones finish or time out.
			break
		}
		wg.Add(1)
		go func(src domain.Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res := o.checkSource(ctx, src)
			resultsMu.Lock()
			results[src.Identifier] = res
			resultsMu.Unlock()
		}(src)
	}
	wg.Wait()

	o.logger.Info("cycle done", "cycle", cycleID, "checked", len(results))
	return results
}

// ScrapeSource runs a single source on demand, ignoring its schedule.
// Unknown, inactive, and disabled sources are refused.
func (o *Orchestrator) ScrapeSource(ctx context.Context, identifier string) (domain.CheckResult, error) {
	o.mu.Lock()
	src, ok := o.sources[identifier]
	if !ok {
		o.mu.Unlock()
		return domain.CheckResult{}, fmt.Errorf("source not found: %s", identifier)
	}
	if !src.Active {
		o.mu.Unlock()
		return domain.CheckResult{}, fmt.Errorf("source is not active: %s", identifier)
	}
	if src.Health == domain.HealthDisabled {
		o.mu.Unlock()
		return domain.CheckResult{}, fmt.Errorf("source is disabled: %s", identifier)
	}
	snapshot := *src
	o.mu.Unlock()

	return o.checkSource(ctx, snapshot), nil
}

// Reactivate is the explicit external reset out of DISABLED.
func (o *Orchestrator) Reactivate(ctx context.Context, identifier string) error {
	o.mu.Lock()
	src, ok := o.sources[identifier]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("source not found: %s", identifier)
	}
	src.Reactivate()
	snapshot := *src
	o.mu.Unlock()

	return o.store.UpdateHealth(ctx, snapshot.Identifier, snapshot.Health, snapshot.ConsecutiveFailures)
}

// Snapshot returns a copy of the current source table for reporting.
func (o *Orchestrator) Snapshot() []domain.Source {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.Source, 0, len(o.sources))
	for _, src := range o.sources {
		out = append(out, *src)
	}
	return out
}

func (o *Orchestrator) dueSources() []domain.Source {
	now := o.now()
	o.mu.Lock()
	defer o.mu.Unlock()
	var due []domain.Source
	for _, src := range o.sources {
		if src.Due(now) {
			due = append(due, *src)
		}
	}
	return due
}

func (o *Orchestrator) sourceCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sources)
}

// checkSource runs one source end to end: fetch under timeout, process
// candidates, write the check record, fold the outcome into health.
func (o *Orchestrator) checkSource(ctx context.Context, src domain.Source) domain.CheckResult {
	log := o.logger.With("source", src.Identifier)
	startedAt := o.now()

	res := domain.CheckResult{SourceID: src.Identifier}

	fetchCtx, cancel := context.WithTimeout(ctx, o.opts.FetchTimeout)
	defer cancel()

	candidates, fetchErr := o.fetchCandidates(fetchCtx, src)
	if fetchErr != nil {
		res.Outcome = domain.OutcomeFailed
		res.Err = fetchErr.Error()
		log.Warn("check failed", "error", fetchErr)
	} else {
		res.CandidatesSeen = len(candidates)
		for _, candidate := range candidates {
			switch o.processCandidate(ctx, candidate, log) {
			case candidateNew:
				res.CandidatesNew++
			case candidateDuplicate:
				res.Duplicates++
			case candidateFailed:
				res.Failures++
			}
		}
		if res.Failures > 0 {
			res.Outcome = domain.OutcomePartial
		} else {
			res.Outcome = domain.OutcomeSuccess
		}
	}
	res.Duration = o.now().Sub(startedAt)

	res.Health = o.foldHealth(ctx, src.Identifier, res)
	o.recordCheck(ctx, src, startedAt, res, log)

	log.Debug("check complete",
		"outcome", res.Outcome,
		"seen", res.CandidatesSeen,
		"new", res.CandidatesNew,
		"duplicates", res.Duplicates)
	return res
}

func (o *Orchestrator) fetchCandidates(ctx context.Context, src domain.Source) ([]domain.CandidateArticle, error) {
	fetcher, err := o.registry.Resolve(src.Mode)
	if err != nil {
		return nil, err
	}
	return fetcher.Fetch(ctx, src)
}

type candidateOutcome int

const (
	candidateNew candidateOutcome = iota
	candidateDuplicate
	candidateFailed
)

// processCandidate routes one candidate through the pipeline. TryAccept
// and the subsequent persist form the atomic unit: only the caller that
// won the hash may persist, and the store's unique constraint backs the
// same rule when a DB deduplicator is in play.
func (o *Orchestrator) processCandidate(ctx context.Context, candidate domain.CandidateArticle, log *slog.Logger) candidateOutcome {
	normalized := o.normalizer.Apply(candidate)

	accepted, err := o.dedup.TryAccept(ctx, normalized.ContentHash)
	if err != nil {
		log.Warn("dedup check failed", "url", candidate.URL, "error", err)
		return candidateFailed
	}
	if !accepted {
		return candidateDuplicate
	}

	value, breakdown := o.scorer.Score(normalized.NormalizedText)
	article := domain.ScoredArticle{
		NormalizedArticle: normalized,
		HuntScore:         value,
		Breakdown:         breakdown,
		WordCount:         len(strings.Fields(normalized.NormalizedText)),
		TaxonomyVersion:   o.scorer.TaxonomyVersion(),
		DiscoveredAt:      o.now().UTC(),
	}

	if err := o.persistWithRetry(ctx, article); err != nil {
		log.Warn("persist failed, article dropped", "url", candidate.URL, "error", err)
		return candidateFailed
	}

	log.Info("article saved", "url", candidate.URL, "hunt_score", value)
	return candidateNew
}

// persistWithRetry gives the store one extra attempt before the
// article is dropped and counted as a failure.
func (o *Orchestrator) persistWithRetry(ctx context.Context, article domain.ScoredArticle) error {
	err := o.store.PersistArticle(ctx, article)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	return o.store.PersistArticle(ctx, article)
}

// foldHealth applies the check outcome to the source's state machine
// under the table lock and pushes the new state to the store.
func (o *Orchestrator) foldHealth(ctx context.Context, identifier string, res domain.CheckResult) domain.HealthState {
	now := o.now()

	o.mu.Lock()
	src, ok := o.sources[identifier]
	if !ok {
		o.mu.Unlock()
		return ""
	}
	if res.Outcome == domain.OutcomeFailed {
		src.RecordFailure(now, o.opts.Thresholds)
	} else {
		src.RecordSuccess(now, res.CandidatesNew)
	}
	state := src.Health
	failures := src.ConsecutiveFailures
	o.mu.Unlock()

	if err := o.store.UpdateHealth(ctx, identifier, state, failures); err != nil {
		o.logger.Warn("health update failed", "source", identifier, "error", err)
	}
	return state
}

func (o *Orchestrator) recordCheck(ctx context.Context, src domain.Source, startedAt time.Time, res domain.CheckResult, log *slog.Logger) {
	rec := domain.SourceCheckRecord{
		ID:             uuid.NewString(),
		SourceID:       src.Identifier,
		Method:         src.Mode,
		StartedAt:      startedAt.UTC(),
		Duration:       res.Duration,
		CandidatesSeen: res.CandidatesSeen,
		CandidatesNew:  res.CandidatesNew,
		Duplicates:     res.Duplicates,
		Failures:       res.Failures,
		Outcome:        res.Outcome,
		ErrorDetail:    res.Err,
	}
	if err := o.store.PersistCheck(ctx, rec); err != nil {
		log.Warn("check record not persisted", "error", err)
	}
}
