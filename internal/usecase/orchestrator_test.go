package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"HuntScanner/internal/dedup"
	"HuntScanner/internal/domain"
	"HuntScanner/internal/fetch"
	"HuntScanner/internal/normalize"
	"HuntScanner/internal/score"
	"HuntScanner/internal/taxonomy"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	respond func(ctx context.Context, src domain.Source) ([]domain.CandidateArticle, error)
}

func newFakeFetcher(respond func(ctx context.Context, src domain.Source) ([]domain.CandidateArticle, error)) *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int), respond: respond}
}

func (f *fakeFetcher) Mode() domain.FetchMode { return domain.ModeRSS }

func (f *fakeFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.CandidateArticle, error) {
	f.mu.Lock()
	f.calls[src.Identifier]++
	f.mu.Unlock()
	return f.respond(ctx, src)
}

func (f *fakeFetcher) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

type fakeStore struct {
	mu           sync.Mutex
	articles     []domain.ScoredArticle
	checks       []domain.SourceCheckRecord
	health       map[string]domain.HealthState
	persistErr   error
	persistCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{health: make(map[string]domain.HealthState)}
}

func (s *fakeStore) PersistArticle(_ context.Context, a domain.ScoredArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistCalls++
	if s.persistErr != nil {
		return s.persistErr
	}
	s.articles = append(s.articles, a)
	return nil
}

func (s *fakeStore) PersistCheck(_ context.Context, rec domain.SourceCheckRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, rec)
	return nil
}

func (s *fakeStore) UpdateHealth(_ context.Context, sourceID string, state domain.HealthState, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health[sourceID] = state
	return nil
}

func (s *fakeStore) KnownHashes(context.Context) ([]string, error) { return nil, nil }

func (s *fakeStore) articleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles)
}

func testSource(id string) domain.Source {
	return domain.Source{
		Identifier: id,
		Name:       id,
		URL:        "https://" + id + ".example",
		Mode:       domain.ModeRSS,
		Active:     true,
		Health:     domain.HealthActive,
	}
}

func candidate(sourceID, url, body string) domain.CandidateArticle {
	return domain.CandidateArticle{
		URL:      url,
		Title:    "post",
		RawText:  body,
		SourceID: sourceID,
	}
}

func newTestOrchestrator(t *testing.T, fetcher *fakeFetcher, store *fakeStore, opts Options, sources ...domain.Source) *Orchestrator {
	t.Helper()

	registry := fetch.NewRegistry()
	registry.Register(fetcher)

	tax, err := taxonomy.Default()
	if err != nil {
		t.Fatalf("taxonomy: %v", err)
	}

	return New(Deps{
		Registry:   registry,
		Normalizer: normalize.New(),
		Dedup:      dedup.NewMemory(),
		Scorer:     score.New(tax),
		Store:      store,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Options:    opts,
	}, sources)
}

func TestFailingSourceDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(func(_ context.Context, src domain.Source) ([]domain.CandidateArticle, error) {
		if src.Identifier == "broken" {
			return nil, errors.New("connection refused")
		}
		return []domain.CandidateArticle{
			candidate(src.Identifier, src.URL+"/1", "analysts found mimikatz on the host"),
		}, nil
	})
	store := newFakeStore()
	o := newTestOrchestrator(t, fetcher, store, Options{},
		testSource("broken"), testSource("healthy"))

	results := o.RunCycle(context.Background())

	if got := results["broken"].Outcome; got != domain.OutcomeFailed {
		t.Fatalf("broken outcome = %s, want failed", got)
	}
	if results["broken"].Err == "" {
		t.Fatalf("failed result must carry error detail")
	}
	if got := results["healthy"].Outcome; got != domain.OutcomeSuccess {
		t.Fatalf("healthy outcome = %s, want success", got)
	}
	if results["healthy"].CandidatesNew != 1 {
		t.Fatalf("healthy new = %d, want 1", results["healthy"].CandidatesNew)
	}
	if store.articleCount() != 1 {
		t.Fatalf("persisted = %d, want 1", store.articleCount())
	}
	if store.articles[0].HuntScore <= 0 {
		t.Fatalf("saved article should have a positive hunt score")
	}
}

func TestHardThresholdDisablesSource(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(func(context.Context, domain.Source) ([]domain.CandidateArticle, error) {
		return nil, errors.New("dns failure")
	})
	store := newFakeStore()
	o := newTestOrchestrator(t, fetcher, store, Options{Thresholds: domain.HealthThresholds{Soft: 3, Hard: 5}},
		testSource("flaky"))

	ctx := context.Background()
	var last domain.CheckResult
	for i := 0; i < 5; i++ {
		last = o.RunCycle(ctx)["flaky"]
	}

	if last.Health != domain.HealthDisabled {
		t.Fatalf("health after 5 failed checks = %s, want disabled", last.Health)
	}
	if fetcher.callCount("flaky") != 5 {
		t.Fatalf("fetch calls = %d, want 5", fetcher.callCount("flaky"))
	}

	// A disabled source must not be scheduled again.
	if results := o.RunCycle(ctx); len(results) != 0 {
		t.Fatalf("disabled source still scheduled: %v", results)
	}
	if fetcher.callCount("flaky") != 5 {
		t.Fatalf("fetcher invoked for a disabled source")
	}
	if store.health["flaky"] != domain.HealthDisabled {
		t.Fatalf("store health = %s, want disabled", store.health["flaky"])
	}
}

func TestDegradedSourceStaysScheduledAndRecovers(t *testing.T) {
	t.Parallel()

	var failing sync.Map
	failing.Store("wobbly", true)

	fetcher := newFakeFetcher(func(_ context.Context, src domain.Source) ([]domain.CandidateArticle, error) {
		if v, _ := failing.Load(src.Identifier); v == true {
			return nil, errors.New("timeout")
		}
		return nil, nil
	})
	store := newFakeStore()
	o := newTestOrchestrator(t, fetcher, store, Options{Thresholds: domain.HealthThresholds{Soft: 3, Hard: 5}},
		testSource("wobbly"))

	ctx := context.Background()
	var last domain.CheckResult
	for i := 0; i < 3; i++ {
		last = o.RunCycle(ctx)["wobbly"]
	}
	if last.Health != domain.HealthDegraded {
		t.Fatalf("health after 3 failures = %s, want degraded", last.Health)
	}

	failing.Store("wobbly", false)
	res := o.RunCycle(ctx)["wobbly"]
	if res.Outcome != domain.OutcomeSuccess || res.Health != domain.HealthActive {
		t.Fatalf("successful check must restore active: outcome=%s health=%s", res.Outcome, res.Health)
	}
}

func TestDuplicateContentAcrossSources(t *testing.T) {
	t.Parallel()

	const body = "<p>Shared advisory about rundll32.exe abuse.</p>"
	fetcher := newFakeFetcher(func(_ context.Context, src domain.Source) ([]domain.CandidateArticle, error) {
		return []domain.CandidateArticle{
			candidate(src.Identifier, "https://"+src.Identifier+".example/advisory", body),
		}, nil
	})
	store := newFakeStore()
	// One worker makes the order deterministic enough to assert totals.
	o := newTestOrchestrator(t, fetcher, store, Options{Workers: 1},
		testSource("origin"), testSource("mirror"))

	results := o.RunCycle(context.Background())

	var newTotal, dupTotal int
	for _, res := range results {
		newTotal += res.CandidatesNew
		dupTotal += res.Duplicates
	}
	if newTotal != 1 || dupTotal != 1 {
		t.Fatalf("new=%d dup=%d, want exactly one of each", newTotal, dupTotal)
	}
	if store.articleCount() != 1 {
		t.Fatalf("persisted = %d, want 1", store.articleCount())
	}
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(func(ctx context.Context, _ domain.Source) ([]domain.CandidateArticle, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	store := newFakeStore()
	o := newTestOrchestrator(t, fetcher, store, Options{FetchTimeout: 20 * time.Millisecond},
		testSource("slow"))

	res := o.RunCycle(context.Background())["slow"]
	if res.Outcome != domain.OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", res.Outcome)
	}
	if !strings.Contains(res.Err, "deadline") {
		t.Fatalf("expected deadline error, got %q", res.Err)
	}
}

func TestPersistFailureYieldsPartialOutcome(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(func(_ context.Context, src domain.Source) ([]domain.CandidateArticle, error) {
		return []domain.CandidateArticle{
			candidate(src.Identifier, src.URL+"/1", "unique text one with mimikatz"),
		}, nil
	})
	store := newFakeStore()
	store.persistErr = errors.New("disk full")
	o := newTestOrchestrator(t, fetcher, store, Options{}, testSource("src"))

	res := o.RunCycle(context.Background())["src"]

	if res.Outcome != domain.OutcomePartial {
		t.Fatalf("outcome = %s, want partial", res.Outcome)
	}
	if res.Failures != 1 {
		t.Fatalf("failures = %d, want 1", res.Failures)
	}
	// One retry after the first failure, then the article is dropped.
	if store.persistCalls != 2 {
		t.Fatalf("persist calls = %d, want 2", store.persistCalls)
	}
	// Partial checks do not advance the failure counter.
	if res.Health != domain.HealthActive {
		t.Fatalf("health = %s, want active", res.Health)
	}
}

func TestScrapeSourceRefusals(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(func(context.Context, domain.Source) ([]domain.CandidateArticle, error) {
		return nil, errors.New("down")
	})
	store := newFakeStore()

	inactive := testSource("paused")
	inactive.Active = false
	o := newTestOrchestrator(t, fetcher, store, Options{Thresholds: domain.HealthThresholds{Soft: 3, Hard: 5}},
		testSource("flaky"), inactive)

	ctx := context.Background()

	if _, err := o.ScrapeSource(ctx, "no-such-source"); err == nil {
		t.Fatalf("unknown source must be refused")
	}
	if _, err := o.ScrapeSource(ctx, "paused"); err == nil {
		t.Fatalf("inactive source must be refused")
	}

	for i := 0; i < 5; i++ {
		o.RunCycle(ctx)
	}
	if _, err := o.ScrapeSource(ctx, "flaky"); err == nil {
		t.Fatalf("disabled source must be refused")
	}
}

func TestReactivate(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(func(context.Context, domain.Source) ([]domain.CandidateArticle, error) {
		return nil, nil
	})
	store := newFakeStore()
	o := newTestOrchestrator(t, fetcher, store, Options{}, testSource("src"))

	ctx := context.Background()
	if err := o.Reactivate(ctx, "missing"); err == nil {
		t.Fatalf("unknown source must be refused")
	}

	// Force the source into the disabled state directly via failures.
	o.mu.Lock()
	o.sources["src"].Health = domain.HealthDisabled
	o.sources["src"].ConsecutiveFailures = 5
	o.mu.Unlock()

	if err := o.Reactivate(ctx, "src"); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	snap := o.Snapshot()
	if len(snap) != 1 || snap[0].Health != domain.HealthActive || snap[0].ConsecutiveFailures != 0 {
		t.Fatalf("unexpected state after reactivate: %+v", snap)
	}
	if store.health["src"] != domain.HealthActive {
		t.Fatalf("store health = %s, want active", store.health["src"])
	}

	res := o.RunCycle(ctx)
	if _, ok := res["src"]; !ok {
		t.Fatalf("reactivated source must be schedulable again")
	}
}

func TestNotDueSourceSkipped(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(func(context.Context, domain.Source) ([]domain.CandidateArticle, error) {
		return nil, nil
	})
	store := newFakeStore()

	src := testSource("fresh")
	src.CheckFrequency = time.Hour
	src.LastCheckedAt = time.Now()
	o := newTestOrchestrator(t, fetcher, store, Options{}, src)

	if results := o.RunCycle(context.Background()); len(results) != 0 {
		t.Fatalf("source checked before its frequency elapsed: %v", results)
	}
	if fetcher.callCount("fresh") != 0 {
		t.Fatalf("fetcher invoked for a source that was not due")
	}
}

func TestCheckRecordsWritten(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(func(_ context.Context, src domain.Source) ([]domain.CandidateArticle, error) {
		return []domain.CandidateArticle{
			candidate(src.Identifier, src.URL+"/a", "first body with lsass.exe dump"),
			candidate(src.Identifier, src.URL+"/b", "first body with lsass.exe dump"),
		}, nil
	})
	store := newFakeStore()
	o := newTestOrchestrator(t, fetcher, store, Options{}, testSource("src"))

	o.RunCycle(context.Background())

	if len(store.checks) != 1 {
		t.Fatalf("check records = %d, want 1", len(store.checks))
	}
	rec := store.checks[0]
	if rec.SourceID != "src" || rec.CandidatesSeen != 2 || rec.CandidatesNew != 1 || rec.Duplicates != 1 {
		t.Fatalf("unexpected check record: %+v", rec)
	}
	if rec.ID == "" || rec.StartedAt.IsZero() {
		t.Fatalf("check record missing identity fields: %+v", rec)
	}
}
