package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"HuntScanner/internal/config"
	"HuntScanner/internal/dedup"
	"HuntScanner/internal/domain"
	"HuntScanner/internal/fetch"
	"HuntScanner/internal/infrastructure/fetcher"
	"HuntScanner/internal/infrastructure/scheduler"
	"HuntScanner/internal/infrastructure/storage"
	"HuntScanner/internal/logging"
	"HuntScanner/internal/normalize"
	"HuntScanner/internal/ports"
	"HuntScanner/internal/score"
	"HuntScanner/internal/taxonomy"
	"HuntScanner/internal/usecase"
)

// Application wires configuration to the orchestrator and lifecycle.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	orchestrator *usecase.Orchestrator
	scheduler    ports.Scheduler
	closeStore   func() error
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.NewFromConfig(cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tax, err := taxonomy.Default()
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	store, deduplicator, closeStore, err := buildStorage(ctx, cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	registry := fetch.NewRegistry()
	registry.Register(fetch.WithRetry(fetcher.NewRSS(), cfg.Ingest.RetryAttempts, cfg.Ingest.RetryBackoff()))
	registry.Register(fetch.WithRetry(fetcher.NewWeb(nil), cfg.Ingest.RetryAttempts, cfg.Ingest.RetryBackoff()))

	orchestrator := usecase.New(usecase.Deps{
		Registry:   registry,
		Normalizer: normalize.New(),
		Dedup:      deduplicator,
		Scorer:     score.New(tax),
		Store:      store,
		Logger:     baseLogger.With("component", "orchestrator"),
		Options: usecase.Options{
			Workers:      cfg.Ingest.Workers,
			FetchTimeout: cfg.Ingest.FetchTimeout(),
			Thresholds:   cfg.Ingest.Thresholds(),
		},
	}, cfg.SourceTable())

	return &Application{
		cfg:          cfg,
		logger:       baseLogger,
		orchestrator: orchestrator,
		scheduler:    scheduler.NewCronScheduler(cfg.Scheduler.CronExpression),
		closeStore:   closeStore,
	}, nil
}

// Orchestrator exposes the ingestion core for on-demand triggers
// (single-source scrape, reactivation) by outer layers.
func (a *Application) Orchestrator() *usecase.Orchestrator {
	return a.orchestrator
}

// Run starts the cron-driven ingestion loop and blocks until the
// context is cancelled. In-flight source checks finish or time out;
// nothing is force-terminated mid-fetch.
func (a *Application) Run(ctx context.Context) error {
	job := func(trigger time.Time) {
		results := a.orchestrator.RunCycle(ctx)
		a.logCycleSummary(trigger, results)
	}
	if err := a.scheduler.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			a.logger.Warn("store close", "error", err)
		}
	}
	return nil
}

func (a *Application) logCycleSummary(trigger time.Time, results map[string]domain.CheckResult) {
	var seen, saved, duplicates, failed int
	for _, res := range results {
		seen += res.CandidatesSeen
		saved += res.CandidatesNew
		duplicates += res.Duplicates
		if res.Outcome == domain.OutcomeFailed {
			failed++
		}
	}
	a.logger.Info("ingestion cycle summary",
		"trigger", trigger.Format(time.RFC3339),
		"sources_checked", len(results),
		"candidates_seen", seen,
		"articles_saved", saved,
		"duplicates_skipped", duplicates,
		"sources_failed", failed)
}

// buildStorage picks Postgres when a DSN is configured, otherwise the
// in-memory store. With Postgres the hash set lives behind the DB's
// uniqueness constraint so the dedup guarantee spans processes.
func buildStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.Store, ports.Deduplicator, func() error, error) {
	if cfg.Database.DSN == "" {
		logger.Info("no database configured, using in-memory store")
		store := storage.NewMemory()
		d, err := warmMemoryDedup(ctx, store)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, d, nil, nil
	}

	pg, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}
	return pg, dedup.NewPostgres(pg.DB()), pg.Close, nil
}

// warmMemoryDedup seeds a fresh in-memory deduplicator with every hash
// the store already knows, so restarts do not re-accept persisted
// content.
func warmMemoryDedup(ctx context.Context, store ports.Store) (*dedup.Memory, error) {
	d := dedup.NewMemory()
	hashes, err := store.KnownHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load known hashes: %w", err)
	}
	d.Preload(hashes)
	return d, nil
}
