package main

import (
	"context"
	"log/slog"
	"time"

	"vantage/internal/analysis"
	"vantage/internal/collector"
	"vantage/internal/config"
	"vantage/internal/logging"
	"vantage/internal/orchestrator"
	"vantage/internal/quota"
	"vantage/internal/rollup"
	"vantage/internal/services"
	"vantage/internal/statestore"
	"vantage/internal/stream"
)

// Task cadences. The collection task runs often; the quota manager's
// per-category schedule decides what actually gets fetched each pass.
const (
	collectionInterval  = 5 * time.Minute
	analysisInterval    = 10 * time.Minute
	hourlyInterval      = time.Hour
	dailyInterval       = 24 * time.Hour
	maintenanceInterval = time.Hour
)

type pipeline struct {
	orch   *orchestrator.Orchestrator
	cache  *analysis.Cache
	runner *analysis.Runner
}

// buildPipeline wires the collector, analyzers, rollup jobs, and maintenance
// into a registered orchestrator.
func buildPipeline(cfg *config.Config, store *statestore.Store, aggregates *rollup.Store, manager *quota.Manager, logger *slog.Logger, fakeProvider bool) (*pipeline, error) {
	provider, err := selectProvider(cfg, fakeProvider)
	if err != nil {
		return nil, err
	}

	batch := collector.New(cfg, provider, manager, store, logger)
	cache := analysis.NewCache(cfg, store, logger)
	runner := analysis.NewRunner(cfg, cache, logger,
		analysis.NewFormatAnalyzer(cfg, store),
		analysis.NewRegionalAnalyzer(cfg, store),
		analysis.NewDurationAnalyzer(cfg, store),
		analysis.NewKeywordAnalyzer(cfg, store),
	)

	orch := orchestrator.New(cfg, store, manager, logger)
	hourly := rollup.NewHourlyJob(cfg, store, aggregates, logger)
	daily := rollup.NewDailyJob(cfg, aggregates, logger)

	tasks := []orchestrator.Task{
		{
			Name:     "collection",
			Priority: 1,
			Interval: collectionInterval,
			Run: func(ctx context.Context) error {
				_, err := batch.CollectAll(ctx)
				return err
			},
		},
		{
			Name:     "analysis",
			Priority: 2,
			Interval: analysisInterval,
			Run: func(ctx context.Context) error {
				reports := runner.AnalyzeAll(ctx, cfg.Collection.Categories, false)
				for _, report := range reports {
					if report.Failed > 0 && report.Succeeded == 0 && report.NoResult == 0 {
						return services.Wrap(services.ErrTransient, "analysis", "pass",
							"all analyzers failed for "+report.CategoryKey, nil)
					}
				}
				return nil
			},
		},
		{
			Name:     "hourly_rollup",
			Priority: 3,
			Interval: hourlyInterval,
			Run:      hourly.Run,
		},
		{
			Name:     "daily_rollup",
			Priority: 4,
			Interval: dailyInterval,
			Run:      daily.Run,
		},
		{
			Name:     "state_maintenance",
			Priority: 5,
			Interval: maintenanceInterval,
			Run: func(ctx context.Context) error {
				purged, err := store.PurgeExpired(ctx)
				if err != nil {
					return err
				}
				if purged > 0 {
					logger.Debug("expired state purged", logging.Int64("entries", purged))
				}
				return nil
			},
		},
	}
	for _, task := range tasks {
		if err := orch.Register(task); err != nil {
			return nil, err
		}
	}

	return &pipeline{orch: orch, cache: cache, runner: runner}, nil
}

// selectProvider picks the content source. Only the synthetic source ships
// in-tree; running without it requires provider credentials this build does
// not carry.
func selectProvider(cfg *config.Config, fake bool) (stream.Provider, error) {
	if !fake {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "provider",
			"no content provider configured, rerun with --fake-provider", nil)
	}
	provider := stream.NewFakeProvider()
	for _, category := range cfg.Collection.Categories {
		provider.Seed(category, 25)
	}
	return provider, nil
}
