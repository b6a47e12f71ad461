package rollup

import (
	"context"
	"log/slog"
	"time"

	"vantage/internal/config"
	"vantage/internal/logging"
	"vantage/internal/statestore"
	"vantage/internal/stream"
)

// HourlyJob condenses each category's hot item set into the hourly aggregate
// row for the current clock hour. Categories with no stored items are skipped
// without error.
type HourlyJob struct {
	cfg        *config.Config
	stateStore *statestore.Store
	aggregates *Store
	logger     *slog.Logger
	now        func() time.Time
}

// JobOption configures optional rollup job behavior.
type JobOption func(*HourlyJob, *DailyJob)

// WithClock overrides the time source for both job types.
func WithClock(now func() time.Time) JobOption {
	return func(h *HourlyJob, d *DailyJob) {
		if h != nil {
			h.now = now
		}
		if d != nil {
			d.now = now
		}
	}
}

// NewHourlyJob builds the hot-to-warm rollup job.
func NewHourlyJob(cfg *config.Config, stateStore *statestore.Store, aggregates *Store, logger *slog.Logger, opts ...JobOption) *HourlyJob {
	job := &HourlyJob{
		cfg:        cfg,
		stateStore: stateStore,
		aggregates: aggregates,
		logger:     logging.NewComponentLogger(logger, "rollup-hourly"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(job, nil)
	}
	return job
}

// Run aggregates every tracked category for the current hour.
func (j *HourlyJob) Run(ctx context.Context) error {
	hourStart := j.now().UTC().Truncate(time.Hour)

	var written int
	for _, category := range j.cfg.Collection.Categories {
		if err := ctx.Err(); err != nil {
			return err
		}

		var items []stream.Item
		ok, err := j.stateStore.GetJSON(ctx, statestore.Key(statestore.NSItems, category), &items)
		if err != nil {
			return err
		}
		if !ok || len(items) == 0 {
			j.logger.Debug("no hot items, skipping category",
				logging.String(logging.FieldCategory, category))
			continue
		}

		agg := aggregateHour(category, hourStart, items)
		if err := j.aggregates.UpsertHourly(ctx, agg); err != nil {
			return err
		}
		written++
	}

	j.logger.Info("hourly rollup complete",
		logging.Time("hour_start", hourStart),
		logging.Int("categories", written))
	return nil
}

func aggregateHour(category string, hourStart time.Time, items []stream.Item) HourlyAggregate {
	agg := HourlyAggregate{
		CategoryKey: category,
		HourStart:   hourStart,
		ItemCount:   len(items),
	}

	languages := make(map[string]int)
	formats := make(map[string]int)
	live := 0
	for _, item := range items {
		agg.TotalViewers += item.ViewCount
		if item.ViewCount > agg.PeakViewers {
			agg.PeakViewers = item.ViewCount
		}
		if item.Format == stream.FormatLive {
			live++
		}
		languages[item.Language]++
		formats[string(item.Format)]++
	}

	total := float64(len(items))
	agg.AvgViewers = float64(agg.TotalViewers) / total
	agg.LiveShare = float64(live) / total
	agg.DominantLanguage = dominantKey(languages)
	agg.DominantFormat = dominantKey(formats)
	return agg
}

// dominantKey returns the most frequent key, breaking ties lexically so
// aggregation is deterministic.
func dominantKey(counts map[string]int) string {
	best := ""
	bestCount := -1
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key < best) {
			best = key
			bestCount = count
		}
	}
	return best
}
