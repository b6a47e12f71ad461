package rollup

import (
	"context"
	"log/slog"
	"time"

	"vantage/internal/config"
	"vantage/internal/logging"
)

// DailyJob condenses the previous calendar day's hourly rows into one daily
// row per category, computes the day-over-day trend, then prunes both tiers
// to their retention windows.
type DailyJob struct {
	cfg        *config.Config
	aggregates *Store
	logger     *slog.Logger
	now        func() time.Time
}

// NewDailyJob builds the warm-to-cold rollup job.
func NewDailyJob(cfg *config.Config, aggregates *Store, logger *slog.Logger, opts ...JobOption) *DailyJob {
	job := &DailyJob{
		cfg:        cfg,
		aggregates: aggregates,
		logger:     logging.NewComponentLogger(logger, "rollup-daily"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(nil, job)
	}
	return job
}

// Run aggregates yesterday for every tracked category and applies retention.
func (j *DailyJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	day := now.AddDate(0, 0, -1)

	var written int
	for _, category := range j.cfg.Collection.Categories {
		if err := ctx.Err(); err != nil {
			return err
		}

		hours, err := j.aggregates.HourlyForDay(ctx, category, day)
		if err != nil {
			return err
		}
		if len(hours) == 0 {
			j.logger.Debug("no hourly rows, skipping category",
				logging.String(logging.FieldCategory, category))
			continue
		}

		agg := aggregateDay(category, day, hours)
		agg.TrendPct = j.trendAgainstPrevious(ctx, category, day, agg.AvgViewers)
		if err := j.aggregates.UpsertDaily(ctx, agg); err != nil {
			return err
		}
		written++
	}

	if err := j.applyRetention(ctx, now); err != nil {
		return err
	}

	j.logger.Info("daily rollup complete",
		logging.String("day", day.Format(dayFormat)),
		logging.Int("categories", written))
	return nil
}

func aggregateDay(category string, day time.Time, hours []HourlyAggregate) DailyAggregate {
	agg := DailyAggregate{
		CategoryKey:   category,
		Day:           day.UTC().Format(dayFormat),
		HoursObserved: len(hours),
	}

	var (
		bestAvg  = -1.0
		worstAvg = -1.0
	)
	for _, hour := range hours {
		agg.TotalViewers += hour.TotalViewers
		if hour.PeakViewers > agg.PeakViewers {
			agg.PeakViewers = hour.PeakViewers
		}
		if hour.AvgViewers > bestAvg {
			bestAvg = hour.AvgViewers
			agg.BestHour = hour.HourStart.Format(time.RFC3339)
		}
		if worstAvg < 0 || hour.AvgViewers < worstAvg {
			worstAvg = hour.AvgViewers
			agg.WorstHour = hour.HourStart.Format(time.RFC3339)
		}
		agg.AvgViewers += hour.AvgViewers
	}
	agg.AvgViewers /= float64(len(hours))
	return agg
}

// trendAgainstPrevious returns the percentage change of avgViewers against
// the prior day's daily row, or zero when there is no baseline.
func (j *DailyJob) trendAgainstPrevious(ctx context.Context, category string, day time.Time, avgViewers float64) float64 {
	previous, ok, err := j.aggregates.DailyFor(ctx, category, day.AddDate(0, 0, -1))
	if err != nil {
		j.logger.Warn("trend baseline lookup failed",
			logging.String(logging.FieldCategory, category),
			logging.Error(err))
		return 0
	}
	if !ok || previous.AvgViewers == 0 {
		return 0
	}
	return (avgViewers - previous.AvgViewers) / previous.AvgViewers * 100
}

func (j *DailyJob) applyRetention(ctx context.Context, now time.Time) error {
	hourlyCutoff := now.AddDate(0, 0, -j.cfg.Rollup.HourlyRetentionDays)
	dailyCutoff := now.AddDate(0, 0, -j.cfg.Rollup.DailyRetentionDays)

	hourlyPurged, err := j.aggregates.PurgeHourlyBefore(ctx, hourlyCutoff)
	if err != nil {
		return err
	}
	dailyPurged, err := j.aggregates.PurgeDailyBefore(ctx, dailyCutoff)
	if err != nil {
		return err
	}
	if hourlyPurged > 0 || dailyPurged > 0 {
		j.logger.Info("retention applied",
			logging.Int64("hourly_purged", hourlyPurged),
			logging.Int64("daily_purged", dailyPurged))
	}
	return nil
}
