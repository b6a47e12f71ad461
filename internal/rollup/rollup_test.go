package rollup_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"vantage/internal/logging"
	"vantage/internal/rollup"
	"vantage/internal/stream"
	"vantage/internal/testsupport"
)

func openAggregates(t *testing.T) *rollup.Store {
	t.Helper()

	store, err := rollup.OpenStorePath(filepath.Join(t.TempDir(), "aggregates.db"))
	if err != nil {
		t.Fatalf("open aggregates: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestHourlyJobAggregatesAndIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCategories("deep-rock"))
	state := testsupport.OpenStateStore(t, cfg)
	aggregates := openAggregates(t)
	ctx := context.Background()

	items := stream.GenerateItems("deep-rock", 10)
	testsupport.SeedItems(t, state, "deep-rock", items)

	now := time.Date(2025, 6, 10, 14, 25, 0, 0, time.UTC)
	job := rollup.NewHourlyJob(cfg, state, aggregates, logging.NewNop(),
		rollup.WithClock(fixedClock(now)))

	if err := job.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}

	rows, err := aggregates.HourlyForDay(ctx, "deep-rock", now)
	if err != nil {
		t.Fatalf("HourlyForDay: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows after two runs of the same hour, want 1", len(rows))
	}

	agg := rows[0]
	if !agg.HourStart.Equal(now.Truncate(time.Hour)) {
		t.Fatalf("hour start = %v, want %v", agg.HourStart, now.Truncate(time.Hour))
	}
	// Generated view counts are 100..1000.
	if agg.ItemCount != 10 || agg.TotalViewers != 5500 || agg.PeakViewers != 1000 {
		t.Fatalf("aggregate = %+v", agg)
	}
	if agg.AvgViewers != 550 {
		t.Fatalf("avg viewers = %v, want 550", agg.AvgViewers)
	}
	if agg.LiveShare != 0.4 {
		t.Fatalf("live share = %v, want 0.4", agg.LiveShare)
	}
	if agg.DominantLanguage != "en" {
		t.Fatalf("dominant language = %q, want en", agg.DominantLanguage)
	}
}

func TestHourlyJobSkipsCategoriesWithoutItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	state := testsupport.OpenStateStore(t, cfg)
	aggregates := openAggregates(t)
	ctx := context.Background()

	testsupport.SeedItems(t, state, "factorio", stream.GenerateItems("factorio", 10))

	now := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	job := rollup.NewHourlyJob(cfg, state, aggregates, logging.NewNop(),
		rollup.WithClock(fixedClock(now)))
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, category := range []string{"deep-rock", "satisfactory"} {
		rows, err := aggregates.HourlyForDay(ctx, category, now)
		if err != nil {
			t.Fatalf("HourlyForDay(%s): %v", category, err)
		}
		if len(rows) != 0 {
			t.Fatalf("category %s without items produced %d rows", category, len(rows))
		}
	}
	rows, err := aggregates.HourlyForDay(ctx, "factorio", now)
	if err != nil || len(rows) != 1 {
		t.Fatalf("factorio rows = %d, err = %v, want exactly 1", len(rows), err)
	}
}

func TestDailyJobComputesTrendAndExtremes(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCategories("deep-rock"))
	aggregates := openAggregates(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 11, 2, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	quietHour := time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC)
	busyHour := time.Date(2025, 6, 10, 20, 0, 0, 0, time.UTC)
	for _, agg := range []rollup.HourlyAggregate{
		{CategoryKey: "deep-rock", HourStart: quietHour, ItemCount: 5, TotalViewers: 500, AvgViewers: 100, PeakViewers: 200, DominantLanguage: "en", DominantFormat: "live"},
		{CategoryKey: "deep-rock", HourStart: busyHour, ItemCount: 5, TotalViewers: 1500, AvgViewers: 300, PeakViewers: 900, DominantLanguage: "en", DominantFormat: "live"},
	} {
		if err := aggregates.UpsertHourly(ctx, agg); err != nil {
			t.Fatalf("UpsertHourly: %v", err)
		}
	}
	baseline := rollup.DailyAggregate{
		CategoryKey: "deep-rock", Day: "2025-06-09", HoursObserved: 24,
		TotalViewers: 2400, AvgViewers: 100, PeakViewers: 500,
		BestHour: "2025-06-09T20:00:00Z", WorstHour: "2025-06-09T04:00:00Z",
	}
	if err := aggregates.UpsertDaily(ctx, baseline); err != nil {
		t.Fatalf("UpsertDaily baseline: %v", err)
	}

	job := rollup.NewDailyJob(cfg, aggregates, logging.NewNop(),
		rollup.WithClock(fixedClock(now)))
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	daily, ok, err := aggregates.DailyFor(ctx, "deep-rock", yesterday)
	if err != nil || !ok {
		t.Fatalf("DailyFor = %v, %v", ok, err)
	}
	if daily.HoursObserved != 2 || daily.TotalViewers != 2000 || daily.PeakViewers != 900 {
		t.Fatalf("daily = %+v", daily)
	}
	if daily.AvgViewers != 200 {
		t.Fatalf("avg viewers = %v, want 200", daily.AvgViewers)
	}
	// Baseline avg 100 to 200 is a 100% climb.
	if daily.TrendPct != 100 {
		t.Fatalf("trend = %v, want 100", daily.TrendPct)
	}
	if daily.BestHour != busyHour.Format(time.RFC3339) || daily.WorstHour != quietHour.Format(time.RFC3339) {
		t.Fatalf("best/worst = %s / %s", daily.BestHour, daily.WorstHour)
	}
}

func TestDailyJobZeroTrendWithoutBaseline(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCategories("factorio"))
	aggregates := openAggregates(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 11, 2, 0, 0, 0, time.UTC)
	hour := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	err := aggregates.UpsertHourly(ctx, rollup.HourlyAggregate{
		CategoryKey: "factorio", HourStart: hour, ItemCount: 3,
		TotalViewers: 300, AvgViewers: 100, PeakViewers: 150,
		DominantLanguage: "de", DominantFormat: "video",
	})
	if err != nil {
		t.Fatalf("UpsertHourly: %v", err)
	}

	job := rollup.NewDailyJob(cfg, aggregates, logging.NewNop(),
		rollup.WithClock(fixedClock(now)))
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	daily, ok, err := aggregates.DailyFor(ctx, "factorio", now.AddDate(0, 0, -1))
	if err != nil || !ok {
		t.Fatalf("DailyFor = %v, %v", ok, err)
	}
	if daily.TrendPct != 0 {
		t.Fatalf("trend without baseline = %v, want 0", daily.TrendPct)
	}
}

func TestRetentionPurgesOnlyBeyondCutoff(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCategories("deep-rock"))
	aggregates := openAggregates(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 11, 2, 0, 0, 0, time.UTC)
	oldHour := now.AddDate(0, 0, -8)  // past the 7 day hourly retention
	freshHour := now.AddDate(0, 0, -1).Truncate(time.Hour)

	for _, hourStart := range []time.Time{oldHour, freshHour} {
		err := aggregates.UpsertHourly(ctx, rollup.HourlyAggregate{
			CategoryKey: "deep-rock", HourStart: hourStart, ItemCount: 1,
			TotalViewers: 10, AvgViewers: 10, PeakViewers: 10,
			DominantLanguage: "en", DominantFormat: "clip",
		})
		if err != nil {
			t.Fatalf("UpsertHourly: %v", err)
		}
	}

	job := rollup.NewDailyJob(cfg, aggregates, logging.NewNop(),
		rollup.WithClock(fixedClock(now)))
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	oldRows, err := aggregates.HourlyForDay(ctx, "deep-rock", oldHour)
	if err != nil {
		t.Fatalf("HourlyForDay old: %v", err)
	}
	if len(oldRows) != 0 {
		t.Fatal("rows past the retention window survived")
	}

	freshRows, err := aggregates.HourlyForDay(ctx, "deep-rock", freshHour)
	if err != nil {
		t.Fatalf("HourlyForDay fresh: %v", err)
	}
	if len(freshRows) != 1 {
		t.Fatalf("fresh rows = %d, want 1 kept", len(freshRows))
	}
}
