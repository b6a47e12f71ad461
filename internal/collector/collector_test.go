package collector_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vantage/internal/collector"
	"vantage/internal/config"
	"vantage/internal/logging"
	"vantage/internal/quota"
	"vantage/internal/services"
	"vantage/internal/statestore"
	"vantage/internal/stream"
	"vantage/internal/testsupport"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	cfg       *config.Config
	store     *statestore.Store
	provider  *stream.FakeProvider
	manager   *quota.Manager
	collector *collector.Collector
	clk       *clock
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.OpenStateStore(t, cfg)
	clk := &clock{now: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)}

	manager, err := quota.NewManager(cfg, store, logging.NewNop(), quota.WithClock(clk.Now))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	provider := stream.NewFakeProvider()
	for _, category := range cfg.Collection.Categories {
		provider.Seed(category, 10)
	}

	c := collector.New(cfg, provider, manager, store, logging.NewNop(),
		collector.WithRetryDelay(time.Millisecond))
	return &fixture{cfg: cfg, store: store, provider: provider, manager: manager, collector: c, clk: clk}
}

func TestCollectAllPersistsEveryCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.collector.CollectAll(ctx)
	if err != nil {
		t.Fatalf("CollectAll: %v", err)
	}
	if len(result.Categories) != 3 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v, want 3 clean categories", result)
	}
	if result.UniqueItems != 30 {
		t.Fatalf("unique items = %d, want 30", result.UniqueItems)
	}
	// 3 trending calls plus one detail batch.
	if result.UnitsConsumed != 4 {
		t.Fatalf("units consumed = %d, want 4", result.UnitsConsumed)
	}
	if rate := result.SuccessRate(); rate != 1 {
		t.Fatalf("success rate = %v, want 1", rate)
	}

	for _, category := range f.cfg.Collection.Categories {
		var items []stream.Item
		ok, err := f.store.GetJSON(ctx, statestore.Key(statestore.NSItems, category), &items)
		if err != nil || !ok {
			t.Fatalf("items for %s not persisted: %v", category, err)
		}
		if len(items) != 10 {
			t.Fatalf("persisted %d items for %s, want 10", len(items), category)
		}
		if !result.Changed[category] {
			t.Fatalf("first pass for %s should register as changed", category)
		}
	}
}

func TestSecondPassSkipsUntilDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.collector.CollectAll(ctx); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	result, err := f.collector.CollectAll(ctx)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(result.Categories) != 0 {
		t.Fatalf("second pass collected %v, want nothing before the interval", result.Categories)
	}
	for category, reason := range result.Skipped {
		if reason != "not due yet" {
			t.Fatalf("skip reason for %s = %q, want not due yet", category, reason)
		}
	}
}

func TestChangeDetectionAcrossPasses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.collector.CollectAll(ctx); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	f.provider.BumpViews("factorio")
	f.clk.Advance(2 * time.Hour)

	result, err := f.collector.CollectAll(ctx)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !result.Changed["factorio"] {
		t.Fatal("bumped category not detected as changed")
	}
	if result.Changed["deep-rock"] || result.Changed["satisfactory"] {
		t.Fatalf("unchanged categories flagged: %+v", result.Changed)
	}
}

func TestTransientFailureRetriesThenRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.provider.FailTrending("factorio", errors.New("upstream 503"))

	result, err := f.collector.CollectAll(ctx)
	if err != nil {
		t.Fatalf("pass should survive one failed category: %v", err)
	}
	if calls := f.provider.TrendingCalls("factorio"); calls != f.cfg.Collection.FetchRetries {
		t.Fatalf("trending calls = %d, want %d retries", calls, f.cfg.Collection.FetchRetries)
	}
	if _, failed := result.Errors["factorio"]; !failed {
		t.Fatal("failed category missing from error map")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want only factorio", result.Errors)
	}
	if rate := result.SuccessRate(); rate < 0.66 || rate > 0.67 {
		t.Fatalf("success rate = %v, want 2/3", rate)
	}
}

func TestProviderQuotaErrorAbortsWithoutRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.provider.FailTrending("deep-rock",
		services.Wrap(services.ErrQuotaExceeded, "provider", "trending", "daily cap", nil))

	result, err := f.collector.CollectAll(ctx)
	if err != nil {
		t.Fatalf("CollectAll: %v", err)
	}
	if calls := f.provider.TrendingCalls("deep-rock"); calls != 1 {
		t.Fatalf("trending calls = %d, want 1 (no retry on quota errors)", calls)
	}
	if !services.IsQuotaExceeded(result.Errors["deep-rock"]) {
		t.Fatalf("error = %v, want quota marker preserved", result.Errors["deep-rock"])
	}
}

func TestDetailPhaseStopsOnExhaustedBudget(t *testing.T) {
	// Budget covers three trending calls plus three of the six detail
	// batches; resolution must stop there without failing the pass.
	f := newFixture(t,
		testsupport.WithQuotaLimit(6),
		func(c *config.Config) { c.Collection.DetailBatchSize = 5 },
	)
	ctx := context.Background()

	result, err := f.collector.CollectAll(ctx)
	if err != nil {
		t.Fatalf("exhaustion must not fail the pass: %v", err)
	}
	if calls := f.provider.DetailCalls(); calls != 3 {
		t.Fatalf("detail calls = %d, want 3 before exhaustion", calls)
	}
	if result.UnitsConsumed != 6 {
		t.Fatalf("units consumed = %d, want the full budget of 6", result.UnitsConsumed)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("errors = %v, want none", result.Errors)
	}

	// Shallow trending records are still persisted.
	var items []stream.Item
	ok, err := f.store.GetJSON(ctx, statestore.Key(statestore.NSItems, "deep-rock"), &items)
	if err != nil || !ok || len(items) != 10 {
		t.Fatalf("shallow items not persisted: ok=%v err=%v n=%d", ok, err, len(items))
	}
}

func TestAllFailedPassReturnsError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, category := range f.cfg.Collection.Categories {
		f.provider.FailTrending(category, errors.New("provider outage"))
	}

	result, err := f.collector.CollectAll(ctx)
	if err == nil {
		t.Fatal("pass with zero successes must fail")
	}
	if rate := result.SuccessRate(); rate != 0 {
		t.Fatalf("success rate = %v, want 0", rate)
	}
}
