package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vantage/internal/config"
	"vantage/internal/contenthash"
	"vantage/internal/logging"
	"vantage/internal/quota"
	"vantage/internal/services"
	"vantage/internal/statestore"
	"vantage/internal/stream"
)

// Collector orchestrates one collection pass across all scheduled categories.
type Collector struct {
	cfg        *config.Config
	provider   stream.Provider
	quota      *quota.Manager
	store      *statestore.Store
	logger     *slog.Logger
	retryDelay time.Duration
}

// Option configures optional Collector behavior.
type Option func(*Collector)

// WithRetryDelay overrides the base delay between fetch retries. Tests use it
// to keep backoff out of the wall clock.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Collector) {
		c.retryDelay = d
	}
}

// New constructs a collector over the given provider and shared state.
func New(cfg *config.Config, provider stream.Provider, manager *quota.Manager, store *statestore.Store, logger *slog.Logger, opts ...Option) *Collector {
	c := &Collector{
		cfg:        cfg,
		provider:   provider,
		quota:      manager,
		store:      store,
		logger:     logging.NewComponentLogger(logger, "collector"),
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result summarizes one collection pass.
type Result struct {
	RunID         string            `json:"run_id"`
	StartedAt     time.Time         `json:"started_at"`
	Duration      time.Duration     `json:"duration"`
	Categories    []string          `json:"categories"`
	ItemsFetched  int               `json:"items_fetched"`
	UniqueItems   int               `json:"unique_items"`
	UnitsConsumed int               `json:"units_consumed"`
	Hashes        map[string]string `json:"hashes"`
	Changed       map[string]bool   `json:"changed"`
	Errors        map[string]error  `json:"-"`
	Skipped       map[string]string `json:"skipped"`
}

// SuccessRate reports the fraction of attempted categories that persisted an
// item set. Skipped categories are not attempts.
func (r *Result) SuccessRate() float64 {
	attempted := len(r.Categories)
	if attempted == 0 {
		return 1
	}
	return float64(attempted-len(r.Errors)) / float64(attempted)
}

// trendingOutcome is the per-category product of the parallel sweep.
type trendingOutcome struct {
	category string
	items    []stream.Item
	consumed bool
	err      error
}

// CollectAll runs one full pass: schedule, trending sweep, detail resolution,
// reassembly and persistence. The returned error reflects pass-level policy
// only; per-category failures live in Result.Errors.
func (c *Collector) CollectAll(ctx context.Context) (*Result, error) {
	entries, skips := c.quota.Schedule()
	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Hashes:    make(map[string]string),
		Changed:   make(map[string]bool),
		Errors:    make(map[string]error),
		Skipped:   skips,
	}
	for _, entry := range entries {
		result.Categories = append(result.Categories, entry.CategoryKey)
	}

	c.logger.Info("collection pass starting",
		logging.String(logging.FieldRunID, result.RunID),
		logging.Int("scheduled", len(entries)),
		logging.Int("skipped", len(skips)))

	outcomes := c.fetchTrending(ctx, result)

	// Union of all ids, remembering which categories saw each item.
	byID := make(map[string]stream.Item)
	var ids []string
	for _, outcome := range outcomes {
		if outcome.err != nil {
			continue
		}
		for _, item := range outcome.items {
			result.ItemsFetched++
			if _, seen := byID[item.ID]; !seen {
				ids = append(ids, item.ID)
			}
			byID[item.ID] = item
		}
	}
	result.UniqueItems = len(ids)

	c.resolveDetails(ctx, result, ids, byID)
	c.persistCategories(ctx, result, outcomes, byID)

	result.Duration = time.Since(result.StartedAt)
	c.logger.Info("collection pass finished",
		logging.String(logging.FieldRunID, result.RunID),
		logging.Int("unique_items", result.UniqueItems),
		logging.Int("units_consumed", result.UnitsConsumed),
		logging.Float64("success_rate", result.SuccessRate()),
		logging.Duration("duration", result.Duration))

	return result, c.passError(result)
}

// fetchTrending sweeps the scheduled categories with bounded parallelism.
func (c *Collector) fetchTrending(ctx context.Context, result *Result) []trendingOutcome {
	limit := c.cfg.Collection.FetchConcurrency
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = make([]trendingOutcome, len(result.Categories))
	)
	for i, category := range result.Categories {
		wg.Add(1)
		go func(slot int, category string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			items, consumed, err := c.fetchCategoryTrending(ctx, category)
			outcomes[slot] = trendingOutcome{category: category, items: items, consumed: consumed, err: err}
			if err != nil {
				mu.Lock()
				result.Errors[category] = err
				mu.Unlock()
			}
		}(i, category)
	}
	wg.Wait()

	for _, outcome := range outcomes {
		if outcome.consumed {
			result.UnitsConsumed += c.cfg.Collection.TrendingCostUnits
		}
	}
	return outcomes
}

// fetchCategoryTrending consumes the trending cost and fetches with retries.
// Quota rejection aborts the category; transient errors back off and retry.
func (c *Collector) fetchCategoryTrending(ctx context.Context, category string) ([]stream.Item, bool, error) {
	if !c.quota.Consume(ctx, c.cfg.Collection.TrendingCostUnits) {
		return nil, false, services.Wrap(services.ErrQuotaExceeded, "collector", "trending", category, nil)
	}

	attempts := c.cfg.Collection.FetchRetries
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, true, ctx.Err()
			case <-time.After(c.retryDelay << (attempt - 1)):
			}
		}
		items, err := c.provider.FetchTrendingItems(ctx, category, c.cfg.Collection.TrendingMaxResults)
		if err == nil {
			return items, true, nil
		}
		lastErr = err
		if services.IsQuotaExceeded(err) {
			c.quota.RecordFailure(ctx, category)
			return nil, true, services.Wrap(services.ErrQuotaExceeded, "collector", "trending", category, err)
		}
		c.logger.Warn("trending fetch failed",
			logging.String(logging.FieldCategory, category),
			logging.Int("attempt", attempt+1),
			logging.Error(err))
	}
	c.quota.RecordFailure(ctx, category)
	return nil, true, services.Wrap(services.ErrTransient, "collector", "trending", category, lastErr)
}

// resolveDetails fetches full records for the deduplicated id set in
// sequential batches, stopping quietly when the budget runs out.
func (c *Collector) resolveDetails(ctx context.Context, result *Result, ids []string, byID map[string]stream.Item) {
	batchSize := c.cfg.Collection.DetailBatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	for start := 0; start < len(ids); start += batchSize {
		if ctx.Err() != nil {
			return
		}
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		if !c.quota.Consume(ctx, c.cfg.Collection.DetailCostUnits) {
			c.logger.Warn("detail resolution stopped, budget exhausted",
				logging.String(logging.FieldRunID, result.RunID),
				logging.Int("resolved", start),
				logging.Int("remaining", len(ids)-start))
			return
		}
		result.UnitsConsumed += c.cfg.Collection.DetailCostUnits

		detailed, err := c.provider.FetchItemDetails(ctx, ids[start:end])
		if err != nil {
			// Trending data stands in for this batch; the items keep their
			// shallow records.
			c.logger.Warn("detail batch failed",
				logging.String(logging.FieldRunID, result.RunID),
				logging.Error(err))
			continue
		}
		for _, item := range detailed {
			if prior, ok := byID[item.ID]; ok {
				// Providers may omit the category on detail records.
				if item.CategoryKey == "" {
					item.CategoryKey = prior.CategoryKey
				}
				byID[item.ID] = item
			}
		}
	}
}

// persistCategories reassembles per-category sets, detects change against the
// stored set, and persists with the hot-store TTL.
func (c *Collector) persistCategories(ctx context.Context, result *Result, outcomes []trendingOutcome, byID map[string]stream.Item) {
	for _, outcome := range outcomes {
		if outcome.err != nil {
			continue
		}

		items := make([]stream.Item, 0, len(outcome.items))
		for _, shallow := range outcome.items {
			if full, ok := byID[shallow.ID]; ok {
				items = append(items, full)
			} else {
				items = append(items, shallow)
			}
		}

		newHash := contenthash.HashItems(items)
		changed := contenthash.Changed(newHash, c.storedHash(ctx, outcome.category))

		key := statestore.Key(statestore.NSItems, outcome.category)
		if err := c.store.SetJSON(ctx, key, items, c.cfg.ItemTTL()); err != nil {
			result.Errors[outcome.category] = services.Wrap(services.ErrTransient, "collector", "persist", outcome.category, err)
			c.quota.RecordFailure(ctx, outcome.category)
			continue
		}

		result.Hashes[outcome.category] = newHash
		result.Changed[outcome.category] = changed
		c.quota.RecordCollection(ctx, outcome.category, changed)

		c.logger.Debug("category persisted",
			logging.String(logging.FieldCategory, outcome.category),
			logging.Int("items", len(items)),
			logging.Bool("changed", changed))
	}
}

func (c *Collector) storedHash(ctx context.Context, category string) string {
	var prior []stream.Item
	ok, err := c.store.GetJSON(ctx, statestore.Key(statestore.NSItems, category), &prior)
	if err != nil || !ok {
		return ""
	}
	return contenthash.HashItems(prior)
}

// passError applies the pass-level failure policy: a pass fails when every
// attempted category failed, or when the success rate drops below the
// configured floor.
func (c *Collector) passError(result *Result) error {
	attempted := len(result.Categories)
	if attempted == 0 {
		return nil
	}
	rate := result.SuccessRate()
	if len(result.Errors) == attempted {
		return services.Wrap(services.ErrTransient, "collector", "pass", "all categories failed", nil)
	}
	if rate < c.cfg.Collection.MinSuccessRate {
		return services.Wrap(services.ErrTransient, "collector", "pass", "success rate below floor", nil)
	}
	return nil
}
