package analysis

import (
	"context"
	"log/slog"
	"time"

	"vantage/internal/config"
	"vantage/internal/contenthash"
	"vantage/internal/logging"
	"vantage/internal/statestore"
)

// Cache stores analyzer results in the state store under
// analysis:<analyzer>:<category> with the configured freshness TTL. Storage
// errors on reads are logged and reported as misses so a flaky disk degrades
// to recomputation rather than failure.
type Cache struct {
	store  *statestore.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache builds a cache over the shared state store.
func NewCache(cfg *config.Config, store *statestore.Store, logger *slog.Logger) *Cache {
	return &Cache{
		store:  store,
		ttl:    cfg.AnalysisCacheTTL(),
		logger: logging.NewComponentLogger(logger, "analysis-cache"),
	}
}

func cacheKey(analyzer, categoryKey string) string {
	return statestore.Key(statestore.NSAnalysis, analyzer, categoryKey)
}

// Get returns the cached result for an analyzer/category pair, if fresh.
func (c *Cache) Get(ctx context.Context, analyzer, categoryKey string) (*Result, bool) {
	var result Result
	ok, err := c.store.GetJSON(ctx, cacheKey(analyzer, categoryKey), &result)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss",
			logging.String(logging.FieldAnalyzer, analyzer),
			logging.String(logging.FieldCategory, categoryKey),
			logging.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &result, true
}

// Put stores a result under its analyzer/category key.
func (c *Cache) Put(ctx context.Context, result *Result) error {
	return c.store.SetJSON(ctx, cacheKey(result.Analyzer, result.CategoryKey), result, c.ttl)
}

// HasContentChanged reports whether newHash differs from the hash recorded in
// the cached result. An absent or unreadable cache entry counts as changed.
func (c *Cache) HasContentChanged(ctx context.Context, analyzer, categoryKey, newHash string) bool {
	cached, ok := c.Get(ctx, analyzer, categoryKey)
	if !ok {
		return true
	}
	return contenthash.Changed(newHash, cached.ContentHash)
}

// AnalyzeWithCache returns the fresh cached result when one exists, otherwise
// runs the analyzer and caches its output. force bypasses the cached read but
// still writes through. A (nil, nil) return mirrors the analyzer declining.
func (c *Cache) AnalyzeWithCache(ctx context.Context, analyzer Analyzer, categoryKey string, force bool) (*Result, error) {
	if !force {
		if cached, ok := c.Get(ctx, analyzer.Name(), categoryKey); ok {
			return cached, nil
		}
	}

	result, err := analyzer.Analyze(ctx, categoryKey)
	if err != nil || result == nil {
		return nil, err
	}

	if err := c.Put(ctx, result); err != nil {
		c.logger.Warn("cache write failed, returning uncached result",
			logging.String(logging.FieldAnalyzer, analyzer.Name()),
			logging.String(logging.FieldCategory, categoryKey),
			logging.Error(err))
	}
	return result, nil
}
