package analysis

import (
	"context"

	"vantage/internal/config"
	"vantage/internal/statestore"
	"vantage/internal/stream"
)

// itemAnalyzer is the shared base for analyzers that read the hot item set
// the collector persists per category.
type itemAnalyzer struct {
	cfg   *config.Config
	store *statestore.Store
}

// loadItems returns the current item set for a category. A missing or expired
// set is a normal cache miss, not an error; callers treat it as insufficient
// data.
func (a itemAnalyzer) loadItems(ctx context.Context, categoryKey string) ([]stream.Item, error) {
	var items []stream.Item
	ok, err := a.store.GetJSON(ctx, statestore.Key(statestore.NSItems, categoryKey), &items)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return items, nil
}

// enough reports whether the sample clears the configured minimum.
func (a itemAnalyzer) enough(items []stream.Item) bool {
	return len(items) >= a.cfg.Analysis.MinItems
}
