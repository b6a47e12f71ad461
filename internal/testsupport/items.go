package testsupport

import (
	"context"
	"testing"
	"time"

	"vantage/internal/statestore"
	"vantage/internal/stream"
)

// SeedItems persists an item set for a category into the state store, the
// way a collection pass would.
func SeedItems(t testing.TB, store *statestore.Store, category string, items []stream.Item) {
	t.Helper()

	key := statestore.Key(statestore.NSItems, category)
	if err := store.SetJSON(context.Background(), key, items, time.Hour); err != nil {
		t.Fatalf("seed items for %s: %v", category, err)
	}
}
