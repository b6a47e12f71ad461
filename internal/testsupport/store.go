package testsupport

import (
	"testing"

	"vantage/internal/config"
	"vantage/internal/statestore"
)

// OpenStateStore opens a state store rooted in the test config's state
// directory and closes it when the test finishes.
func OpenStateStore(t testing.TB, cfg *config.Config) *statestore.Store {
	t.Helper()

	store, err := statestore.Open(cfg)
	if err != nil {
		t.Fatalf("open state store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
