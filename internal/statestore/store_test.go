package statestore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"vantage/internal/statestore"
)

func openStore(t *testing.T) *statestore.Store {
	t.Helper()
	store, err := statestore.OpenPath(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSetGetRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	key := statestore.Key(statestore.NSPriority, "deep-rock")
	if err := store.Set(ctx, key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	value, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || string(value) != "payload" {
		t.Fatalf("Get = %q, %v", value, ok)
	}
}

func TestGetMissesOnExpiredEntry(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "items:stale", []byte("old"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	_, ok, err := store.Get(ctx, "items:stale")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestSetOverwritesAndRefreshesTTL(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "task:collect", []byte("one"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "task:collect", []byte("two"), time.Hour); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	value, ok, err := store.Get(ctx, "task:collect")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || string(value) != "two" {
		t.Fatalf("Get = %q, %v; want refreshed entry", value, ok)
	}
}

func TestJSONHelpers(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	in := record{Name: "hourly_rollup", Count: 3}
	if err := store.SetJSON(ctx, "task:hourly_rollup", in, 0); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	var out record
	ok, err := store.GetJSON(ctx, "task:hourly_rollup", &out)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !ok || out != in {
		t.Fatalf("GetJSON = %+v, %v", out, ok)
	}

	var missing record
	ok, err = store.GetJSON(ctx, "task:absent", &missing)
	if err != nil {
		t.Fatalf("GetJSON miss: %v", err)
	}
	if ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestKeysFiltersByPrefixAndLiveness(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	entries := map[string]time.Duration{
		"priority:alpha": 0,
		"priority:beta":  0,
		"priority:gone":  time.Millisecond,
		"task:collect":   0,
	}
	for key, ttl := range entries {
		if err := store.Set(ctx, key, []byte("x"), ttl); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}
	time.Sleep(5 * time.Millisecond)

	keys, err := store.Keys(ctx, "priority:")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"priority:alpha", "priority:beta"}
	if len(keys) != len(want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}
	for i, key := range want {
		if keys[i] != key {
			t.Fatalf("Keys = %v, want %v", keys, want)
		}
	}
}

func TestPurgeExpired(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "items:a", []byte("x"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "items:b", []byte("y"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	removed, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("PurgeExpired removed %d, want 1", removed)
	}

	if _, ok, _ := store.Get(ctx, "items:b"); !ok {
		t.Fatal("live entry removed by purge")
	}
}
