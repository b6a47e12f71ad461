package contenthash_test

import (
	"testing"

	"vantage/internal/contenthash"
	"vantage/internal/stream"
)

func sampleItems() []stream.Item {
	return []stream.Item{
		{ID: "c", ViewCount: 300},
		{ID: "a", ViewCount: 100},
		{ID: "b", ViewCount: 200},
	}
}

func TestHashItemsOrderInvariant(t *testing.T) {
	items := sampleItems()
	first := contenthash.HashItems(items)

	reordered := []stream.Item{items[1], items[2], items[0]}
	second := contenthash.HashItems(reordered)

	if first != second {
		t.Fatalf("hash changed under reordering: %q vs %q", first, second)
	}
	if len(first) != 16 {
		t.Fatalf("hash length = %d, want 16", len(first))
	}
}

func TestHashItemsSensitiveToVolatility(t *testing.T) {
	base := contenthash.HashItems(sampleItems())

	bumped := sampleItems()
	bumped[1].ViewCount++
	if got := contenthash.HashItems(bumped); got == base {
		t.Fatal("hash unchanged after view count change")
	}

	renamed := sampleItems()
	renamed[0].ID = "d"
	if got := contenthash.HashItems(renamed); got == base {
		t.Fatal("hash unchanged after identifier change")
	}

	// Non-volatile metadata must not affect the digest.
	retitled := sampleItems()
	retitled[0].Title = "different title"
	if got := contenthash.HashItems(retitled); got != base {
		t.Fatal("hash changed for non-volatile field")
	}
}

func TestHashItemsEmptySentinel(t *testing.T) {
	if got := contenthash.HashItems(nil); got != contenthash.EmptyHash {
		t.Fatalf("empty hash = %q, want sentinel", got)
	}
	if got := contenthash.HashItems(sampleItems()); got == contenthash.EmptyHash {
		t.Fatal("real item set hashed to the empty sentinel")
	}
}

func TestHashPayloadStable(t *testing.T) {
	first, err := contenthash.HashPayload(map[string]int{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("HashPayload: %v", err)
	}
	second, err := contenthash.HashPayload(map[string]int{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("HashPayload: %v", err)
	}
	if first != second {
		t.Fatalf("payload hash unstable across key order: %q vs %q", first, second)
	}
}

func TestChanged(t *testing.T) {
	if !contenthash.Changed("abc", "") {
		t.Fatal("missing previous hash should count as changed")
	}
	if contenthash.Changed("abc", "abc") {
		t.Fatal("identical hashes reported as changed")
	}
	if !contenthash.Changed("abc", "def") {
		t.Fatal("different hashes not reported as changed")
	}
}
