package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"vantage/internal/stream"
)

// EmptyHash is the sentinel returned for an empty item set. It is not a valid
// truncated digest, so it never collides with a real hash.
const EmptyHash = "empty"

// hashLength is the truncated hex length. Collisions are acceptable for
// change detection; 64 bits keeps keys short in logs and the state store.
const hashLength = 16

// HashItems produces a deterministic digest of an item set, independent of
// the order the provider returned the items in. Only the identifier and the
// view count (the volatility field) participate, so cosmetic metadata churn
// does not defeat no-change detection.
func HashItems(items []stream.Item) string {
	if len(items) == 0 {
		return EmptyHash
	}

	sorted := append([]stream.Item(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var b strings.Builder
	b.Grow(len(sorted) * 24)
	for i, item := range sorted {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(item.ID)
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(item.ViewCount, 10))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:hashLength]
}

// HashPayload digests an arbitrary structured payload via canonical JSON.
// encoding/json sorts map keys, so logically equal payloads hash equally.
func HashPayload(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload for hashing: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:hashLength], nil
}

// Changed reports whether the new hash differs from the previous one. An
// empty previous hash means no prior observation, which counts as changed.
func Changed(newHash, previousHash string) bool {
	if strings.TrimSpace(previousHash) == "" {
		return true
	}
	return newHash != previousHash
}
