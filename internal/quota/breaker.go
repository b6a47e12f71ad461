package quota

import "time"

// breakerState tracks recent provider failures per category. Once any single
// category accumulates threshold failures inside the failure window, the
// breaker opens for every category until the cooldown elapses; it then closes
// on the next check without a probe request.
type breakerState struct {
	Failures map[string][]time.Time `json:"failures,omitempty"`
	OpenedAt *time.Time             `json:"opened_at,omitempty"`
}

func (b *breakerState) open(now time.Time, cooldown time.Duration) bool {
	if b.OpenedAt == nil {
		return false
	}
	if now.Sub(*b.OpenedAt) >= cooldown {
		b.OpenedAt = nil
		b.Failures = nil
		return false
	}
	return true
}

// recordFailure appends a failure for category, expires stale entries, and
// reports whether the threshold was crossed.
func (b *breakerState) recordFailure(category string, now time.Time, window time.Duration, threshold int) bool {
	if b.Failures == nil {
		b.Failures = make(map[string][]time.Time)
	}
	cutoff := now.Add(-window)
	recent := make([]time.Time, 0, len(b.Failures[category])+1)
	for _, at := range b.Failures[category] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	recent = append(recent, now)
	b.Failures[category] = recent

	if len(recent) >= threshold {
		opened := now
		b.OpenedAt = &opened
		return true
	}
	return false
}
