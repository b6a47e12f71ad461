package quota

import "time"

// Priority holds the adaptive refresh policy state for one category. The
// effective interval stretches as consecutive unchanged collections
// accumulate, so quiet categories consume less budget.
type Priority struct {
	CategoryKey         string        `json:"category_key"`
	PriorityRank        int           `json:"priority_rank"`
	MinRefreshInterval  time.Duration `json:"min_refresh_interval"`
	LastFetchAt         time.Time     `json:"last_fetch_at"`
	LastChangeAt        time.Time     `json:"last_change_at"`
	ConsecutiveNoChange int           `json:"consecutive_no_change"`
}

// EffectiveInterval scales the minimum refresh interval by the no-change
// streak, capped at the configured ceiling.
func (p Priority) EffectiveInterval(ceiling time.Duration) time.Duration {
	interval := p.MinRefreshInterval * time.Duration(1+p.ConsecutiveNoChange)
	if ceiling > 0 && interval > ceiling {
		return ceiling
	}
	return interval
}

// ShouldRun reports whether the category is due for collection.
func (p Priority) ShouldRun(now time.Time, ceiling time.Duration) bool {
	if p.LastFetchAt.IsZero() {
		return true
	}
	return now.Sub(p.LastFetchAt) >= p.EffectiveInterval(ceiling)
}

// hoursOverdue returns how many hours past due the category is, zero when it
// is not yet due.
func (p Priority) hoursOverdue(now time.Time, ceiling time.Duration) float64 {
	if p.LastFetchAt.IsZero() {
		return 0
	}
	overdue := now.Sub(p.LastFetchAt) - p.EffectiveInterval(ceiling)
	if overdue <= 0 {
		return 0
	}
	return overdue.Hours()
}

// recordCollection updates the policy after a collection attempt.
func (p *Priority) recordCollection(now time.Time, changed bool) {
	p.LastFetchAt = now
	if changed {
		p.LastChangeAt = now
		p.ConsecutiveNoChange = 0
		return
	}
	p.ConsecutiveNoChange++
}
