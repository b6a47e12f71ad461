package quota

import "time"

// Window is one consumable budget period. A window is never mutated past its
// calendar boundary; it is superseded by a fresh one on the next check.
type Window struct {
	WindowStart time.Time `json:"window_start"`
	UnitsUsed   int       `json:"units_used"`
	UnitsLimit  int       `json:"units_limit"`
}

// Remaining returns the unconsumed portion of the window budget.
func (w Window) Remaining() int {
	remaining := w.UnitsLimit - w.UnitsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// expired reports whether now has crossed the calendar boundary (midnight in
// loc) following the window start.
func (w Window) expired(now time.Time, loc *time.Location) bool {
	if w.WindowStart.IsZero() {
		return true
	}
	start := w.WindowStart.In(loc)
	boundary := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return !now.In(loc).Before(boundary)
}

// newWindow opens a window anchored at the start of the current calendar day.
func newWindow(now time.Time, loc *time.Location, limit int) Window {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{WindowStart: start.UTC(), UnitsLimit: limit}
}
