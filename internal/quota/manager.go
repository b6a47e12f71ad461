package quota

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"vantage/internal/config"
	"vantage/internal/logging"
	"vantage/internal/services"
	"vantage/internal/statestore"
)

const (
	windowKey  = "quota:window"
	breakerKey = "quota:breaker"
)

// Manager owns the shared unit budget, the provider circuit breaker, and all
// category refresh priorities. It is the only writer of that state; all
// mutation happens under one mutex so parallel collector goroutines get an
// atomic check-and-decrement.
type Manager struct {
	cfg    *config.Config
	store  *statestore.Store
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time

	mu         sync.Mutex
	window     Window
	breaker    breakerState
	priorities map[string]*Priority
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithClock overrides the time source, used by tests to cross calendar
// boundaries deterministically.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager constructs a quota manager, recovering persisted window, breaker,
// and priority state so restarts do not reset the budget mid-window.
func NewManager(cfg *config.Config, store *statestore.Store, logger *slog.Logger, opts ...Option) (*Manager, error) {
	m := &Manager{
		cfg:        cfg,
		store:      store,
		logger:     logging.NewComponentLogger(logger, "quota"),
		loc:        cfg.Location(),
		now:        time.Now,
		priorities: make(map[string]*Priority),
	}
	for _, opt := range opts {
		opt(m)
	}

	ctx := context.Background()
	if _, err := store.GetJSON(ctx, windowKey, &m.window); err != nil {
		return nil, err
	}
	if _, err := store.GetJSON(ctx, breakerKey, &m.breaker); err != nil {
		return nil, err
	}
	m.window.UnitsLimit = cfg.Quota.DailyUnitLimit

	for rank, category := range cfg.Collection.Categories {
		priority := &Priority{
			CategoryKey:        category,
			PriorityRank:       rank + 1,
			MinRefreshInterval: cfg.MinRefreshInterval(),
		}
		key := statestore.Key(statestore.NSPriority, category)
		if _, err := store.GetJSON(ctx, key, priority); err != nil {
			return nil, err
		}
		// Rank and minimum interval always follow current config, even for
		// recovered state.
		priority.CategoryKey = category
		priority.PriorityRank = rank + 1
		priority.MinRefreshInterval = cfg.MinRefreshInterval()
		m.priorities[category] = priority
	}

	return m, nil
}

// CheckQuota verifies that units fit the remaining budget without consuming.
func (m *Manager) CheckQuota(units int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkLocked(units)
}

func (m *Manager) checkLocked(units int) error {
	now := m.now()
	m.maybeResetLocked(now)
	if m.breaker.open(now, m.cooldown()) {
		return services.Wrap(services.ErrCircuitOpen, "quota", "check", "provider circuit open", nil)
	}
	if units > m.window.Remaining() {
		return services.Wrap(services.ErrQuotaExceeded, "quota", "check", "insufficient budget", nil)
	}
	return nil
}

// Consume atomically checks and deducts units. It returns false without
// partial consumption when the remaining budget is insufficient.
func (m *Manager) Consume(ctx context.Context, units int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkLocked(units); err != nil {
		return false
	}
	m.window.UnitsUsed += units
	m.persistWindowLocked(ctx)
	return true
}

// Remaining returns the unconsumed budget for the active window.
func (m *Manager) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maybeResetLocked(m.now())
	return m.window.Remaining()
}

// RecordFailure notes a provider failure for category. Crossing the failure
// threshold opens the breaker for all categories.
func (m *Manager) RecordFailure(ctx context.Context, category string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	opened := m.breaker.recordFailure(category, now, m.failureWindow(), m.cfg.Quota.FailureThreshold)
	m.persistBreakerLocked(ctx)
	if opened {
		m.logger.Warn("circuit breaker opened",
			logging.String(logging.FieldCategory, category),
			logging.String(logging.FieldEventType, "breaker_open"),
			logging.Duration("cooldown", m.cooldown()),
		)
	}
}

// RecordCollection updates the category's refresh policy after a collection
// attempt, noting whether the fetched item set changed.
func (m *Manager) RecordCollection(ctx context.Context, category string, changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	priority, ok := m.priorities[category]
	if !ok {
		priority = &Priority{
			CategoryKey:        category,
			PriorityRank:       len(m.priorities) + 1,
			MinRefreshInterval: m.cfg.MinRefreshInterval(),
		}
		m.priorities[category] = priority
	}
	priority.recordCollection(m.now(), changed)
	m.persistPriorityLocked(ctx, priority)
}

// Priority returns a copy of the refresh policy state for category.
func (m *Manager) Priority(category string) (Priority, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	priority, ok := m.priorities[category]
	if !ok {
		return Priority{}, false
	}
	return *priority, true
}

// ScheduleEntry is one category cleared to run in the next collection pass.
type ScheduleEntry struct {
	CategoryKey    string
	Score          float64
	EstimatedUnits int
}

// Schedule computes the categories due for collection, ordered by urgency
// (configured rank raised by hours overdue), with cumulative estimated cost
// held inside the remaining budget. Omitted categories are returned with a
// human-readable skip reason.
func (m *Manager) Schedule() ([]ScheduleEntry, map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.maybeResetLocked(now)

	skips := make(map[string]string)
	if m.breaker.open(now, m.cooldown()) {
		for category := range m.priorities {
			skips[category] = "circuit open"
		}
		return nil, skips
	}

	ceiling := m.cfg.MaxRefreshInterval()
	weight := m.cfg.Collection.OverdueWeight
	estimate := m.cfg.Collection.TrendingCostUnits + m.cfg.Collection.DetailCostUnits

	due := make([]ScheduleEntry, 0, len(m.priorities))
	for category, priority := range m.priorities {
		if !priority.ShouldRun(now, ceiling) {
			skips[category] = "not due yet"
			continue
		}
		score := float64(priority.PriorityRank) - priority.hoursOverdue(now, ceiling)*weight
		due = append(due, ScheduleEntry{CategoryKey: category, Score: score, EstimatedUnits: estimate})
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].Score == due[j].Score {
			return due[i].CategoryKey < due[j].CategoryKey
		}
		return due[i].Score < due[j].Score
	})

	remaining := m.window.Remaining()
	budgeted := due[:0]
	for _, entry := range due {
		if entry.EstimatedUnits > remaining {
			skips[entry.CategoryKey] = "insufficient quota"
			continue
		}
		remaining -= entry.EstimatedUnits
		budgeted = append(budgeted, entry)
	}
	return budgeted, skips
}

// Snapshot summarizes budget state for status reporting.
type Snapshot struct {
	WindowStart    time.Time `json:"window_start"`
	UnitsUsed      int       `json:"units_used"`
	UnitsLimit     int       `json:"units_limit"`
	UnitsRemaining int       `json:"units_remaining"`
	BreakerOpen    bool      `json:"breaker_open"`
}

// Status returns a point-in-time budget summary.
func (m *Manager) Status() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.maybeResetLocked(now)
	return Snapshot{
		WindowStart:    m.window.WindowStart,
		UnitsUsed:      m.window.UnitsUsed,
		UnitsLimit:     m.window.UnitsLimit,
		UnitsRemaining: m.window.Remaining(),
		BreakerOpen:    m.breaker.open(now, m.cooldown()),
	}
}

func (m *Manager) maybeResetLocked(now time.Time) {
	if !m.window.expired(now, m.loc) {
		return
	}
	m.window = newWindow(now, m.loc, m.cfg.Quota.DailyUnitLimit)
	m.persistWindowLocked(context.Background())
	m.logger.Info("quota window reset",
		logging.Time("window_start", m.window.WindowStart),
		logging.Int("units_limit", m.window.UnitsLimit),
	)
}

// Persistence failures degrade quota tracking to less-accurate rather than
// failing the pipeline, so they are logged and swallowed.
func (m *Manager) persistWindowLocked(ctx context.Context) {
	if err := m.store.SetJSON(ctx, windowKey, m.window, 0); err != nil {
		m.logger.Warn("persist quota window failed", logging.Error(err))
	}
}

func (m *Manager) persistBreakerLocked(ctx context.Context) {
	if err := m.store.SetJSON(ctx, breakerKey, m.breaker, 0); err != nil {
		m.logger.Warn("persist breaker state failed", logging.Error(err))
	}
}

func (m *Manager) persistPriorityLocked(ctx context.Context, priority *Priority) {
	key := statestore.Key(statestore.NSPriority, priority.CategoryKey)
	if err := m.store.SetJSON(ctx, key, priority, 0); err != nil {
		m.logger.Warn("persist collection priority failed",
			logging.String(logging.FieldCategory, priority.CategoryKey),
			logging.Error(err),
		)
	}
}

func (m *Manager) cooldown() time.Duration {
	return time.Duration(m.cfg.Quota.CooldownMinutes) * time.Minute
}

func (m *Manager) failureWindow() time.Duration {
	return time.Duration(m.cfg.Quota.FailureWindowMinutes) * time.Minute
}
