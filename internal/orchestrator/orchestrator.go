// Package orchestrator schedules the pipeline's periodic tasks: collection,
// analysis, rollups, and maintenance. Tasks run strictly one at a time,
// ordered by priority, with per-task timeouts and exponential backoff after
// consecutive failures. Task state is persisted so restarts keep schedules.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"vantage/internal/config"
	"vantage/internal/logging"
	"vantage/internal/quota"
	"vantage/internal/services"
	"vantage/internal/statestore"
)

// TaskFunc is one schedulable unit of work.
type TaskFunc func(ctx context.Context) error

// Task describes a periodic job. A zero Timeout falls back to the configured
// task timeout. Lower Priority runs first when several tasks are due.
type Task struct {
	Name     string
	Priority int
	Interval time.Duration
	Timeout  time.Duration
	Run      TaskFunc
}

// State is the persisted execution record for one task.
type State struct {
	Name                string    `json:"name"`
	LastRunAt           time.Time `json:"last_run_at"`
	LastSuccessAt       time.Time `json:"last_success_at"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	RunCount            int       `json:"run_count"`
	SuccessCount        int       `json:"success_count"`
}

// Orchestrator owns the task registry and the tick loop.
type Orchestrator struct {
	cfg    *config.Config
	store  *statestore.Store
	quota  *quota.Manager
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	tasks   []Task
	states  map[string]*State
	forced  map[string]bool
	running string

	kick chan struct{}
	done chan struct{}
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithClock overrides the time source for due-time computation.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New constructs an orchestrator. Tasks are added with Register before Start.
func New(cfg *config.Config, store *statestore.Store, manager *quota.Manager, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		store:  store,
		quota:  manager,
		logger: logging.NewComponentLogger(logger, "orchestrator"),
		now:    time.Now,
		states: make(map[string]*State),
		forced: make(map[string]bool),
		kick:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register adds a task and recovers its persisted state. Registering after
// Start is not supported.
func (o *Orchestrator) Register(task Task) error {
	if task.Name == "" || task.Run == nil || task.Interval <= 0 {
		return services.Wrap(services.ErrConfiguration, "orchestrator", "register", "task needs a name, interval, and run func", nil)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, existing := range o.tasks {
		if existing.Name == task.Name {
			return services.Wrap(services.ErrConfiguration, "orchestrator", "register", fmt.Sprintf("duplicate task %s", task.Name), nil)
		}
	}

	state := &State{Name: task.Name}
	key := statestore.Key(statestore.NSTask, task.Name)
	if _, err := o.store.GetJSON(context.Background(), key, state); err != nil {
		return err
	}
	state.Name = task.Name

	o.tasks = append(o.tasks, task)
	sort.SliceStable(o.tasks, func(i, j int) bool { return o.tasks[i].Priority < o.tasks[j].Priority })
	o.states[task.Name] = state
	return nil
}

// Start launches the tick loop. It returns immediately; Stop waits for the
// loop to drain.
func (o *Orchestrator) Start(ctx context.Context) {
	tick := time.Duration(o.cfg.Orchestrator.TickSeconds) * time.Second
	if tick <= 0 {
		tick = 10 * time.Second
	}

	go func() {
		defer close(o.done)
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		o.logger.Info("orchestrator started",
			logging.Int("tasks", len(o.tasks)),
			logging.Duration("tick", tick))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case <-o.kick:
			}
			o.RunPending(ctx)
		}
	}()
}

// Stop waits for the loop and any in-flight task, bounded by the configured
// shutdown grace.
func (o *Orchestrator) Stop() {
	grace := time.Duration(o.cfg.Orchestrator.ShutdownGraceSeconds) * time.Second
	select {
	case <-o.done:
		o.logger.Info("orchestrator stopped")
	case <-time.After(grace):
		o.logger.Warn("shutdown grace elapsed with task still running",
			logging.String(logging.FieldTask, o.currentlyRunning()))
	}
}

// RunPending executes every currently due task, one at a time in priority
// order, and returns how many ran. The loop calls this each tick; tests call
// it directly.
func (o *Orchestrator) RunPending(ctx context.Context) int {
	executed := 0
	for {
		task, ok := o.nextDue()
		if !ok || ctx.Err() != nil {
			return executed
		}
		o.execute(ctx, task)
		executed++
	}
}

// nextDue claims the highest-priority due task, marking it running.
func (o *Orchestrator) nextDue() (Task, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running != "" {
		return Task{}, false
	}
	now := o.now()
	for _, task := range o.tasks {
		if o.forced[task.Name] || o.dueLocked(task, now) {
			delete(o.forced, task.Name)
			o.running = task.Name
			return task, true
		}
	}
	return Task{}, false
}

func (o *Orchestrator) dueLocked(task Task, now time.Time) bool {
	state := o.states[task.Name]
	if state.LastRunAt.IsZero() {
		return true
	}
	return !now.Before(state.LastRunAt.Add(o.effectiveInterval(task, state)))
}

// effectiveInterval stretches the base interval by 2^failures, capped at the
// configured multiplier, so a broken dependency is probed less and less often.
func (o *Orchestrator) effectiveInterval(task Task, state *State) time.Duration {
	multiplier := 1
	for i := 0; i < state.ConsecutiveFailures; i++ {
		multiplier *= 2
		if multiplier >= o.cfg.Orchestrator.MaxBackoffMultiplier {
			multiplier = o.cfg.Orchestrator.MaxBackoffMultiplier
			break
		}
	}
	return task.Interval * time.Duration(multiplier)
}

func (o *Orchestrator) execute(ctx context.Context, task Task) {
	timeout := task.Timeout
	if timeout <= 0 {
		timeout = time.Duration(o.cfg.Orchestrator.TaskTimeoutMinutes) * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := o.now()
	o.logger.Info("task starting", logging.String(logging.FieldTask, task.Name))
	err := o.runContained(runCtx, task)
	finished := o.now()

	o.mu.Lock()
	state := o.states[task.Name]
	state.LastRunAt = started
	state.RunCount++
	if err != nil {
		state.LastError = err.Error()
		state.ConsecutiveFailures++
	} else {
		state.LastError = ""
		state.LastSuccessAt = finished
		state.SuccessCount++
		state.ConsecutiveFailures = 0
	}
	// Persist with a fresh context so a cancelled run still records its state.
	o.persistStateLocked(context.Background(), state)
	o.running = ""
	o.mu.Unlock()

	if err != nil {
		o.logger.Error("task failed",
			logging.String(logging.FieldTask, task.Name),
			logging.Duration("duration", finished.Sub(started)),
			logging.Error(err))
		return
	}
	o.logger.Info("task finished",
		logging.String(logging.FieldTask, task.Name),
		logging.Duration("duration", finished.Sub(started)))
}

func (o *Orchestrator) runContained(ctx context.Context, task Task) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("task %s panic: %v", task.Name, recovered)
		}
	}()
	return task.Run(ctx)
}

// Trigger marks a task due immediately. A running task cannot be retriggered.
func (o *Orchestrator) Trigger(name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	found := false
	for _, task := range o.tasks {
		if task.Name == name {
			found = true
			break
		}
	}
	if !found {
		return services.Wrap(services.ErrNotFound, "orchestrator", "trigger", fmt.Sprintf("unknown task %s", name), nil)
	}
	if o.running == name {
		return services.Wrap(services.ErrTransient, "orchestrator", "trigger", fmt.Sprintf("task %s is running", name), nil)
	}

	o.forced[name] = true
	select {
	case o.kick <- struct{}{}:
	default:
	}
	return nil
}

// TaskStatus is one task's entry in a status snapshot.
type TaskStatus struct {
	Name     string        `json:"name"`
	Priority int           `json:"priority"`
	Interval time.Duration `json:"interval"`
	Running  bool          `json:"running"`
	NextRun  time.Time     `json:"next_run"`
	State    State         `json:"state"`
}

// Status is a point-in-time view of the scheduler and the quota budget.
type Status struct {
	Tasks       []TaskStatus   `json:"tasks"`
	Running     string         `json:"running,omitempty"`
	SuccessRate float64        `json:"success_rate"`
	Quota       quota.Snapshot `json:"quota"`
}

// Status reports every task's state, its next-run estimate, and the aggregate
// success rate across all recorded executions.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := Status{Running: o.running}
	runs, successes := 0, 0
	for _, task := range o.tasks {
		state := o.states[task.Name]
		next := o.now()
		if !state.LastRunAt.IsZero() {
			next = state.LastRunAt.Add(o.effectiveInterval(task, state))
		}
		status.Tasks = append(status.Tasks, TaskStatus{
			Name:     task.Name,
			Priority: task.Priority,
			Interval: task.Interval,
			Running:  o.running == task.Name,
			NextRun:  next,
			State:    *state,
		})
		runs += state.RunCount
		successes += state.SuccessCount
	}
	if runs > 0 {
		status.SuccessRate = float64(successes) / float64(runs)
	} else {
		status.SuccessRate = 1
	}
	status.Quota = o.quota.Status()
	return status
}

func (o *Orchestrator) currentlyRunning() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Persistence failures leave the in-memory schedule authoritative; the next
// successful write catches the store up.
func (o *Orchestrator) persistStateLocked(ctx context.Context, state *State) {
	key := statestore.Key(statestore.NSTask, state.Name)
	if err := o.store.SetJSON(ctx, key, state, 0); err != nil {
		o.logger.Warn("persist task state failed",
			logging.String(logging.FieldTask, state.Name),
			logging.Error(err))
	}
}
