package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"vantage/internal/analysis"
	"vantage/internal/config"
	"vantage/internal/logging"
	"vantage/internal/orchestrator"
	"vantage/internal/quota"
	"vantage/internal/statestore"
)

// Daemon coordinates the scheduler and API server and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *statestore.Store
	quota  *quota.Manager
	orch   *orchestrator.Orchestrator
	cache  *analysis.Cache
	runner *analysis.Runner

	lockPath  string
	lock      *flock.Flock
	apiServer *apiServer
	startedAt time.Time

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *statestore.Store, manager *quota.Manager, orch *orchestrator.Orchestrator, cache *analysis.Cache, runner *analysis.Runner, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || manager == nil || orch == nil {
		return nil, errors.New("daemon requires config, store, quota manager, and orchestrator")
	}

	lockPath := filepath.Join(cfg.Paths.StateDir, "vantaged.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		quota:    manager,
		orch:     orch,
		cache:    cache,
		runner:   runner,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiServer = server
	return d, nil
}

// Start acquires the instance lock, launches the orchestrator, and brings up
// the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vantage daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.startedAt = time.Now().UTC()

	d.orch.Start(runCtx)
	if err := d.apiServer.start(runCtx); err != nil {
		cancel()
		d.orch.Stop()
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("vantage daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("categories", len(d.cfg.Collection.Categories)))
	return nil
}

// Stop shuts down the API server and scheduler and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.apiServer.stop()
	d.orch.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock failed", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("vantage daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// APIAddr returns the bound API listener address, useful when the configured
// bind uses port 0.
func (d *Daemon) APIAddr() string {
	if d.apiServer == nil {
		return ""
	}
	return d.apiServer.addr()
}
