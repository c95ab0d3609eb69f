package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"reelpress/internal/assets"
	"reelpress/internal/config"
	"reelpress/internal/history"
	"reelpress/internal/logging"
	"reelpress/internal/workflow"
)

// Daemon ties the asset server and workflow manager into a single lifecycle
// and enforces single-instance execution through a file lock.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	hist    *history.Store
	manager *workflow.Manager
	assets  *assets.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, hist *history.Store, manager *workflow.Manager, assetServer *assets.Server) (*Daemon, error) {
	if cfg == nil || logger == nil || manager == nil || assetServer == nil {
		return nil, errors.New("daemon requires config, logger, workflow manager, and asset server")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "reelpress.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		hist:     hist,
		manager:  manager,
		assets:   assetServer,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// LockPath reports the single-instance lock file location.
func (d *Daemon) LockPath() string { return d.lockPath }

// Start acquires the daemon lock and launches the asset server and workflow
// loop. It returns immediately; use Stop to shut down.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelpress instance is already running")
	}

	if err := d.assets.Start(); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		if err := d.assets.Serve(runCtx); err != nil {
			d.logger.Error("asset server stopped", logging.Error(err))
		}
	}()
	go func() {
		defer d.wg.Done()
		if err := d.manager.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("workflow loop stopped", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("reelpress daemon started",
		logging.String("lock", d.lockPath),
		logging.String("assets", d.assets.Addr()),
	)
	return nil
}

// Stop shuts down background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("reelpress daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.hist != nil {
		return d.hist.Close()
	}
	return nil
}

// Running reports whether the daemon is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}
