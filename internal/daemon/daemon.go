package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"lensflow/internal/api"
	"lensflow/internal/config"
	"lensflow/internal/photo"
	"lensflow/internal/pipeline"
)

// Daemon holds the in-memory collection, the pipeline, and the HTTP API, and
// enforces single-instance execution via a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *photo.Store
	pipeline *pipeline.Orchestrator

	lockPath string
	lock     *flock.Flock

	server  *api.Server
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *photo.Store, orch *pipeline.Orchestrator, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || orch == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, pipeline, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "lensflow.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		pipeline: orch,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.server = api.NewServer(api.Options{
		Bind:     cfg.Paths.APIBind,
		Store:    store,
		Pipeline: orch,
		Logger:   logger,
		Status:   d.Status,
	})
	return d, nil
}

// Start acquires the instance lock, resolves credentials, and brings up the
// HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("prepare lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lensflow daemon instance is already running")
	}

	if err := d.pipeline.EnsureCredential(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("resolve credentials: %w", err)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.server != nil {
		if err := d.server.Start(d.ctx); err != nil {
			d.cancel()
			d.ctx, d.cancel = nil, nil
			_ = d.lock.Unlock()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("lensflow daemon started", slog.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API, waits for outstanding animation jobs, and
// releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	if d.server != nil {
		d.server.Stop()
	}
	d.pipeline.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", slog.String("error", err.Error()))
	}
	d.ctx, d.cancel = nil, nil
	d.running.Store(false)
	d.logger.Info("lensflow daemon stopped")
}

// Wait blocks until the daemon's context ends.
func (d *Daemon) Wait() {
	if d.ctx == nil {
		return
	}
	<-d.ctx.Done()
}

// Addr reports the API listen address once started.
func (d *Daemon) Addr() string {
	if d.server == nil {
		return ""
	}
	return d.server.Addr()
}

// Status reports daemon runtime information.
func (d *Daemon) Status() api.StatusResponse {
	inFlight := 0
	for _, p := range d.store.Snapshot() {
		if p.AnimationInFlight {
			inFlight++
		}
	}
	return api.StatusResponse{
		Running:            d.running.Load(),
		PID:                os.Getpid(),
		Photos:             d.store.Len(),
		AnimationsInFlight: inFlight,
		LockFilePath:       d.lockPath,
	}
}
