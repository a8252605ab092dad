package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"larder/internal/archive"
	"larder/internal/config"
	"larder/internal/history"
	"larder/internal/logging"
	"larder/internal/snapshot"
)

// Daemon drives the periodic backup loop against a single destination root.
type Daemon struct {
	cfg      *config.Config
	store    archive.Store
	history  *history.Store
	capturer *snapshot.Capturer
	logger   *slog.Logger

	sched   *schedule
	lock    *flock.Flock
	running atomic.Bool
}

// New wires a daemon from its collaborators. The history store may be nil;
// cycle outcomes are then simply not cataloged.
func New(cfg *config.Config, store archive.Store, hist *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("daemon requires a config")
	}
	if store == nil {
		return nil, fmt.Errorf("daemon requires an archive store")
	}
	sched, err := newSchedule(cfg.Backup)
	if err != nil {
		return nil, err
	}
	return &Daemon{
		cfg:      cfg,
		store:    store,
		history:  hist,
		capturer: snapshot.NewCapturer(logger),
		logger:   logging.WithComponent(logger, "daemon"),
		sched:    sched,
		lock:     flock.New(cfg.LockPath()),
	}, nil
}

// Start runs the backup loop until ctx is canceled. A cycle runs
// immediately, then once per scheduling interval. On a stop request the
// loop runs exactly one more full cycle before returning, so a shutdown
// always leaves a fresh archive behind.
//
// If another instance already holds the destination lock, Start logs the
// fact and returns nil: a second daemon pointed at the same root is an
// operator convenience, not an error.
func (d *Daemon) Start(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		d.logger.Info("daemon already running in this process")
		return nil
	}
	defer d.running.Store(false)

	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	acquired, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !acquired {
		d.logger.Info("another instance holds the destination lock; exiting",
			logging.String("lock", d.lock.Path()),
		)
		return nil
	}
	defer d.releaseLock()

	d.sweepStaleStaging()
	d.logger.Info("backup daemon started",
		logging.String("destination", d.cfg.Paths.DestinationDir),
		logging.String("store", d.cfg.Backup.Store),
		logging.String("schedule", d.sched.describe()),
		logging.Int("sources", len(d.cfg.Sources)),
	)

	for {
		// Cycles always run to completion; cancellation only affects the
		// wait between them.
		d.runCycle(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
			d.logger.Info("stop requested; running final backup cycle")
			d.runCycle(context.WithoutCancel(ctx))
			d.logger.Info("backup daemon stopped")
			return nil
		case <-time.After(d.sched.wait(time.Now())):
		}
	}
}

// RunOnce executes a single backup cycle and returns. Unlike Start, a held
// lock is an error here: the caller asked for a backup and is not getting
// one.
func (d *Daemon) RunOnce(ctx context.Context) error {
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	acquired, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("another instance holds the destination lock %s", d.lock.Path())
	}
	defer d.releaseLock()

	d.runCycle(ctx)
	return nil
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("releasing instance lock failed", logging.Error(err))
	}
}

// sweepStaleStaging clears leftovers from cycles interrupted by a crash.
// Everything under the staging root belongs to a cycle that never finished.
func (d *Daemon) sweepStaleStaging() {
	root := d.cfg.StagingRoot()
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			d.logger.Warn("removing stale staging directory failed",
				logging.String("path", path),
				logging.Error(err),
			)
			continue
		}
		d.logger.Info("removed stale staging directory", logging.String("path", path))
	}
}
