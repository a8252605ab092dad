package daemon

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"larder/internal/archive"
	"larder/internal/freespace"
	"larder/internal/history"
	"larder/internal/logging"
	"larder/internal/retention"
)

// runCycle executes one full backup cycle: announce, re-ensure the
// destination, guard free space, capture sources into staging, archive the
// staging directory, then apply retention. Cycle failures are logged and
// recorded but never stop the daemon.
func (d *Daemon) runCycle(ctx context.Context) {
	startedAt := time.Now()
	name := archive.FormatEntryName(startedAt)
	d.logger.Info("backup cycle started",
		logging.Time("wall_clock", startedAt),
		logging.String("archive", name),
	)

	// The destination may have been unmounted or removed since startup.
	if err := os.MkdirAll(d.cfg.Paths.DestinationDir, 0o755); err != nil {
		d.logger.Error("destination root unavailable; skipping cycle", logging.Error(err))
		d.record(ctx, history.Record{
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
			Status:     history.StatusFailed,
			Message:    "destination root unavailable: " + err.Error(),
		})
		return
	}

	if err := freespace.Check(d.cfg.Paths.DestinationDir, d.cfg.Backup.MinFreeSpaceKB); err != nil {
		d.logger.Warn("free space below threshold; skipping capture", logging.Error(err))
		d.record(ctx, history.Record{
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
			Status:     history.StatusSkippedSpace,
			Message:    err.Error(),
		})
		return
	}

	staging := filepath.Join(d.cfg.StagingRoot(), name+"-"+uuid.NewString()[:8])
	if err := d.capturer.Capture(ctx, d.cfg.Sources, staging); err != nil {
		d.logger.Error("staging setup failed; skipping cycle", logging.Error(err))
		d.record(ctx, history.Record{
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
			Status:     history.StatusFailed,
			Message:    "staging setup: " + err.Error(),
		})
		return
	}

	entry, addErr := d.store.Add(ctx, staging, name)
	if err := os.RemoveAll(staging); err != nil {
		d.logger.Warn("staging cleanup failed", logging.String("path", staging), logging.Error(err))
	}
	if addErr != nil {
		d.logger.Error("storing archive failed", logging.String("archive", name), logging.Error(addErr))
		d.record(ctx, history.Record{
			StartedAt:   startedAt,
			FinishedAt:  time.Now(),
			Status:      history.StatusFailed,
			ArchiveName: name,
			Message:     "store archive: " + addErr.Error(),
		})
		return
	}
	d.logger.Info("archive stored",
		logging.String("archive", entry.Name),
		logging.Int64("size_bytes", entry.SizeBytes),
	)

	pruned := d.applyRetention(ctx, startedAt)

	d.record(ctx, history.Record{
		StartedAt:    startedAt,
		FinishedAt:   time.Now(),
		Status:       history.StatusCompleted,
		ArchiveName:  entry.Name,
		ArchiveBytes: entry.SizeBytes,
		Pruned:       pruned,
	})
	d.logger.Info("backup cycle finished",
		logging.String("archive", entry.Name),
		logging.Int("pruned", pruned),
		logging.Duration("elapsed", time.Since(startedAt)),
	)
}

// applyRetention plans against a fresh listing and deletes what the policy
// names. Failures are logged only; the next cycle re-plans from scratch and
// picks up anything left behind.
func (d *Daemon) applyRetention(ctx context.Context, now time.Time) int {
	entries, err := d.store.List(ctx)
	if err != nil {
		d.logger.Warn("listing archives failed; retention skipped this cycle", logging.Error(err))
		return 0
	}

	doomed := retention.Plan(now, entries, retention.Config{
		ShortWindowMinutes: d.cfg.Retention.ShortWindowMinutes,
		MaxAgeMinutes:      d.cfg.Retention.MaxAgeMinutes,
	})
	if len(doomed) == 0 {
		return 0
	}

	if err := d.store.Remove(ctx, doomed); err != nil {
		d.logger.Warn("pruning archives failed; retrying next cycle",
			logging.Int("planned", len(doomed)),
			logging.Error(err),
		)
		return 0
	}
	d.logger.Info("archives pruned", logging.Int("count", len(doomed)))
	return len(doomed)
}

// record appends a cycle outcome to the history catalog. The catalog is
// advisory, so errors are logged and swallowed.
func (d *Daemon) record(ctx context.Context, rec history.Record) {
	if d.history == nil {
		return
	}
	if _, err := d.history.Append(ctx, rec); err != nil {
		d.logger.Warn("recording cycle history failed", logging.Error(err))
	}
}
