package daemon

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"larder/internal/archive"
	"larder/internal/config"
	"larder/internal/history"
	"larder/internal/logging"
	"larder/internal/testsupport"
)

func configBackup(intervalSeconds int, schedule string) config.Backup {
	return config.Backup{IntervalSeconds: intervalSeconds, Schedule: schedule}
}

func TestRunCycleCreatesArchiveAndRecordsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := archive.NewStore(cfg, logging.NewNop())
	hist := testsupport.MustOpenHistory(t, cfg)
	d, err := New(cfg, store, hist, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	d.runCycle(ctx)

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one archive, got %d", len(entries))
	}
	if entries[0].SizeBytes <= 0 {
		t.Fatalf("archive has no content: %+v", entries[0])
	}

	records, err := hist.List(ctx, 0)
	if err != nil {
		t.Fatalf("history List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one history record, got %d", len(records))
	}
	if records[0].Status != history.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", records[0].Status, records[0].Message)
	}
	if records[0].ArchiveName != entries[0].Name {
		t.Fatalf("history names %q, store has %q", records[0].ArchiveName, entries[0].Name)
	}

	// Staging directories must not outlive the cycle.
	leftovers, err := os.ReadDir(cfg.StagingRoot())
	if err == nil && len(leftovers) != 0 {
		t.Fatalf("staging root not cleaned: %d leftovers", len(leftovers))
	}
}

func TestRunCycleSkipsWhenSpaceLow(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMinFreeSpaceKB(math.MaxUint64))
	store := archive.NewStore(cfg, logging.NewNop())
	hist := testsupport.MustOpenHistory(t, cfg)
	d, err := New(cfg, store, hist, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	d.runCycle(ctx)

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no archives on a skipped cycle, got %d", len(entries))
	}
	records, err := hist.List(ctx, 0)
	if err != nil {
		t.Fatalf("history List failed: %v", err)
	}
	if len(records) != 1 || records[0].Status != history.StatusSkippedSpace {
		t.Fatalf("expected one skipped_space record, got %+v", records)
	}
}

func TestRunCyclePrunesExpiredArchives(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := archive.NewStore(cfg, logging.NewNop())
	d, err := New(cfg, store, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	// Seed an archive old enough to be past max age, then age its mtime.
	staged := t.TempDir()
	if err := os.WriteFile(filepath.Join(staged, "old.txt"), []byte("old"), 0o644); err != nil {
		t.Fatalf("seed staged file: %v", err)
	}
	oldName := "20200101_000000"
	if _, err := store.Add(ctx, staged, oldName); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	oldTime := time.Now().Add(-2 * 365 * 24 * time.Hour)
	oldPath := filepath.Join(cfg.Paths.DestinationDir, oldName+".tar.gz")
	if err := os.Chtimes(oldPath, oldTime, oldTime); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	d.runCycle(ctx)

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the fresh archive, got %d entries", len(entries))
	}
	if entries[0].Name == oldName {
		t.Fatalf("expired archive survived the cycle")
	}
}

func TestStartReturnsWhenLockHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	holder := flock.New(cfg.LockPath())
	acquired, err := holder.TryLock()
	if err != nil || !acquired {
		t.Fatalf("pre-acquiring lock failed: acquired=%v err=%v", acquired, err)
	}
	defer holder.Unlock()

	store := archive.NewStore(cfg, logging.NewNop())
	d, err := New(cfg, store, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- d.Start(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start with held lock should return nil, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return with the lock held")
	}

	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("second instance must not produce archives, got %d", len(entries))
	}
}

func TestStartRunsFinalCycleOnStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Backup.IntervalSeconds = 3600
	store := archive.NewStore(cfg, logging.NewNop())
	hist := testsupport.MustOpenHistory(t, cfg)
	d, err := New(cfg, store, hist, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	// Wait for the startup cycle to land in the catalog, then stop.
	deadline := time.Now().Add(10 * time.Second)
	for {
		records, err := hist.List(context.Background(), 0)
		if err == nil && len(records) >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("startup cycle never recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Start did not return after cancel")
	}

	// Archive names collide within a second, so count cycles via history:
	// the startup cycle plus exactly one shutdown cycle.
	records, err := hist.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("history List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 cycle records (startup + final), got %d", len(records))
	}
	for _, rec := range records {
		if rec.Status != history.StatusCompleted {
			t.Fatalf("cycle did not complete: %+v", rec)
		}
	}
}

func TestStartSweepsStaleStaging(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stale := filepath.Join(cfg.StagingRoot(), "20240101_000000-deadbeef")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatalf("mkdir stale staging: %v", err)
	}
	store := archive.NewStore(cfg, logging.NewNop())
	d, err := New(cfg, store, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale staging directory survived startup: %v", err)
	}
}

func TestScheduleWait(t *testing.T) {
	s, err := newSchedule(configBackup(900, ""))
	if err != nil {
		t.Fatalf("newSchedule failed: %v", err)
	}
	if got := s.wait(time.Now()); got != 900*time.Second {
		t.Fatalf("interval wait = %v, want 900s", got)
	}

	s, err = newSchedule(configBackup(900, "30 3 * * *"))
	if err != nil {
		t.Fatalf("newSchedule with cron failed: %v", err)
	}
	got := s.wait(time.Date(2024, time.June, 1, 3, 0, 0, 0, time.UTC))
	if got <= 0 || got > 24*time.Hour {
		t.Fatalf("cron wait = %v, want within a day", got)
	}

	if _, err := newSchedule(configBackup(900, "not a cron expr")); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}
