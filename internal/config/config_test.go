package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"larder/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[paths]
destination_dir = "`+filepath.Join(base, "backups")+`"

[[sources]]
path = "`+filepath.Join(base, "docs")+`"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatalf("expected config at %s to exist", resolved)
	}
	if cfg.Backup.IntervalSeconds != 3600 {
		t.Errorf("expected default interval 3600, got %d", cfg.Backup.IntervalSeconds)
	}
	if cfg.Backup.Store != config.StoreDirectory {
		t.Errorf("expected default store %q, got %q", config.StoreDirectory, cfg.Backup.Store)
	}
	if cfg.Sources[0].MaxFileSizeBytes != 1<<30 {
		t.Errorf("expected default size cap, got %d", cfg.Sources[0].MaxFileSizeBytes)
	}
	if cfg.Retention.ShortWindowMinutes != 1440 || cfg.Retention.MaxAgeMinutes != 525600 {
		t.Errorf("unexpected retention defaults: %+v", cfg.Retention)
	}
}

func TestLoadExpandsPaths(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[paths]
destination_dir = "`+filepath.Join(base, "backups")+`/../backups"

[[sources]]
path = "`+filepath.Join(base, "docs")+`"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !filepath.IsAbs(cfg.Paths.DestinationDir) {
		t.Errorf("destination not absolute: %s", cfg.Paths.DestinationDir)
	}
	if strings.Contains(cfg.Paths.DestinationDir, "..") {
		t.Errorf("destination not cleaned: %s", cfg.Paths.DestinationDir)
	}
}

func TestDerivedPathsLiveInDestination(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DestinationDir = "/srv/backups"

	if got := cfg.StagingRoot(); got != filepath.Join("/srv/backups", ".staging") {
		t.Errorf("StagingRoot = %s", got)
	}
	if got := cfg.LockPath(); got != filepath.Join("/srv/backups", "larder.lock") {
		t.Errorf("LockPath = %s", got)
	}
	if got := cfg.LogPath(); got != filepath.Join("/srv/backups", "logs.txt") {
		t.Errorf("LogPath = %s", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "no sources",
			mutate: func(c *config.Config) { c.Sources = nil },
			want:   "sources",
		},
		{
			name:   "zero interval",
			mutate: func(c *config.Config) { c.Backup.IntervalSeconds = 0 },
			want:   "interval_seconds",
		},
		{
			name:   "bad schedule",
			mutate: func(c *config.Config) { c.Backup.Schedule = "not a cron line" },
			want:   "schedule",
		},
		{
			name:   "unknown store",
			mutate: func(c *config.Config) { c.Backup.Store = "tape" },
			want:   "store",
		},
		{
			name:   "window not below max age",
			mutate: func(c *config.Config) { c.Retention.MaxAgeMinutes = c.Retention.ShortWindowMinutes },
			want:   "max_age_minutes",
		},
		{
			name:   "negative size cap",
			mutate: func(c *config.Config) { c.Sources[0].MaxFileSizeBytes = -1 },
			want:   "max_file_size_bytes",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.DestinationDir = "/srv/backups"
			cfg.Sources = []config.Source{{Path: "/srv/docs", MaxFileSizeBytes: 1 << 20}}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestValidateAcceptsCronSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DestinationDir = "/srv/backups"
	cfg.Sources = []config.Source{{Path: "/srv/docs", MaxFileSizeBytes: 1 << 20}}
	cfg.Backup.Schedule = "30 3 * * *"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[retention]") {
		t.Error("sample config missing [retention] section")
	}
}
