// Package testsupport provides shared builders for package tests: configs
// seeded with unique temp directories and pre-populated source trees.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"larder/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test:
// a destination root and one populated source tree. Options refine it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DestinationDir = filepath.Join(base, "backups")

	sourceDir := filepath.Join(base, "source")
	seedTree(t, sourceDir, map[string]string{
		"readme.txt":      "seed data",
		"nested/notes.md": "more seed data",
	})
	cfgVal.Sources = []config.Source{{Path: sourceDir, MaxFileSizeBytes: 1 << 20}}
	cfgVal.Backup.MinFreeSpaceKB = 0

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithSource appends an extra source tree populated with the given files.
func WithSource(name string, files map[string]string) ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, name)
		seedTree(b.t, dir, files)
		b.cfg.Sources = append(b.cfg.Sources, config.Source{Path: dir, MaxFileSizeBytes: 1 << 20})
	}
}

// WithStore selects the archive store backend.
func WithStore(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backup.Store = backend
	}
}

// WithRetention overrides the retention windows.
func WithRetention(shortWindowMinutes, maxAgeMinutes int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retention.ShortWindowMinutes = shortWindowMinutes
		b.cfg.Retention.MaxAgeMinutes = maxAgeMinutes
	}
}

// WithMinFreeSpaceKB overrides the free-space floor.
func WithMinFreeSpaceKB(kb uint64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backup.MinFreeSpaceKB = kb
	}
}

func seedTree(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}
