package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DestinationDir string `toml:"destination_dir"`
}

// Source describes one directory tree to snapshot each cycle.
type Source struct {
	Path             string `toml:"path"`
	MaxFileSizeBytes int64  `toml:"max_file_size_bytes"`
}

// Backup contains cycle scheduling and destination safety settings.
type Backup struct {
	IntervalSeconds int    `toml:"interval_seconds"`
	Schedule        string `toml:"schedule"`
	MinFreeSpaceKB  uint64 `toml:"min_free_space_kb"`
	Store           string `toml:"store"`
}

// Retention contains the tiered retention policy settings. Ages are
// expressed in minutes; the short window is the bucket width and the
// max age bounds the oldest history kept.
type Retention struct {
	ShortWindowMinutes int `toml:"short_window_minutes"`
	MaxAgeMinutes      int `toml:"max_age_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Store backend names accepted by backup.store.
const (
	StoreDirectory = "directory"
	StoreContainer = "container"
)

// Config encapsulates all configuration values for larder.
//
// Configuration sections by subsystem:
//   - Paths: backup destination root
//   - Sources: directory trees captured each cycle
//   - Backup: cycle interval / cron schedule, free-space floor, store backend
//   - Retention: tiered pruning windows
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Sources   []Source  `toml:"sources"`
	Backup    Backup    `toml:"backup"`
	Retention Retention `toml:"retention"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/larder/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("larder.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DestinationDir, err = expandPath(c.Paths.DestinationDir); err != nil {
		return fmt.Errorf("paths.destination_dir: %w", err)
	}
	for i := range c.Sources {
		if c.Sources[i].Path, err = expandPath(c.Sources[i].Path); err != nil {
			return fmt.Errorf("sources[%d].path: %w", i, err)
		}
		if c.Sources[i].MaxFileSizeBytes == 0 {
			c.Sources[i].MaxFileSizeBytes = defaultMaxFileSizeBytes
		}
	}
	if strings.TrimSpace(c.Backup.Store) == "" {
		c.Backup.Store = StoreDirectory
	}
	c.Backup.Store = strings.ToLower(strings.TrimSpace(c.Backup.Store))
	c.Backup.Schedule = strings.TrimSpace(c.Backup.Schedule)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// EnsureDirectories creates the destination root required for daemon
// operation. Failure here is fatal to startup; everything else the daemon
// needs is created lazily.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.DestinationDir, 0o755); err != nil {
		return fmt.Errorf("create destination root %q: %w", c.Paths.DestinationDir, err)
	}
	return nil
}

// StagingRoot returns the directory that holds per-cycle staging directories.
func (c *Config) StagingRoot() string {
	return filepath.Join(c.Paths.DestinationDir, ".staging")
}

// LockPath returns the single-instance lock file path, keyed by the
// destination so two daemons cannot share one backup root.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DestinationDir, "larder.lock")
}

// LogPath returns the append-only run log inside the destination root.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.DestinationDir, "logs.txt")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
