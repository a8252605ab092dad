package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateBackup(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DestinationDir) == "" {
		return errors.New("paths.destination_dir must be set")
	}
	return nil
}

func (c *Config) validateSources() error {
	if len(c.Sources) == 0 {
		return errors.New("at least one [[sources]] entry must be configured")
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		if strings.TrimSpace(src.Path) == "" {
			return fmt.Errorf("sources[%d].path must be set", i)
		}
		if src.MaxFileSizeBytes <= 0 {
			return fmt.Errorf("sources[%d].max_file_size_bytes must be positive", i)
		}
		if _, dup := seen[src.Path]; dup {
			return fmt.Errorf("sources[%d].path %q is listed twice", i, src.Path)
		}
		seen[src.Path] = struct{}{}
	}
	return nil
}

func (c *Config) validateBackup() error {
	if c.Backup.IntervalSeconds <= 0 {
		return errors.New("backup.interval_seconds must be positive")
	}
	if c.Backup.Schedule != "" {
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			return fmt.Errorf("backup.schedule: invalid cron expression %q: %w", c.Backup.Schedule, err)
		}
	}
	switch c.Backup.Store {
	case StoreDirectory, StoreContainer:
	default:
		return fmt.Errorf("backup.store must be %q or %q, got %q", StoreDirectory, StoreContainer, c.Backup.Store)
	}
	return nil
}

func (c *Config) validateRetention() error {
	if c.Retention.ShortWindowMinutes <= 0 {
		return errors.New("retention.short_window_minutes must be positive")
	}
	if c.Retention.MaxAgeMinutes <= c.Retention.ShortWindowMinutes {
		return errors.New("retention.max_age_minutes must be greater than retention.short_window_minutes")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}
