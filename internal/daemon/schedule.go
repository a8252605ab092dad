package daemon

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"larder/internal/config"
)

// schedule decides how long the daemon sleeps between cycles. With a cron
// expression configured it targets the next matching wall-clock instant;
// otherwise it falls back to the fixed interval.
type schedule struct {
	interval time.Duration
	cron     cron.Schedule
	expr     string
}

func newSchedule(cfg config.Backup) (*schedule, error) {
	s := &schedule{interval: time.Duration(cfg.IntervalSeconds) * time.Second}
	if cfg.Schedule != "" {
		parsed, err := cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("parse backup.schedule %q: %w", cfg.Schedule, err)
		}
		s.cron = parsed
		s.expr = cfg.Schedule
	}
	return s, nil
}

// wait returns the sleep duration after a cycle that finished at now. Cron
// schedules are clamped to at least one second so a cycle that straddles
// the fire instant cannot spin.
func (s *schedule) wait(now time.Time) time.Duration {
	if s.cron != nil {
		d := s.cron.Next(now).Sub(now)
		if d < time.Second {
			d = time.Second
		}
		return d
	}
	return s.interval
}

func (s *schedule) describe() string {
	if s.cron != nil {
		return "cron " + s.expr
	}
	return "every " + s.interval.String()
}
