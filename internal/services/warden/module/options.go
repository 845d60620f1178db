package module

import (
	"time"

	"papertrail/internal/platform/config"
)

// Options controls the warden sweeps
type Options struct {
	Interval     time.Duration
	ReminderLead time.Duration
	Batch        int
}

// FromConfig reads with WARDEN_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("WARDEN_")
	return Options{
		Interval:     c.MayDuration("INTERVAL", 5*time.Minute),
		ReminderLead: c.MayDuration("REMINDER_LEAD", 5*24*time.Hour),
		Batch:        c.MayInt("BATCH", 200),
	}
}
