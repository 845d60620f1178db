package module

import (
	"time"

	"papertrail/internal/platform/config"
)

// Options controls the dispatcher
type Options struct {
	Domain         string
	From           string
	MaxAttempts    int
	RetryBaseMs    int
	SendgridAPIKey string
}

// FromConfig reads with DISPATCH_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("DISPATCH_")
	return Options{
		Domain:         c.MayString("DOMAIN", "papertrail.local"),
		From:           c.MayString("FROM", "dsar@papertrail.local"),
		MaxAttempts:    c.MayInt("MAX_ATTEMPTS", 3),
		RetryBaseMs:    int(c.MayDuration("RETRY_BASE", 500*time.Millisecond).Milliseconds()),
		SendgridAPIKey: c.MayString("SENDGRID_API_KEY", ""),
	}
}
