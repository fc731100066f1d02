package tenantcheck

import (
	"log/slog"
	"time"
)

// Option configures a Checker.
type Option func(*Checker)

// WithConcurrency limits how many probes run at once. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithProbeTimeout bounds each probe. Zero disables the bound.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Checker) {
		c.timeout = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Checker) {
		if log != nil {
			c.log = log
		}
	}
}

// FromConfig converts a Config into options.
func FromConfig(cfg Config) []Option {
	return []Option{
		WithConcurrency(cfg.Concurrency),
		WithProbeTimeout(cfg.ProbeTimeout),
	}
}
