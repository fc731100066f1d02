package connpool

import (
	"log/slog"

	"github.com/juju/clock"
)

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// WithClock replaces the wall clock that drives retries, health checks,
// expiry and the cleanup sweep.
func WithClock(c clock.Clock) Option {
	return func(p *Pool) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithEventBuffer sets the per-subscriber event buffer size.
func WithEventBuffer(size int) Option {
	return func(p *Pool) {
		if size > 0 {
			p.eventBuffer = size
		}
	}
}
