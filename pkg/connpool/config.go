package connpool

import "time"

// Config controls retries, health checks and expiry for one Pool.
// Zero values fall back to the defaults in the env tags.
type Config struct {
	MaxRetries          int           `env:"POOL_MAX_RETRIES" envDefault:"3"`
	HealthCheckInterval time.Duration `env:"POOL_HEALTHCHECK_INTERVAL" envDefault:"15s"`
	MaxConnectionAge    time.Duration `env:"POOL_MAX_CONNECTION_AGE" envDefault:"1h"`
	CleanupInterval     time.Duration `env:"POOL_CLEANUP_INTERVAL" envDefault:"1m"`
	RetryBaseDelay      time.Duration `env:"POOL_RETRY_BASE_DELAY" envDefault:"100ms"`
	RetryMaxDelay       time.Duration `env:"POOL_RETRY_MAX_DELAY" envDefault:"1s"`
}

// DefaultConfig returns the configuration used for zero fields.
func DefaultConfig() Config {
	return Config{
		MaxRetries:          3,
		HealthCheckInterval: 15 * time.Second,
		MaxConnectionAge:    time.Hour,
		CleanupInterval:     time.Minute,
		RetryBaseDelay:      100 * time.Millisecond,
		RetryMaxDelay:       time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = d.HealthCheckInterval
	}
	if c.MaxConnectionAge <= 0 {
		c.MaxConnectionAge = d.MaxConnectionAge
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = d.RetryBaseDelay
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = d.RetryMaxDelay
	}
	return c
}

// backoff returns the delay after the given 1-based failed attempt.
func (c Config) backoff(attempt int) time.Duration {
	delay := c.RetryBaseDelay
	for range attempt {
		delay *= 2
		if delay >= c.RetryMaxDelay {
			return c.RetryMaxDelay
		}
	}
	return min(delay, c.RetryMaxDelay)
}
