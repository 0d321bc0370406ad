package resilience

import "time"

// Config tunes retries and the breaker for calls to embedding providers.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// DefaultConfig suits corpus embedding: a build sends hundreds of batches,
// so the breaker needs a handful of samples before it may trip.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 250 * time.Millisecond,
		RetryMaxBackoff:     4 * time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      4,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      20 * time.Second,
		BreakerHalfOpenMaxCalls: 1,
	}
}

// ForEmbedding overrides the operator-facing knobs on top of DefaultConfig.
// Zero values keep the defaults.
func ForEmbedding(maxAttempts int, initialBackoff time.Duration, breakerEnabled bool) Config {
	cfg := DefaultConfig()
	if maxAttempts > 0 {
		cfg.RetryMaxAttempts = maxAttempts
	}
	if initialBackoff > 0 {
		cfg.RetryInitialBackoff = initialBackoff
		cfg.RetryMaxBackoff = max(cfg.RetryMaxBackoff, initialBackoff)
	}
	cfg.BreakerEnabled = breakerEnabled
	return cfg
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	c.RetryMaxAttempts = positiveOr(c.RetryMaxAttempts, def.RetryMaxAttempts)
	c.RetryInitialBackoff = positiveOr(c.RetryInitialBackoff, def.RetryInitialBackoff)
	c.RetryMaxBackoff = max(c.RetryMaxBackoff, c.RetryInitialBackoff)
	if c.RetryMultiplier < 1 {
		c.RetryMultiplier = def.RetryMultiplier
	}
	c.BreakerMinRequests = positiveOr(c.BreakerMinRequests, def.BreakerMinRequests)
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		c.BreakerFailureRatio = def.BreakerFailureRatio
	}
	c.BreakerOpenTimeout = positiveOr(c.BreakerOpenTimeout, def.BreakerOpenTimeout)
	c.BreakerHalfOpenMaxCalls = positiveOr(c.BreakerHalfOpenMaxCalls, def.BreakerHalfOpenMaxCalls)
	return c
}

func positiveOr[T int | uint32 | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}
