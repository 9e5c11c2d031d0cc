package resilience

import (
	"cmp"
	"time"
)

// Operation names guarded by the executor. Each gets its own breaker.
const (
	OpCoverLookup        = "jikan.search"
	OpPublishInteraction = "nats.publish"
)

// Config bounds retries and circuit breaking for outbound calls. The Retry*
// fields are the budget of any operation without an entry in Operations.
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

	// Operations tightens the retry budget per operation name. A nil map
	// selects the defaults; an empty map disables every override.
	Operations map[string]OperationPolicy
}

// OperationPolicy caps attempts and backoff of one operation. Zero fields
// inherit the global values.
type OperationPolicy struct {
	MaxAttempts int
	MaxBackoff  time.Duration
}

// DefaultConfig favors cover lookups, which run off the request path and can
// wait for Jikan's rate window. Interaction publishes share the caller's
// short publish timeout, so they retry once with a small pause.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 200 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      5,
		BreakerFailureRatio:     0.6,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,

		Operations: map[string]OperationPolicy{
			OpPublishInteraction: {MaxAttempts: 2, MaxBackoff: 250 * time.Millisecond},
		},
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	out := c

	out.RetryMaxAttempts = positiveOr(c.RetryMaxAttempts, def.RetryMaxAttempts)
	out.RetryInitialBackoff = positiveOr(c.RetryInitialBackoff, def.RetryInitialBackoff)
	out.RetryMaxBackoff = max(positiveOr(c.RetryMaxBackoff, def.RetryMaxBackoff), out.RetryInitialBackoff)
	if c.RetryMultiplier < 1 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	out.BreakerMinRequests = positiveOr(c.BreakerMinRequests, def.BreakerMinRequests)
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	out.BreakerOpenTimeout = positiveOr(c.BreakerOpenTimeout, def.BreakerOpenTimeout)
	out.BreakerHalfOpenMaxCalls = positiveOr(c.BreakerHalfOpenMaxCalls, def.BreakerHalfOpenMaxCalls)

	if c.Operations == nil {
		out.Operations = def.Operations
	}
	return out
}

// budget returns the attempt limit, first wait and backoff ceiling for
// operation.
func (c Config) budget(operation string) (attempts int, first, ceiling time.Duration) {
	attempts, ceiling = c.RetryMaxAttempts, c.RetryMaxBackoff
	if p, ok := c.Operations[operation]; ok {
		attempts = positiveOr(p.MaxAttempts, attempts)
		ceiling = positiveOr(p.MaxBackoff, ceiling)
	}
	return attempts, min(c.RetryInitialBackoff, ceiling), ceiling
}

func (c Config) nextBackoff(current, ceiling time.Duration) time.Duration {
	return min(time.Duration(float64(current)*c.RetryMultiplier), ceiling)
}

func positiveOr[T cmp.Ordered](v, fallback T) T {
	var zero T
	if v > zero {
		return v
	}
	return fallback
}
