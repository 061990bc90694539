// Package resilience bounds the closure builder's use of external
// inspection tools: a rate limiter caps subprocess spawn rate and a
// circuit breaker stops re-invoking a persistently failing inspector.
package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// InspectLimiter controls the rate of link-inspector subprocess spawns.
type InspectLimiter interface {
	// Allow checks if a spawn is allowed right now.
	Allow() bool

	// Wait blocks until a spawn is allowed or the context is canceled.
	Wait(ctx context.Context) error
}

// InspectLimiterConfig configures the inspect limiter.
type InspectLimiterConfig struct {
	// SpawnsPerSecond is the sustained spawn rate.
	SpawnsPerSecond float64

	// Burst is the burst size.
	Burst int
}

// DefaultInspectLimiterConfig returns default configuration. The
// defaults are generous: closure builds inspect at most a handful of
// binaries, the limiter exists to keep a pathological request list
// from forking the inspector unboundedly.
func DefaultInspectLimiterConfig() InspectLimiterConfig {
	return InspectLimiterConfig{
		SpawnsPerSecond: 50,
		Burst:           100,
	}
}

// inspectLimiter implements InspectLimiter.
type inspectLimiter struct {
	limiter *rate.Limiter
}

// NewInspectLimiter creates a new inspect limiter.
func NewInspectLimiter(config InspectLimiterConfig) InspectLimiter {
	if config.SpawnsPerSecond <= 0 {
		config = DefaultInspectLimiterConfig()
	}
	return &inspectLimiter{
		limiter: rate.NewLimiter(rate.Limit(config.SpawnsPerSecond), config.Burst),
	}
}

// Allow implements InspectLimiter.Allow.
func (l *inspectLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Wait implements InspectLimiter.Wait.
func (l *inspectLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
