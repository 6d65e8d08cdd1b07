package console

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-caller command limits.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
	// IdleTTL is how long an unused limiter is kept.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig allows short bursts of typing.
var DefaultRateLimitConfig = RateLimitConfig{
	PerSecond: 4,
	Burst:     8,
	IdleTTL:   5 * time.Minute,
}

type callerLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per caller.
type RateLimiter struct {
	mu      sync.Mutex
	callers map[string]*callerLimit
	config  RateLimitConfig
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = DefaultRateLimitConfig.PerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimitConfig.Burst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultRateLimitConfig.IdleTTL
	}
	return &RateLimiter{callers: make(map[string]*callerLimit), config: cfg}
}

// Allow reports whether the caller may run another command now.
func (rl *RateLimiter) Allow(callerID string) bool {
	return rl.AllowAt(callerID, time.Now())
}

// AllowAt is Allow with an explicit clock.
func (rl *RateLimiter) AllowAt(callerID string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.callers[callerID]
	if !ok {
		cl = &callerLimit{limiter: rate.NewLimiter(rate.Limit(rl.config.PerSecond), rl.config.Burst)}
		rl.callers[callerID] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Prune drops limiters idle for longer than IdleTTL.
func (rl *RateLimiter) Prune(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.config.IdleTTL)
	n := 0
	for id, cl := range rl.callers {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.callers, id)
			n++
		}
	}
	return n
}

// Len is the number of tracked callers.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.callers)
}
