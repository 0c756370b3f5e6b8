package edge

import (
	"sync"
	"time"
)

// Limiter is a token bucket capping the outbound request rate to the
// provider. Tokens accrue at a fixed per-second rate up to a burst cap;
// every call consumes one token, sleeping until one is available if the
// bucket is empty. Callers are never rejected, only delayed.
//
// One Limiter instance is shared by all callers of a Client; the mutex
// keeps the refill/consume sequence atomic so two goroutines cannot both
// spend the same token off a stale read.
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	rate       float64
	burst      float64
	lastRefill time.Time

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// NewLimiter creates a limiter issuing tokensPerSecond with the given burst
// capacity. A zero or negative burst defaults to 2.5x the rate.
func NewLimiter(tokensPerSecond, burstCapacity float64) *Limiter {
	if burstCapacity <= 0 {
		burstCapacity = tokensPerSecond * 2.5
	}
	return &Limiter{
		tokens:     burstCapacity,
		rate:       tokensPerSecond,
		burst:      burstCapacity,
		lastRefill: time.Now(),
		sleep:      time.Sleep,
	}
}

// refill adds tokens for the time elapsed since the last refill. Caller
// must hold mu.
func (l *Limiter) refill(now time.Time) {
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.lastRefill = now
}

// Wait consumes one token, sleeping for exactly the time needed for one
// token to accrue when the bucket is empty. Under sustained load the
// long-run issue rate converges to the configured rate.
func (l *Limiter) Wait() {
	l.mu.Lock()
	l.refill(time.Now())

	if l.tokens >= 1 {
		l.tokens--
		l.mu.Unlock()
		return
	}

	deficit := 1 - l.tokens
	wait := time.Duration(deficit / l.rate * float64(time.Second))
	l.mu.Unlock()

	l.sleep(wait)

	l.mu.Lock()
	l.refill(time.Now())
	// The balance may go briefly negative when several waiters wake at
	// once; the debt delays later callers and preserves the long-run rate.
	l.tokens--
	l.mu.Unlock()
}
