// Package ratelimit caps the rate at which harness tasks start.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket limiter whose rate can be adjusted while
// tasks are running. A rate of zero disables limiting.
type Limiter struct {
	limiter *rate.Limiter
	mu      sync.RWMutex
}

// NewLimiter creates a Limiter allowing rps task starts per second.
func NewLimiter(rps int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Wait blocks until a task may start, or the context is cancelled.
// With a zero rate it returns immediately.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.RLock()
	limiter := l.limiter
	limit := limiter.Limit()
	l.mu.RUnlock()

	if limit == 0 {
		return nil
	}
	return limiter.Wait(ctx)
}

// SetRate changes the allowed starts per second. Zero disables limiting.
func (l *Limiter) SetRate(rps int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiter.SetLimit(rate.Limit(rps))
	l.limiter.SetBurst(rps)
}
