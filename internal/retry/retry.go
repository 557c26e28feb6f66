// Package retry provides an exponential-backoff policy for use inside
// test-case bodies. The harness itself never retries; retrying is a
// decision of the workload.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = 100 * time.Millisecond
	defaultMaxDelay     = 5 * time.Second
	defaultMultiplier   = 2.0
)

// Policy configures retry behavior. The zero value gets sensible
// defaults: 3 attempts, 100ms initial delay doubling up to 5s. Jitter is
// opt-in; its zero value means deterministic delays.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts uint64
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps any single computed delay.
	MaxDelay time.Duration
	// Multiplier scales the delay after each failed attempt.
	Multiplier float64
	// Jitter is the randomization fraction applied to each delay,
	// in [0, 1].
	Jitter float64
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = defaultInitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.Multiplier <= 0 {
		p.Multiplier = defaultMultiplier
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		p.Jitter = 0
	}
	return p
}

// Do runs op, retrying failures under the policy until it succeeds, the
// attempts are exhausted, the context is cancelled, or op returns a
// terminal error. The last error is returned.
func (p Policy) Do(ctx context.Context, op func() error) error {
	p = p.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0 // attempts govern, not wall clock

	wrapped := backoff.WithContext(backoff.WithMaxRetries(b, p.MaxAttempts-1), ctx)
	return backoff.Retry(op, wrapped)
}

// Terminal marks an error as not retryable: Do re-raises it immediately
// without consuming further attempts.
func Terminal(err error) error {
	return backoff.Permanent(err)
}
