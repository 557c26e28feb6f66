package core

import (
	"math/rand"
	"sync"
	"time"
)

// DelaySource draws the start-jitter delay for one task. Each task draws
// independently; implementations must be safe for concurrent use.
type DelaySource interface {
	// Delay returns a duration in [0, bound). A bound of zero (or less)
	// always yields zero.
	Delay(bound time.Duration) time.Duration
}

// RandomDelays draws uniformly distributed delays. The zero value is not
// usable; construct with NewRandomDelays.
type RandomDelays struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDelays returns a DelaySource seeded from the current time.
func NewRandomDelays() *RandomDelays {
	return &RandomDelays{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededDelays returns a DelaySource with a fixed seed, for
// reproducible jitter in tests.
func NewSeededDelays(seed int64) *RandomDelays {
	return &RandomDelays{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomDelays) Delay(bound time.Duration) time.Duration {
	if bound <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Duration(r.rng.Int63n(int64(bound)))
}

// FixedDelays always returns the same delay, clamped to the bound.
// Used by tests that need deterministic scheduling.
type FixedDelays struct {
	D time.Duration
}

func (f FixedDelays) Delay(bound time.Duration) time.Duration {
	if bound <= 0 || f.D < 0 {
		return 0
	}
	if f.D >= bound {
		return bound - 1
	}
	return f.D
}
