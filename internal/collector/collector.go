// Package collector aggregates samples and computes run summaries.
package collector

import (
	"sync"

	"stampede/internal/core"
)

// Collector aggregates samples from worker goroutines. Each task reports
// exactly one sample; the collector never drops one, so Report blocks when
// the buffer is full rather than discarding.
type Collector struct {
	samples []core.Sample
	ch      chan core.Sample
	done    chan struct{}
	mu      sync.Mutex
}

// NewCollector creates a Collector sized for the given number of samples
// and starts its collection goroutine.
func NewCollector(capacity int) *Collector {
	if capacity < 1 {
		capacity = 1
	}
	c := &Collector{
		samples: make([]core.Sample, 0, capacity),
		ch:      make(chan core.Sample, capacity),
		done:    make(chan struct{}),
	}
	go c.collect()
	return c
}

func (c *Collector) collect() {
	for s := range c.ch {
		c.mu.Lock()
		c.samples = append(c.samples, s)
		c.mu.Unlock()
	}
	close(c.done)
}

// Report sends a sample to the collector. Thread-safe. Blocks if the
// buffer is full; must not be called after Close.
func (c *Collector) Report(s core.Sample) {
	c.ch <- s
}

// Close stops the collector and waits for every reported sample to be
// appended.
func (c *Collector) Close() {
	close(c.ch)
	<-c.done
}

// Samples returns a copy of the collected samples.
func (c *Collector) Samples() []core.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

// Count returns the number of samples collected so far.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}
