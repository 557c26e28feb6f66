// Package progress prints periodic status lines while a run is active.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Counter exposes how many samples have been collected so far.
type Counter interface {
	Count() int
}

// Progress periodically reports collected-sample counts during a run.
// A nil Progress is valid and does nothing.
type Progress struct {
	interval  time.Duration
	startTime time.Time
	counter   Counter
	total     int
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopped   atomic.Bool
	output    io.Writer
	mu        sync.Mutex
}

// New creates a Progress writing to stderr once per second.
func New() *Progress {
	return &Progress{
		interval: time.Second,
		output:   os.Stderr,
	}
}

func (p *Progress) SetOutput(w io.Writer) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

func (p *Progress) SetInterval(d time.Duration) {
	if p == nil || d <= 0 {
		return
	}
	p.interval = d
}

// Start begins reporting against the given counter. Must be paired with
// Stop once the run completes.
func (p *Progress) Start(c Counter, total int) {
	if p == nil {
		return
	}
	p.counter = c
	p.total = total
	p.startTime = time.Now()
	p.stopped.Store(false)
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(p.interval)
	go p.run()
}

func (p *Progress) run() {
	for {
		select {
		case <-p.stopCh:
			return
		case <-p.ticker.C:
			p.printLine()
		}
	}
}

func (p *Progress) printLine() {
	done := p.counter.Count()
	pct := 0.0
	if p.total > 0 {
		pct = float64(done) / float64(p.total) * 100
	}
	elapsed := time.Since(p.startTime).Round(time.Second)
	p.Printf("progress: %d/%d samples (%.0f%%) elapsed=%v", done, p.total, pct, elapsed)
}

// Printf writes a line through the progress writer. Safe to call from
// multiple goroutines.
func (p *Progress) Printf(format string, args ...any) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.output, format+"\n", args...)
}

// Stop halts reporting. Idempotent.
func (p *Progress) Stop() {
	if p == nil || !p.stopped.CompareAndSwap(false, true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
	}
}
