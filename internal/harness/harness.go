// Package harness orchestrates bounded concurrent test-case invocations.
package harness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"stampede/internal/collector"
	"stampede/internal/core"
	"stampede/internal/progress"
	"stampede/internal/ratelimit"
)

// Options configures a Harness.
type Options struct {
	// N is the number of concurrent workers. Required, must be >= 1.
	N int
	// K is the number of repetitions per worker. Defaults to 1.
	K int
	// Jitter is the upper bound for the random start delay drawn
	// independently by every task. Zero disables jitter.
	Jitter time.Duration

	// Clock, Delays are injectable for tests; defaults are the real
	// clock and a uniform random delay source.
	Clock  core.Clock
	Delays core.DelaySource

	// Limiter optionally caps the rate at which tasks start invoking.
	// It does not change the N-bounded concurrency.
	Limiter *ratelimit.Limiter
	// Progress optionally reports collection progress during a run.
	Progress *progress.Progress
}

// Harness drives a test case across a bounded pool of concurrent workers
// and collects every invocation outcome into a Result. A Harness keeps a
// history of the results of its runs.
type Harness struct {
	tc      core.TestCase
	n       int
	k       int
	jitter  time.Duration
	clock   core.Clock
	delays  core.DelaySource
	limiter *ratelimit.Limiter
	prog    *progress.Progress
	testID  string

	mu      sync.Mutex
	history []*core.Result
}

// New validates the configuration and creates a Harness. The harness
// identifier is derived from the test case name and the construction time
// and stays stable across runs.
func New(tc core.TestCase, opts Options) (*Harness, error) {
	if tc == nil {
		return nil, fmt.Errorf("test case is required")
	}
	if opts.N < 1 {
		return nil, fmt.Errorf("n must be >= 1, got %d", opts.N)
	}
	if opts.K == 0 {
		opts.K = 1
	}
	if opts.K < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", opts.K)
	}
	if opts.Jitter < 0 {
		return nil, fmt.Errorf("jitter must be >= 0, got %v", opts.Jitter)
	}
	if opts.Clock == nil {
		opts.Clock = core.RealClock{}
	}
	if opts.Delays == nil {
		opts.Delays = core.NewRandomDelays()
	}

	return &Harness{
		tc:      tc,
		n:       opts.N,
		k:       opts.K,
		jitter:  opts.Jitter,
		clock:   opts.Clock,
		delays:  opts.Delays,
		limiter: opts.Limiter,
		prog:    opts.Progress,
		testID:  fmt.Sprintf("%s_%d", tc.Name(), opts.Clock.Now().Unix()),
	}, nil
}

// TestID returns the harness identifier shared by all of its runs.
func (h *Harness) TestID() string {
	return h.testID
}

// Run schedules exactly n*k tasks over n workers, invokes the test case
// once per task with the given call, and returns the finalized result.
// Task failures degrade to failed samples and never abort the run; the
// run always completes all n*k tasks. The context is forwarded to the
// test case untouched; the harness imposes no deadline of its own.
func (h *Harness) Run(ctx context.Context, call core.Call) *core.Result {
	total := h.n * h.k
	start := h.clock.Now()
	runID := ulid.Make().String()

	coll := collector.NewCollector(total)
	h.prog.Start(coll, total)

	tasks := make(chan int, total)
	for i := 0; i < total; i++ {
		tasks <- i
	}
	close(tasks)

	var wg sync.WaitGroup
	wg.Add(h.n)
	for w := 0; w < h.n; w++ {
		go func() {
			defer wg.Done()
			for index := range tasks {
				h.runTask(ctx, index, call, coll)
			}
		}()
	}
	wg.Wait()
	coll.Close()
	h.prog.Stop()

	res := &core.Result{
		TestID:    h.testID,
		RunID:     runID,
		N:         h.n,
		K:         h.k,
		Total:     total,
		Jitter:    h.jitter,
		Args:      call.Args,
		Kwargs:    call.Kwargs,
		Samples:   coll.Samples(),
		StartTime: start,
		EndTime:   h.clock.Now(),
	}

	h.mu.Lock()
	h.history = append(h.history, res)
	h.mu.Unlock()
	return res
}

// runTask sleeps the task's jitter delay, invokes the test case, and
// reports exactly one sample. A panicking test case is recovered into a
// failed sample.
func (h *Harness) runTask(ctx context.Context, index int, call core.Call, coll *collector.Collector) {
	delay := h.delays.Delay(h.jitter)
	if delay > 0 {
		time.Sleep(delay)
	}
	if h.limiter != nil {
		_ = h.limiter.Wait(ctx)
	}

	start := h.clock.Now()
	reported := false
	defer func() {
		if r := recover(); r != nil && !reported {
			coll.Report(core.Sample{
				Index:    index,
				Delay:    delay,
				Duration: h.clock.Since(start),
				Success:  false,
				Error:    fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	value, err := h.tc.Invoke(ctx, call)
	duration := h.clock.Since(start)

	sample := core.Sample{Index: index, Delay: delay, Duration: duration}
	if err != nil {
		sample.Error = err.Error()
		if sample.Error == "" {
			sample.Error = fmt.Sprintf("%T", err)
		}
	} else {
		sample.Success = true
		sample.Result = value
	}
	reported = true
	coll.Report(sample)
}

// Latest returns the most recent result, or false if the harness has not
// run yet.
func (h *Harness) Latest() (*core.Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.history) == 0 {
		return nil, false
	}
	return h.history[len(h.history)-1], true
}

// History returns all results in run order.
func (h *Harness) History() []*core.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*core.Result, len(h.history))
	copy(out, h.history)
	return out
}
