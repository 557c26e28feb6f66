package collector

import (
	"errors"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"stampede/internal/core"
)

// ErrPartialResult is returned when a summary is requested for a result
// whose sample set is not fully populated.
var ErrPartialResult = errors.New("result is not finalized")

// Summary contains aggregate statistics derived from a finalized result.
type Summary struct {
	Total       int             `json:"total"`
	Completions int             `json:"completions"`
	Failures    int             `json:"failures"`
	Exceptions  int             `json:"exceptions"`
	AvgDuration time.Duration   `json:"avg_duration"`
	SuccessRate float64         `json:"success_rate"`
	Latency     DurationMetrics `json:"latency"`
}

// DurationMetrics contains the latency distribution of a run.
// Min, Max, and Avg are exact; percentiles come from an HDR histogram
// with three significant figures.
type DurationMetrics struct {
	Min time.Duration `json:"min"`
	Max time.Duration `json:"max"`
	P50 time.Duration `json:"p50"`
	P90 time.Duration `json:"p90"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
}

// Summarize computes aggregate statistics from a finalized result.
// It fails on a result still accumulating samples: a partial sample set
// would understate the success rate against the frozen total.
func Summarize(r *core.Result) (*Summary, error) {
	if r == nil || r.Total < 1 || len(r.Samples) != r.Total {
		return nil, ErrPartialResult
	}

	s := &Summary{Total: r.Total}

	// Track latencies from 1µs up to 60s.
	hist := hdrhistogram.New(1, 60_000_000, 3)
	var sum time.Duration
	var min, max time.Duration

	for i, sample := range r.Samples {
		if sample.Success {
			s.Completions++
		} else {
			s.Failures++
		}
		if sample.Error != "" {
			s.Exceptions++
		}

		d := sample.Duration
		sum += d
		if i == 0 || d < min {
			min = d
		}
		if d > max {
			max = d
		}

		us := d.Microseconds()
		if us < hist.LowestTrackableValue() {
			us = hist.LowestTrackableValue()
		}
		if us > hist.HighestTrackableValue() {
			us = hist.HighestTrackableValue()
		}
		_ = hist.RecordValue(us)
	}

	s.AvgDuration = sum / time.Duration(r.Total)
	s.SuccessRate = float64(s.Completions) / float64(r.Total)
	s.Latency = DurationMetrics{
		Min: min,
		Max: max,
		P50: time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond,
		P90: time.Duration(hist.ValueAtQuantile(90)) * time.Microsecond,
		P95: time.Duration(hist.ValueAtQuantile(95)) * time.Microsecond,
		P99: time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond,
	}
	return s, nil
}
