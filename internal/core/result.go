package core

import "time"

// Result is the full record of one harness run: the configuration used,
// every collected Sample, and the timestamps bracketing the run.
// A Result is only constructed once all Total samples have been collected
// and must not be modified afterward.
type Result struct {
	TestID string `json:"test_id"`
	RunID  string `json:"run_id"`

	N      int           `json:"n"`
	K      int           `json:"k"`
	Total  int           `json:"total"`
	Jitter time.Duration `json:"jitter"`

	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`

	Samples []Sample `json:"samples"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Elapsed returns the wall-clock duration of the whole run.
func (r *Result) Elapsed() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
