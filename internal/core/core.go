// Package core defines the fundamental types and contracts for stampede.
package core

import (
	"context"
	"time"
)

// Call carries the invocation arguments for a run. Every task in a run
// receives the same Call.
type Call struct {
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

// TestCase is the unit of work the harness invokes under load.
// Invoke either returns an opaque value (success) or an error (failure);
// the harness stores both without interpreting them. Implementations may
// block the calling worker for the full duration of the work.
type TestCase interface {
	Name() string
	Invoke(ctx context.Context, call Call) (any, error)
}

// TestCaseFunc adapts a bare function to the TestCase interface.
type TestCaseFunc struct {
	CaseName string
	Fn       func(ctx context.Context, call Call) (any, error)
}

func (f TestCaseFunc) Name() string { return f.CaseName }

func (f TestCaseFunc) Invoke(ctx context.Context, call Call) (any, error) {
	return f.Fn(ctx, call)
}

// Sample records the outcome of one TestCase invocation. Exactly one of
// Result (with Success true) or Error (with Success false) is set.
type Sample struct {
	Index    int           `json:"index"`
	Delay    time.Duration `json:"delay"`
	Duration time.Duration `json:"duration"`
	Success  bool          `json:"success"`
	Result   any           `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
}
