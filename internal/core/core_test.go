package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTestCaseFunc(t *testing.T) {
	tc := TestCaseFunc{
		CaseName: "echo",
		Fn: func(ctx context.Context, call Call) (any, error) {
			if len(call.Args) == 0 {
				return nil, errors.New("no args")
			}
			return call.Args[0], nil
		},
	}

	if tc.Name() != "echo" {
		t.Errorf("expected name %q, got %q", "echo", tc.Name())
	}

	v, err := tc.Invoke(context.Background(), Call{Args: []any{"hello"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "hello" {
		t.Errorf("expected %q, got %v", "hello", v)
	}

	if _, err := tc.Invoke(context.Background(), Call{}); err == nil {
		t.Error("expected error for empty call")
	}
}

func TestResult_Elapsed(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := &Result{StartTime: start, EndTime: start.Add(1500 * time.Millisecond)}
	if r.Elapsed() != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", r.Elapsed())
	}
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	t0 := clock.Now()
	clock.Advance(250 * time.Millisecond)
	if d := clock.Since(t0); d != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", d)
	}
}
