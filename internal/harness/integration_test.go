package harness_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"stampede/internal/collector"
	"stampede/internal/core"
	"stampede/internal/harness"
	"stampede/internal/httpcase"
	"stampede/internal/output"
	"stampede/internal/ratelimit"
	"stampede/testserver"
)

// End-to-end: drive the HTTP case against the test server, summarize,
// and persist the result.
func TestHTTPLoadTestEndToEnd(t *testing.T) {
	ts := httptest.NewServer(testserver.NewServer().Handler())
	defer ts.Close()

	tc := &httpcase.Case{
		URL:    ts.URL + "/health",
		Client: &http.Client{Timeout: 5 * time.Second},
	}

	h, err := harness.New(tc, harness.Options{N: 4, K: 3, Jitter: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := h.Run(context.Background(), core.Call{})
	if len(res.Samples) != 12 {
		t.Fatalf("expected 12 samples, got %d", len(res.Samples))
	}

	summary, err := collector.Summarize(res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.SuccessRate != 1.0 {
		t.Errorf("expected success rate 1.0 against /health, got %v", summary.SuccessRate)
	}
	if summary.Completions != 12 || summary.Failures != 0 {
		t.Errorf("unexpected counts: %+v", summary)
	}

	dir := t.TempDir()
	path, err := output.Save(dir, res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := output.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Total != res.Total || loaded.TestID != res.TestID {
		t.Errorf("persisted result differs: %+v", loaded)
	}

	entries, err := output.ReadIndex(dir)
	if err != nil {
		t.Fatalf("index read failed: %v", err)
	}
	if len(entries) != 1 || entries[0].File != filepath.Base(path) {
		t.Errorf("index entry wrong: %v", entries)
	}
}

// Mixed outcomes: hit an endpoint that rejects every request, verify a
// fully failed run is still a complete, valid result.
func TestHTTPLoadTestAllFailures(t *testing.T) {
	ts := httptest.NewServer(testserver.NewServer().Handler())
	defer ts.Close()

	tc := &httpcase.Case{URL: ts.URL + "/status/500"}
	h, err := harness.New(tc, harness.Options{N: 2, K: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := h.Run(context.Background(), core.Call{})
	summary, err := collector.Summarize(res)
	if err != nil {
		t.Fatalf("a failed run must still summarize: %v", err)
	}
	if summary.SuccessRate != 0 {
		t.Errorf("expected success rate 0, got %v", summary.SuccessRate)
	}
	if summary.Failures != 4 || summary.Exceptions != 4 {
		t.Errorf("expected 4 failures/exceptions, got %+v", summary)
	}
}

// Rate-limited run: starts are throttled but the sample count contract
// is unchanged.
func TestHTTPLoadTestWithRateLimit(t *testing.T) {
	ts := httptest.NewServer(testserver.NewServer().Handler())
	defer ts.Close()

	tc := &httpcase.Case{URL: ts.URL + "/health"}
	h, err := harness.New(tc, harness.Options{
		N:       4,
		K:       2,
		Limiter: ratelimit.NewLimiter(1000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := h.Run(context.Background(), core.Call{})
	if len(res.Samples) != 8 {
		t.Errorf("expected 8 samples, got %d", len(res.Samples))
	}
}
