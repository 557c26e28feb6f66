package assistant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stampede/internal/core"
	"stampede/internal/retry"
	"stampede/testserver"
)

func fastPoll() retry.Policy {
	return retry.Policy{
		MaxAttempts:  10,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   1.5,
	}
}

func TestCase_CompletesAfterPolling(t *testing.T) {
	srv := testserver.NewServer()
	srv.PollsUntilDone = 3
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := &Case{BaseURL: ts.URL, Prompt: "hello", Poll: fastPoll()}
	v, err := c.Invoke(context.Background(), core.Call{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome, ok := v.(Outcome)
	if !ok {
		t.Fatalf("expected Outcome payload, got %T", v)
	}
	if outcome.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", outcome.Status)
	}
	if outcome.ThreadID == "" || outcome.RunID == "" {
		t.Errorf("missing identifiers: %+v", outcome)
	}
	if outcome.Polls < 3 {
		t.Errorf("expected at least 3 polls, got %d", outcome.Polls)
	}
}

func TestCase_ImmediateCompletion(t *testing.T) {
	srv := testserver.NewServer() // PollsUntilDone zero: done at creation
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := &Case{BaseURL: ts.URL, Poll: fastPoll()}
	v, err := c.Invoke(context.Background(), core.Call{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(Outcome).Polls != 0 {
		t.Errorf("expected no polls, got %d", v.(Outcome).Polls)
	}
}

func TestCase_FailedRun(t *testing.T) {
	srv := testserver.NewServer()
	srv.PollsUntilDone = 1
	srv.FailRuns = true
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := &Case{BaseURL: ts.URL, Poll: fastPoll()}
	_, err := c.Invoke(context.Background(), core.Call{})
	if err == nil {
		t.Fatal("expected error for failed run")
	}
	if !strings.Contains(err.Error(), "failed") {
		t.Errorf("error should carry the terminal status: %v", err)
	}
}

func TestCase_PromptFromKwargs(t *testing.T) {
	var gotBody string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"thread_1"}`))
	})
	mux.HandleFunc("/v1/threads/thread_1/runs", func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.Write([]byte(`{"id":"run_1","status":"completed"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := &Case{BaseURL: ts.URL, Prompt: "default", Poll: fastPoll()}
	_, err := c.Invoke(context.Background(), core.Call{
		Kwargs: map[string]any{"prompt": "override"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotBody, "override") {
		t.Errorf("kwargs prompt not sent, body: %q", gotBody)
	}
}

func TestCase_SendsAuthHeader(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"id":"thread_1"}`))
	})
	mux.HandleFunc("/v1/threads/thread_1/runs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"run_1","status":"completed"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := &Case{BaseURL: ts.URL, APIKey: "secret", Poll: fastPoll()}
	if _, err := c.Invoke(context.Background(), core.Call{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestCase_MalformedResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":true}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := &Case{BaseURL: ts.URL, Poll: fastPoll()}
	_, err := c.Invoke(context.Background(), core.Call{})
	if err == nil || !strings.Contains(err.Error(), "thread id") {
		t.Errorf("expected missing thread id error, got %v", err)
	}
}

func TestCase_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/threads", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := &Case{BaseURL: ts.URL, Poll: fastPoll()}
	_, err := c.Invoke(context.Background(), core.Call{})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("expected status error, got %v", err)
	}
}
