package testserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestStatusEndpoint(t *testing.T) {
	ts := httptest.NewServer(NewServer().Handler())
	defer ts.Close()

	for _, code := range []int{200, 201, 404, 500, 503} {
		resp, err := http.Get(ts.URL + "/status/" + strconv.Itoa(code))
		if err != nil {
			t.Fatalf("GET /status/%d failed: %v", code, err)
		}
		resp.Body.Close()
		if resp.StatusCode != code {
			t.Errorf("GET /status/%d returned %d", code, resp.StatusCode)
		}
	}
}

func TestDelayEndpoint(t *testing.T) {
	ts := httptest.NewServer(NewServer().Handler())
	defer ts.Close()

	start := time.Now()
	resp, err := http.Get(ts.URL + "/delay/50")
	if err != nil {
		t.Fatalf("GET /delay/50 failed: %v", err)
	}
	resp.Body.Close()

	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("response too fast: %v", elapsed)
	}
}

func TestPrivateRequiresSession(t *testing.T) {
	ts := httptest.NewServer(NewServer().Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/private")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without cookie, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/private", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "abc"})
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with cookie, got %d", resp.StatusCode)
	}
}

func TestThreadRunLifecycle(t *testing.T) {
	srv := NewServer()
	srv.PollsUntilDone = 2
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/threads", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	thread := decode(t, resp)
	threadID, _ := thread["id"].(string)
	if threadID == "" {
		t.Fatal("missing thread id")
	}

	resp, err = http.Post(ts.URL+"/v1/threads/"+threadID+"/runs", "application/json", bytes.NewBufferString(`{"prompt":"hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	run := decode(t, resp)
	runID, _ := run["id"].(string)
	if runID == "" {
		t.Fatal("missing run id")
	}
	if run["status"] != "queued" {
		t.Errorf("expected queued, got %v", run["status"])
	}

	statuses := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err = http.Get(ts.URL + "/v1/threads/" + threadID + "/runs/" + runID)
		if err != nil {
			t.Fatal(err)
		}
		statuses = append(statuses, decode(t, resp)["status"].(string))
	}

	if statuses[0] != "in_progress" {
		t.Errorf("first poll should be in_progress, got %q", statuses[0])
	}
	if statuses[2] != "completed" {
		t.Errorf("third poll should be completed, got %q", statuses[2])
	}
	if srv.Polls(runID) != 3 {
		t.Errorf("expected 3 polls recorded, got %d", srv.Polls(runID))
	}
}

func TestFailRuns(t *testing.T) {
	srv := NewServer()
	srv.FailRuns = true
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/threads", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	threadID := decode(t, resp)["id"].(string)

	resp, err = http.Post(ts.URL+"/v1/threads/"+threadID+"/runs", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	run := decode(t, resp)
	if run["status"] != "failed" {
		t.Errorf("expected failed, got %v", run["status"])
	}
}

func TestUnknownRun(t *testing.T) {
	ts := httptest.NewServer(NewServer().Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/threads/thread_x/runs/run_y")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("invalid JSON %q: %v", data, err)
	}
	return m
}
