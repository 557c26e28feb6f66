// Package assistant provides a multi-step test case against a remote
// assistant API: create a thread, start a run, poll until the run
// reaches a terminal status.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"stampede/internal/core"
	"stampede/internal/retry"
)

// Terminal run statuses. "completed" is the only successful one.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Outcome is the opaque payload stored in a successful sample.
type Outcome struct {
	ThreadID string `json:"thread_id"`
	RunID    string `json:"run_id"`
	Status   string `json:"status"`
	Polls    int    `json:"polls"`
}

// Case drives one thread/run cycle per invocation. Poll governs how
// often and how long the run status is polled; its zero value polls up
// to 30 times starting at 250ms.
type Case struct {
	BaseURL string
	APIKey  string
	Prompt  string
	Client  *http.Client
	Poll    retry.Policy
}

func (c *Case) Name() string { return "assistant_run" }

func (c *Case) Invoke(ctx context.Context, call core.Call) (any, error) {
	prompt := c.Prompt
	if v, ok := call.Kwargs["prompt"].(string); ok && v != "" {
		prompt = v
	}

	threadID, err := c.createThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}

	runID, status, err := c.startRun(ctx, threadID, prompt)
	if err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}

	outcome := Outcome{ThreadID: threadID, RunID: runID, Status: status}
	if isTerminal(status) {
		return c.finish(outcome)
	}

	policy := c.Poll
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = 30
		policy.InitialDelay = 250 * time.Millisecond
		policy.MaxDelay = 2 * time.Second
		policy.Multiplier = 1.5
	}

	err = policy.Do(ctx, func() error {
		status, err := c.runStatus(ctx, threadID, runID)
		if err != nil {
			return err
		}
		outcome.Polls++
		outcome.Status = status
		if !isTerminal(status) {
			return fmt.Errorf("run %s still %s", runID, status)
		}
		if status != StatusCompleted {
			// A terminal failure will not change on further polls.
			return retry.Terminal(fmt.Errorf("run %s ended %s", runID, status))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.finish(outcome)
}

func (c *Case) finish(o Outcome) (any, error) {
	if o.Status != StatusCompleted {
		return nil, fmt.Errorf("run %s ended %s", o.RunID, o.Status)
	}
	return o, nil
}

func isTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

func (c *Case) createThread(ctx context.Context) (string, error) {
	body, err := c.post(ctx, "/v1/threads", nil)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(body, "id")
	if !id.Exists() {
		return "", fmt.Errorf("response missing thread id")
	}
	return id.String(), nil
}

func (c *Case) startRun(ctx context.Context, threadID, prompt string) (string, string, error) {
	payload := map[string]string{"prompt": prompt}
	body, err := c.post(ctx, fmt.Sprintf("/v1/threads/%s/runs", threadID), payload)
	if err != nil {
		return "", "", err
	}
	id := gjson.GetBytes(body, "id")
	if !id.Exists() {
		return "", "", fmt.Errorf("response missing run id")
	}
	return id.String(), gjson.GetBytes(body, "status").String(), nil
}

func (c *Case) runStatus(ctx context.Context, threadID, runID string) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf("/v1/threads/%s/runs/%s", threadID, runID))
	if err != nil {
		return "", err
	}
	status := gjson.GetBytes(body, "status")
	if !status.Exists() {
		return "", fmt.Errorf("response missing run status")
	}
	return status.String(), nil
}

func (c *Case) post(ctx context.Context, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req)
}

func (c *Case) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Case) url(path string) string {
	return strings.TrimSuffix(c.BaseURL, "/") + path
}

func (c *Case) do(req *http.Request) ([]byte, error) {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return body, nil
}
