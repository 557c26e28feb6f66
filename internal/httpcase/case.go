// Package httpcase provides a test case that issues an HTTP GET against
// a target URL, optionally carrying a session cookie.
package httpcase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"stampede/internal/core"
)

// Response is the opaque payload stored in a successful sample.
type Response struct {
	Status int   `json:"status"`
	Bytes  int64 `json:"bytes"`
}

// Case performs a single GET per invocation. The target URL may be fixed
// at construction or passed as the first positional argument of the run;
// the session cookie likewise comes from the "session_cookie" keyword
// argument when present.
type Case struct {
	URL           string
	SessionCookie *http.Cookie
	Client        *http.Client
	Debug         *DebugLogger
}

func (c *Case) Name() string { return "http_get" }

func (c *Case) Invoke(ctx context.Context, call core.Call) (any, error) {
	url := c.URL
	if len(call.Args) > 0 {
		if s, ok := call.Args[0].(string); ok && s != "" {
			url = s
		}
	}
	if url == "" {
		return nil, fmt.Errorf("no target url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	cookie := c.SessionCookie
	if v, ok := call.Kwargs["session_cookie"].(string); ok && v != "" {
		cookie = &http.Cookie{Name: "session", Value: v}
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	c.Debug.LogRequest(http.MethodGet, url)
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.Debug.LogError(err.Error(), time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		c.Debug.LogError(err.Error(), time.Since(start))
		return nil, fmt.Errorf("reading body: %w", err)
	}

	duration := time.Since(start)
	c.Debug.LogResponse(resp.StatusCode, n, duration)

	if resp.StatusCode < 200 || resp.StatusCode > 399 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return Response{Status: resp.StatusCode, Bytes: n}, nil
}
