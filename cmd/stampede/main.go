// Command stampede runs a configured load test and reports the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"stampede/internal/assistant"
	"stampede/internal/collector"
	"stampede/internal/config"
	"stampede/internal/core"
	"stampede/internal/harness"
	"stampede/internal/httpcase"
	"stampede/internal/output"
	"stampede/internal/progress"
	"stampede/internal/ratelimit"
	"stampede/internal/retry"
)

const (
	ExitSuccess = 0
	ExitError   = 2
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (required)")
	workers := flag.Int("workers", 0, "override harness.workers from config")
	repeat := flag.Int("repeat", 0, "override harness.repeat from config")
	jitter := flag.Duration("jitter", -1, "override harness.jitter from config")
	format := flag.String("output", "text", "summary output format: text, json")
	samples := flag.Bool("samples", false, "print every sample, not just the summary")
	quiet := flag.Bool("quiet", false, "suppress progress output during the run")
	verbose := flag.Bool("verbose", false, "enable debug output (request/response logging)")
	saveDir := flag.String("save", "", "write the result JSON into this directory (overrides output.dir)")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "error: --config is required")
		flag.Usage()
		os.Exit(ExitError)
	}

	if *format != "text" && *format != "json" {
		fmt.Fprintf(os.Stderr, "error: --output must be 'text' or 'json', got %q\n", *format)
		os.Exit(ExitError)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	// CLI flags override config file values.
	if *workers > 0 {
		cfg.Harness.Workers = *workers
	}
	if *repeat > 0 {
		cfg.Harness.Repeat = *repeat
	}
	if *jitter >= 0 {
		cfg.Harness.Jitter = *jitter
	}
	if *saveDir != "" {
		cfg.Output.Dir = *saveDir
	}

	tc, call, err := buildTestCase(cfg, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	opts := harness.Options{
		N:      cfg.Harness.Workers,
		K:      cfg.Harness.Repeat,
		Jitter: cfg.Harness.Jitter,
	}
	if cfg.Harness.Rate > 0 {
		opts.Limiter = ratelimit.NewLimiter(cfg.Harness.Rate)
	}
	if !*quiet {
		opts.Progress = progress.New()
	}

	h, err := harness.New(tc, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	fmt.Fprintf(os.Stderr, "stampede starting: %s, %d workers x %d repetitions, jitter %v\n",
		h.TestID(), cfg.Harness.Workers, max(cfg.Harness.Repeat, 1), cfg.Harness.Jitter)

	res := h.Run(context.Background(), call)

	if *samples {
		collector.FormatResult(os.Stdout, res)
	}

	summary, err := collector.Summarize(res)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	if *format == "json" {
		collector.FormatSummaryJSON(os.Stdout, summary)
	} else {
		collector.FormatSummary(os.Stdout, summary)
	}

	if cfg.Output.Dir != "" {
		path, err := output.Save(cfg.Output.Dir, res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
		fmt.Fprintf(os.Stderr, "result written to %s\n", path)
	}

	os.Exit(ExitSuccess)
}

func buildTestCase(cfg *config.Config, verbose bool) (core.TestCase, core.Call, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	switch cfg.TestCase.Type {
	case "http":
		c := &httpcase.Case{
			URL:    cfg.TestCase.URL,
			Client: client,
		}
		if verbose {
			c.Debug = httpcase.NewDebugLogger(os.Stderr)
		}
		call := core.Call{Args: []any{cfg.TestCase.URL}}
		if cfg.TestCase.SessionCookie != "" {
			call.Kwargs = map[string]any{"session_cookie": cfg.TestCase.SessionCookie}
		}
		return c, call, nil

	case "assistant":
		c := &assistant.Case{
			BaseURL: cfg.TestCase.BaseURL,
			APIKey:  cfg.TestCase.APIKey,
			Prompt:  cfg.TestCase.Prompt,
			Client:  client,
		}
		if cfg.TestCase.MaxPolls > 0 {
			c.Poll = retry.Policy{
				MaxAttempts:  uint64(cfg.TestCase.MaxPolls),
				InitialDelay: cfg.TestCase.PollInterval,
				MaxDelay:     2 * time.Second,
				Multiplier:   1.5,
			}
		}
		call := core.Call{}
		if cfg.TestCase.Prompt != "" {
			call.Kwargs = map[string]any{"prompt": cfg.TestCase.Prompt}
		}
		return c, call, nil
	}
	return nil, core.Call{}, fmt.Errorf("unknown testcase type %q", cfg.TestCase.Type)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
