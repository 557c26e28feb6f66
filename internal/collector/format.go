package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"stampede/internal/core"
)

// FormatResult writes a run's configuration, arguments, timestamps, and
// every sample in human-readable form.
func FormatResult(w io.Writer, r *core.Result) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Run %s (%s)\n", r.TestID, r.RunID)
	fmt.Fprintln(w, "==============================")
	fmt.Fprintf(w, "Workers (n):    %d\n", r.N)
	fmt.Fprintf(w, "Repetitions:    %d\n", r.K)
	fmt.Fprintf(w, "Total tasks:    %d\n", r.Total)
	fmt.Fprintf(w, "Jitter bound:   %s\n", FormatDuration(r.Jitter))
	if len(r.Args) > 0 {
		fmt.Fprintf(w, "Args:           %v\n", r.Args)
	}
	if len(r.Kwargs) > 0 {
		fmt.Fprintf(w, "Kwargs:         %v\n", r.Kwargs)
	}
	fmt.Fprintf(w, "Started:        %s\n", r.StartTime.Format(time.RFC3339))
	fmt.Fprintf(w, "Finished:       %s\n", r.EndTime.Format(time.RFC3339))
	fmt.Fprintf(w, "Elapsed:        %s\n", FormatDuration(r.Elapsed()))
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Samples:")
	for _, s := range r.Samples {
		if s.Success {
			fmt.Fprintf(w, "  #%-4d ok    delay=%-8s duration=%-8s result=%v\n",
				s.Index, FormatDuration(s.Delay), FormatDuration(s.Duration), s.Result)
		} else {
			fmt.Fprintf(w, "  #%-4d FAIL  delay=%-8s duration=%-8s error=%s\n",
				s.Index, FormatDuration(s.Delay), FormatDuration(s.Duration), s.Error)
		}
	}
}

// FormatSummary writes aggregate statistics in human-readable form.
func FormatSummary(w io.Writer, s *Summary) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Summary")
	fmt.Fprintln(w, "==============================")
	fmt.Fprintf(w, "Completions:    %d\n", s.Completions)
	fmt.Fprintf(w, "Failures:       %d\n", s.Failures)
	fmt.Fprintf(w, "Exceptions:     %d\n", s.Exceptions)
	fmt.Fprintf(w, "Avg duration:   %s\n", FormatDuration(s.AvgDuration))
	fmt.Fprintf(w, "Success rate:   %.1f%%\n", s.SuccessRate*100)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Latency:")
	fmt.Fprintf(w, "  Min:    %s\n", FormatDuration(s.Latency.Min))
	fmt.Fprintf(w, "  P50:    %s\n", FormatDuration(s.Latency.P50))
	fmt.Fprintf(w, "  P90:    %s\n", FormatDuration(s.Latency.P90))
	fmt.Fprintf(w, "  P95:    %s\n", FormatDuration(s.Latency.P95))
	fmt.Fprintf(w, "  P99:    %s\n", FormatDuration(s.Latency.P99))
	fmt.Fprintf(w, "  Max:    %s\n", FormatDuration(s.Latency.Max))
}

// FormatSummaryJSON writes aggregate statistics as indented JSON.
func FormatSummaryJSON(w io.Writer, s *Summary) {
	output := struct {
		Total       int     `json:"total"`
		Completions int     `json:"completions"`
		Failures    int     `json:"failures"`
		Exceptions  int     `json:"exceptions"`
		AvgDuration string  `json:"avg_duration"`
		SuccessRate float64 `json:"success_rate"`
		Latency     struct {
			Min string `json:"min"`
			P50 string `json:"p50"`
			P90 string `json:"p90"`
			P95 string `json:"p95"`
			P99 string `json:"p99"`
			Max string `json:"max"`
		} `json:"latency"`
	}{
		Total:       s.Total,
		Completions: s.Completions,
		Failures:    s.Failures,
		Exceptions:  s.Exceptions,
		AvgDuration: FormatDuration(s.AvgDuration),
		SuccessRate: s.SuccessRate,
	}
	output.Latency.Min = FormatDuration(s.Latency.Min)
	output.Latency.P50 = FormatDuration(s.Latency.P50)
	output.Latency.P90 = FormatDuration(s.Latency.P90)
	output.Latency.P95 = FormatDuration(s.Latency.P95)
	output.Latency.P99 = FormatDuration(s.Latency.P99)
	output.Latency.Max = FormatDuration(s.Latency.Max)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output) // stdout errors are unrecoverable
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}
