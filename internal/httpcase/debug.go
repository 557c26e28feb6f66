package httpcase

import (
	"fmt"
	"io"
	"sync"
	"time"

	"stampede/internal/sanitize"
)

// DebugLogger writes verbose request/response lines. All logged values
// pass through the sanitizer. A nil DebugLogger discards everything.
type DebugLogger struct {
	out io.Writer
	mu  sync.Mutex
}

func NewDebugLogger(out io.Writer) *DebugLogger {
	return &DebugLogger{out: out}
}

func (d *DebugLogger) LogRequest(method, url string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, ">>> %s %s\n", method, sanitize.Value(url))
}

func (d *DebugLogger) LogResponse(status int, bytes int64, duration time.Duration) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "<<< %d (%d bytes, %v)\n", status, bytes, duration.Round(time.Millisecond))
}

func (d *DebugLogger) LogError(msg string, duration time.Duration) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "!!! %s (%v)\n", sanitize.Value(msg), duration.Round(time.Millisecond))
}
