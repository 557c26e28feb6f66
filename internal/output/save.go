// Package output persists finalized results to disk.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"stampede/internal/core"
)

const (
	indexFile = "index.json"
	lockFile  = "index.lock"

	// timeLayout keeps filenames free of path-hostile characters.
	timeLayout = "20060102T150405Z"
)

// IndexEntry is one line of the shared results-directory index.
type IndexEntry struct {
	TestID      string    `json:"test_id"`
	RunID       string    `json:"run_id"`
	StartTime   time.Time `json:"start_time"`
	File        string    `json:"file"`
	Total       int       `json:"total"`
	Completions int       `json:"completions"`
}

// Filename returns the result file name for a run.
func Filename(r *core.Result) string {
	return fmt.Sprintf("%s-%s_results.json", r.TestID, r.StartTime.UTC().Format(timeLayout))
}

// Save writes one JSON file for the run into dir and records it in the
// directory index. The directory is created if missing. I/O errors
// surface to the caller. Returns the path of the written file.
func Save(dir string, r *core.Result) (string, error) {
	if r == nil {
		return "", errors.New("nil result")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}

	path := filepath.Join(dir, Filename(r))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing result file: %w", err)
	}

	if err := appendIndex(dir, r); err != nil {
		return "", err
	}
	return path, nil
}

// appendIndex adds the run to the directory index under an advisory file
// lock, so concurrent harness processes can share a results directory.
func appendIndex(dir string, r *core.Result) error {
	lock := flock.New(filepath.Join(dir, lockFile))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking index: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	entries, err := ReadIndex(dir)
	if err != nil {
		return err
	}

	completions := 0
	for _, s := range r.Samples {
		if s.Success {
			completions++
		}
	}
	entries = append(entries, IndexEntry{
		TestID:      r.TestID,
		RunID:       r.RunID,
		StartTime:   r.StartTime,
		File:        Filename(r),
		Total:       r.Total,
		Completions: completions,
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, indexFile), data, 0o644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// ReadIndex returns the runs recorded in a results directory. A missing
// index reads as empty.
func ReadIndex(dir string) ([]IndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	return entries, nil
}

// Load reads a previously saved result file.
func Load(path string) (*core.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}

	var r core.Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &r, nil
}
