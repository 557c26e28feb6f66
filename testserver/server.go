// Package testserver provides a configurable HTTP target for harness
// tests and local experiments. Besides generic latency/failure
// endpoints it models an assistant API whose runs complete after a
// configurable number of status polls.
package testserver

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Server is a configurable HTTP test target.
type Server struct {
	mux *http.ServeMux

	// PollsUntilDone is how many status polls a run stays pending
	// before reporting completed. Zero completes immediately.
	PollsUntilDone int
	// FailRuns makes every run end with status "failed" instead of
	// "completed".
	FailRuns bool

	mu   sync.Mutex
	runs map[string]*runState
}

type runState struct {
	threadID string
	polls    int
}

// NewServer creates a test server with all endpoints registered.
func NewServer() *Server {
	s := &Server{
		mux:  http.NewServeMux(),
		runs: make(map[string]*runState),
	}
	s.registerHandlers()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerHandlers() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/status/", s.handleStatus)
	s.mux.HandleFunc("/delay/", s.handleDelay)
	s.mux.HandleFunc("/fail-rate", s.handleFailRate)
	s.mux.HandleFunc("/private", s.handlePrivate)
	s.mux.HandleFunc("/v1/threads", s.handleThreads)
	s.mux.HandleFunc("/v1/threads/", s.handleThreadSubpaths)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// handleStatus returns the requested status code: GET /status/404.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/status/"))
	if err != nil || code < 100 || code > 599 {
		http.Error(w, "invalid status code", http.StatusBadRequest)
		return
	}
	w.WriteHeader(code)
	fmt.Fprintf(w, "%d %s", code, http.StatusText(code))
}

// handleDelay waits the given number of milliseconds: GET /delay/100.
func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	ms, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/delay/"))
	if err != nil || ms < 0 {
		http.Error(w, "invalid delay", http.StatusBadRequest)
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	fmt.Fprintf(w, "delayed %dms", ms)
}

// handleFailRate fails a percentage of requests: GET /fail-rate?rate=10.
func (s *Server) handleFailRate(w http.ResponseWriter, r *http.Request) {
	rate, err := strconv.Atoi(r.URL.Query().Get("rate"))
	if err != nil || rate < 0 || rate > 100 {
		rate = 0
	}
	if rand.Intn(100) < rate {
		http.Error(w, "simulated failure", http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, "success")
}

// handlePrivate requires a session cookie, mirroring an authenticated
// page behind single sign-on.
func (s *Server) handlePrivate(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("session")
	if err != nil || cookie.Value == "" {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"session":%q}`, cookie.Value)
}

// handleThreads mints a thread: POST /v1/threads.
func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	threadID := "thread_" + uuid.NewString()
	writeJSON(w, http.StatusOK, map[string]any{"id": threadID})
}

// handleThreadSubpaths covers run creation and run status:
//
//	POST /v1/threads/{tid}/runs
//	GET  /v1/threads/{tid}/runs/{rid}
func (s *Server) handleThreadSubpaths(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/threads/"), "/")

	switch {
	case len(parts) == 2 && parts[1] == "runs" && r.Method == http.MethodPost:
		s.createRun(w, parts[0])
	case len(parts) == 3 && parts[1] == "runs" && r.Method == http.MethodGet:
		s.runStatus(w, parts[0], parts[2])
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) createRun(w http.ResponseWriter, threadID string) {
	runID := "run_" + uuid.NewString()

	s.mu.Lock()
	s.runs[runID] = &runState{threadID: threadID}
	s.mu.Unlock()

	status := "queued"
	if s.PollsUntilDone == 0 {
		status = s.finalStatus()
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": runID, "status": status})
}

func (s *Server) runStatus(w http.ResponseWriter, threadID, runID string) {
	s.mu.Lock()
	run, ok := s.runs[runID]
	if ok {
		run.polls++
	}
	s.mu.Unlock()

	if !ok || run.threadID != threadID {
		http.Error(w, "unknown run", http.StatusNotFound)
		return
	}

	status := "in_progress"
	if run.polls >= s.PollsUntilDone {
		status = s.finalStatus()
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": runID, "status": status})
}

func (s *Server) finalStatus() string {
	if s.FailRuns {
		return "failed"
	}
	return "completed"
}

// Polls returns how often a run's status has been requested.
func (s *Server) Polls(runID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[runID]; ok {
		return run.polls
	}
	return 0
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
