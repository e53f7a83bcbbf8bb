// Package testserver provides a local HTTP target for exercising a bot
// fleet: stable, failing, slow and flaky endpoints that map onto the
// executor's outcome classes.
package testserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Server is a configurable HTTP target server.
type Server struct {
	mux       *http.ServeMux
	requestID atomic.Int64
	flakyMu   sync.Mutex
	flaky     map[string]int
}

// NewServer creates a server with all endpoints configured.
func NewServer() *Server {
	s := &Server{
		mux:   http.NewServeMux(),
		flaky: make(map[string]int),
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
	s.mux.HandleFunc("/echo", s.handleEcho)
	s.mux.HandleFunc("/json", s.handleJSON)
	s.mux.HandleFunc("/flaky", s.handleFlaky)
	s.mux.HandleFunc("/protected", s.handleProtected)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// handleStatus returns the requested status code.
// Example: GET /status/503 returns 503.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/status/")
	code, err := strconv.Atoi(path)
	if err != nil || code < 100 || code > 599 {
		http.Error(w, "invalid status code", http.StatusBadRequest)
		return
	}
	w.WriteHeader(code)
	fmt.Fprintf(w, "%d %s", code, http.StatusText(code))
}

// handleDelay waits before responding, for driving executor timeouts.
// Example: GET /delay/100 waits 100ms.
func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/delay/")
	ms, err := strconv.Atoi(path)
	if err != nil || ms < 0 {
		http.Error(w, "invalid delay", http.StatusBadRequest)
		return
	}

	time.Sleep(time.Duration(ms) * time.Millisecond)
	fmt.Fprintf(w, "delayed %dms", ms)
}

// handleEcho echoes the request body back with the same content type.
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(body)
}

// handleJSON returns a JSON document with extractable fields.
func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	id := s.requestID.Add(1)

	response := map[string]interface{}{
		"id":        id,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"method":    r.Method,
		"path":      r.URL.Path,
		"message":   "Hello from test server",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleFlaky fails with 503 the first N requests for a key, then succeeds,
// for driving the retry path end to end.
// Example: GET /flaky?key=a&fails=2 fails twice, then returns 200.
func (s *Server) handleFlaky(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	fails, err := strconv.Atoi(r.URL.Query().Get("fails"))
	if err != nil || fails < 0 {
		fails = 1
	}

	s.flakyMu.Lock()
	seen := s.flaky[key]
	s.flaky[key] = seen + 1
	s.flakyMu.Unlock()

	if seen < fails {
		http.Error(w, "flaky failure", http.StatusServiceUnavailable)
		return
	}
	fmt.Fprintf(w, "succeeded after %d failures", fails)
}

// handleProtected requires an Authorization header; without one it returns
// 401, which the executor classifies as terminal.
func (s *Server) handleProtected(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"granted":true}`)
}
