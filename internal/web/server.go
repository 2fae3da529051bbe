// Package web provides the HTTP status server and command API for the
// sunrise clock.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sweeney/sunrise-clock/internal/status"
)

// commandTimeout bounds how long a request waits for the control loop.
const commandTimeout = 2 * time.Second

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	commands   chan<- Command
}

// New creates a Server that reads state from the given tracker. Commands
// are sent on commands, and the API is disabled when it is nil. When
// metrics is not nil it is served on /metrics.
func New(addr string, tracker *status.Tracker, commands chan<- Command, metrics http.Handler) *Server {
	s := &Server{tracker: tracker, commands: commands}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("GET /index.html", s.handleIndex)
	mux.HandleFunc("GET /index.json", s.handleJSON)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	if commands != nil {
		mux.HandleFunc("POST /api/ack", s.handleAck)
		mux.HandleFunc("POST /api/dawn", s.handleDawn)
		mux.HandleFunc("POST /api/sunrise/{which}", s.handleSunrise)
		mux.HandleFunc("POST /api/led", s.handleSetLED)
		mux.HandleFunc("DELETE /api/led", s.handleClearLED)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the request router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// send hands cmd to the control loop and waits for the result.
func (s *Server) send(ctx context.Context, cmd Command) error {
	cmd.reply = make(chan error, 1)

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return errBusy
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return errBusy
	}
}
