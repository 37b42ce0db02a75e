// Package healthcheck provides a minimal HTTP liveness and readiness
// server for container orchestration.
package healthcheck

import (
	"context"
	"net/http"
	"time"
)

// Server is a minimal HTTP server exposing /health (liveness) and
// /ready (readiness).
type Server struct {
	server *http.Server
	ready  func() bool
}

// New creates a health check server. The ready callback reports
// whether the application is fully up; nil means always ready.
func New(addr string, opts ...Option) *Server {
	s := &Server{ready: func() bool { return true }}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()

	ok := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
	mux.HandleFunc("/", ok)
	mux.HandleFunc("/health", ok)

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !s.ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("not ready"))
			return
		}
		ok(w, r)
	})

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       2 * time.Second,
		WriteTimeout:      2 * time.Second,
		IdleTimeout:       30 * time.Second,
		ReadHeaderTimeout: 1 * time.Second,
		MaxHeaderBytes:    1 << 10, // 1KB
	}
	return s
}

// Option configures a Server.
type Option func(*Server)

// WithReadiness sets the readiness callback behind /ready.
func WithReadiness(ready func() bool) Option {
	return func(s *Server) {
		if ready != nil {
			s.ready = ready
		}
	}
}

// Start starts the health check server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
