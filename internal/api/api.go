// Package api provides HTTP handlers and the main API server logic for ValueCompass.
//
// It exposes RESTful endpoints for creating interview sessions, exchanging
// messages with the conversation controller, and inspecting session state.
package api

import (
	"log/slog"
	"net/http"

	"github.com/valuecompass/valuecompass/internal/flow"
	"github.com/valuecompass/valuecompass/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// Server wires the session manager and store behind the HTTP surface.
type Server struct {
	addr    string
	manager *flow.SessionManager
	st      store.Store
}

// NewServer creates an API server around the given session manager and store.
func NewServer(manager *flow.SessionManager, st store.Store, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	slog.Debug("Creating API server", "addr", cfg.Addr)
	return &Server{addr: cfg.Addr, manager: manager, st: st}
}

// Handler builds the route table for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", s.createSessionHandler)
	mux.HandleFunc("GET /sessions", s.listSessionsHandler)
	mux.HandleFunc("GET /sessions/{id}", s.getSessionHandler)
	mux.HandleFunc("DELETE /sessions/{id}", s.deleteSessionHandler)
	mux.HandleFunc("POST /sessions/{id}/messages", s.postMessageHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	return mux
}

// Run starts the HTTP server and blocks until it exits.
func (s *Server) Run() error {
	slog.Info("ValueCompass API running", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}
