// Package api provides the HTTP server and handlers for reflectd.
//
// It exposes per-module signed-URL and session endpoints plus the global
// scoring and coach endpoints, integrating the flow, genai, elevenlabs, and
// store modules.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/creanalyst/reflectd/internal/config"
	"github.com/creanalyst/reflectd/internal/elevenlabs"
	"github.com/creanalyst/reflectd/internal/flow"
	"github.com/creanalyst/reflectd/internal/genai"
	"github.com/creanalyst/reflectd/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Server holds the wired dependencies for all HTTP handlers.
type Server struct {
	cfg     *config.Config
	engine  *genai.Engine
	eleven  *elevenlabs.Client
	st      store.Store
	modules []flow.Module
	mux     *http.ServeMux
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithStore sets the persistence backend; a nil store degrades persistence to
// best-effort skips instead of failing requests.
func WithStore(st store.Store) ServerOption {
	return func(s *Server) { s.st = st }
}

// WithModules overrides the module registry, used by tests.
func WithModules(modules []flow.Module) ServerOption {
	return func(s *Server) { s.modules = modules }
}

// NewServer wires a server from the resolved configuration, scoring engine,
// and platform client.
func NewServer(cfg *config.Config, engine *genai.Engine, eleven *elevenlabs.Client, opts ...ServerOption) *Server {
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		eleven:  eleven,
		modules: flow.Modules(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	for _, m := range s.modules {
		module := m
		s.mux.HandleFunc(module.SignedURLEndpoint, s.signedURLHandler(module))
		s.mux.HandleFunc(module.SessionEndpoint, s.sessionHandler(module))
	}
	s.mux.HandleFunc("/api/score", s.scoreHandler)
	s.mux.HandleFunc("/api/coach", s.coachHandler)
	s.mux.HandleFunc("/health", s.healthHandler)
}

// Handler returns the root HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run starts the HTTP server on the configured address and blocks.
func (s *Server) Run() error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("Server.Run: reflectd API listening", "addr", addr, "modules", len(s.modules))
	return srv.ListenAndServe()
}
