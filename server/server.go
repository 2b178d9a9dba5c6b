// Package server exposes the HTTP API: generation proxying, session CRUD,
// board file export/import, and the optional password gate.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vibrantwave/wv/config"
	"github.com/vibrantwave/wv/genflow"
	"github.com/vibrantwave/wv/session"
)

// Body limits per route class. Generation and import carry full-resolution
// images as base64, so they get room; everything else stays small.
const (
	maxSmallBody  = 32 * 1024
	maxBoardBody  = 64 << 20
	maxImportBody = 256 << 20
)

// SessionRuntime carries the presence and autosave collaborators the session
// endpoints drive: the broadcast bus, the probe/heartbeat timing, and the
// debounced saver.
type SessionRuntime struct {
	Bus               session.Bus
	ProbeWindow       time.Duration
	HeartbeatInterval time.Duration
	Saver             *session.AutoSaver
}

// Server wires the HTTP handlers to their backing services.
type Server struct {
	log      *slog.Logger
	orch     *genflow.Orchestrator
	sessions *session.Store
	auth     config.AuthConfig
	rt       SessionRuntime

	mu sync.Mutex
	hb *session.Heartbeat
}

// New creates a Server.
func New(log *slog.Logger, orch *genflow.Orchestrator, sessions *session.Store, auth config.AuthConfig, rt SessionRuntime) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{log: log, orch: orch, sessions: sessions, auth: auth, rt: rt}
}

// Close stops the heartbeat of the currently resolved session, announcing it
// as closed on the bus.
func (s *Server) Close() {
	s.mu.Lock()
	hb := s.hb
	s.hb = nil
	s.mu.Unlock()
	if hb != nil {
		hb.Stop()
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/auth/config", s.handleAuthConfig)
	r.Post("/api/login", s.handleLogin)

	r.Post("/api/generate", s.handleGenerate)

	r.Get("/api/sessions", s.handleListSessions)
	r.Post("/api/sessions/resolve", s.handleResolveSession)
	r.Get("/api/sessions/{id}", s.handleGetSession)
	r.Put("/api/sessions/{id}", s.handlePutSession)
	r.Put("/api/sessions/{id}/autosave", s.handleAutosaveSession)
	r.Delete("/api/sessions/{id}", s.handleDeleteSession)
	r.Get("/api/sessions/{id}/board.wv", s.handleExport)
	r.Post("/api/import", s.handleImport)

	r.Get("/api/settings", s.handleGetSettings)
	r.Put("/api/settings", s.handlePutSettings)

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
