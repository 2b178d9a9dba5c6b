package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vibrantwave/wv/board"
	"github.com/vibrantwave/wv/boardfile"
	"github.com/vibrantwave/wv/genflow"
	"github.com/vibrantwave/wv/session"
)

func (s *Server) handleAuthConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.auth.Enabled})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSmallBody)

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !s.auth.Enabled {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.auth.PasswordHash), []byte(req.Password)); err != nil {
		jsonErr(w, "invalid password", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBoardBody)

	var req struct {
		Prompt       string   `json:"prompt"`
		CanvasImage  string   `json:"canvasImage"`
		Attachments  []string `json:"attachments"`
		AspectRatio  string   `json:"aspectRatio"`
		VariantCount int      `json:"variantCount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.orch.Generate(r.Context(), genflow.Payload{
		Prompt:      req.Prompt,
		Canvas:      req.CanvasImage,
		Attachments: req.Attachments,
		AspectRatio: req.AspectRatio,
	}, req.VariantCount)
	if err != nil {
		s.log.Error("generation failed", "error", err)
		jsonErr(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	metas, err := s.sessions.All(r.Context())
	if err != nil {
		s.log.Error("list sessions", "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}
	if metas == nil {
		metas = []session.Meta{}
	}
	writeJSON(w, http.StatusOK, metas)
}

// handleResolveSession runs the startup resolution for a connecting editor:
// an explicit id is authoritative, otherwise the bus is probed before the
// most recent session is adopted. The resolved session becomes the one this
// instance heartbeats for.
func (s *Server) handleResolveSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSmallBody)

	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res := session.Resolve(r.Context(), s.rt.Bus, s.sessions, req.SessionID, s.rt.ProbeWindow, s.log)

	if s.rt.Bus != nil {
		s.mu.Lock()
		old := s.hb
		s.hb = session.StartHeartbeat(s.rt.Bus, res.SessionID, s.rt.HeartbeatInterval)
		s.mu.Unlock()
		if old != nil {
			old.Stop()
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": res.SessionID,
		"state":     res.State,
		"restored":  res.Restored,
	})
}

// handleAutosaveSession accepts the high-frequency document pushes made
// while the user is editing. The write is debounced through the AutoSaver;
// a burst of pushes collapses to one row update. Explicit saves go through
// PUT /api/sessions/{id} instead.
func (s *Server) handleAutosaveSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBoardBody)

	id := chi.URLParam(r, "id")
	var st board.State
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if s.rt.Saver == nil {
		if err := s.sessions.Save(r.Context(), id, st); err != nil {
			s.log.Error("save session", "session_id", id, "error", err)
			jsonErr(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	s.rt.Saver.Schedule(id, st)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": rec.SessionID,
		"state":     rec.State,
		"createdAt": rec.CreatedAt,
		"updatedAt": rec.UpdatedAt,
	})
}

func (s *Server) handlePutSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBoardBody)

	id := chi.URLParam(r, "id")
	var st board.State
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.sessions.Save(r.Context(), id, st); err != nil {
		s.log.Error("save session", "session_id", id, "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.log.Error("delete session", "session_id", id, "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := boardfile.Encode(&buf, rec.State); err != nil {
		s.log.Error("export board", "session_id", rec.SessionID, "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="board.wv"`)
	w.Write(buf.Bytes())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBody)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		jsonErr(w, "request body too large or unreadable", http.StatusBadRequest)
		return
	}
	st, err := boardfile.Decode(bytes.NewReader(raw), int64(len(raw)), s.log)
	if err != nil {
		if strings.Contains(err.Error(), "board.json") {
			jsonErr(w, "not a board file", http.StatusUnprocessableEntity)
			return
		}
		jsonErr(w, "invalid board file", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	as, err := s.sessions.LoadSettings(r.Context())
	if err != nil {
		s.log.Error("load settings", "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, as)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSmallBody)

	var as session.AppSettings
	if err := json.NewDecoder(r.Body).Decode(&as); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.sessions.SaveSettings(r.Context(), as); err != nil {
		s.log.Error("save settings", "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loadSession resolves the {id} route param to a stored session, writing the
// error response itself when it cannot.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.Record, bool) {
	id := chi.URLParam(r, "id")
	rec, err := s.sessions.Load(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		jsonErr(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.log.Error("load session", "session_id", id, "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return rec, true
}
