// Package api provides HTTP handlers for reflectd endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/creanalyst/reflectd/internal/flow"
	"github.com/creanalyst/reflectd/internal/genai"
	"github.com/creanalyst/reflectd/internal/models"
)

// signedURLHandler issues an ephemeral signed connection URL for one of the
// module's configured agents (GET /api/{slug}/coach/signed-url?agentId=X).
func (s *Server) signedURLHandler(module flow.Module) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("Server.signedURLHandler: processing request", "method", r.Method, "module", module.Slug)
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		agentID := strings.TrimSpace(r.URL.Query().Get("agentId"))
		if agentID == "" {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing agentId"))
			return
		}

		// Only agents resolved for this module may be connected to; an id
		// valid for a different module is still rejected here.
		allowed := false
		for _, id := range s.cfg.ResolveAgentIDs(module) {
			if id != "" && id == agentID {
				allowed = true
				break
			}
		}
		if !allowed {
			slog.Warn("Server.signedURLHandler: agent not in module allow-list", "module", module.Slug, "agentID", agentID)
			writeJSONResponse(w, http.StatusForbidden, models.Error("Agent not allowed for "+module.Slug))
			return
		}

		if s.eleven == nil || !s.eleven.Configured() {
			slog.Error("Server.signedURLHandler: ElevenLabs credential not configured", "module", module.Slug)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Missing ELEVENLABS_API_KEY"))
			return
		}

		signedURL, err := s.eleven.FetchSignedURL(r.Context(), agentID)
		if err != nil {
			slog.Error("Server.signedURLHandler: signed URL fetch failed", "module", module.Slug, "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Unable to fetch signed URL"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SignedURLResponse{SignedURL: signedURL})
	}
}

// sessionHandler persists a completed reflection transcript
// (POST /api/{slug}/session).
func (s *Server) sessionHandler(module flow.Module) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			defer r.Body.Close()
		}
		slog.Debug("Server.sessionHandler: processing request", "method", r.Method, "module", module.Slug)
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req models.SessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("Server.sessionHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.SessionResponse{Error: "Invalid JSON format"})
			return
		}
		if err := req.Validate(); err != nil {
			slog.Warn("Server.sessionHandler: validation failed", "module", module.Slug, "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.SessionResponse{Error: err.Error()})
			return
		}

		if s.st == nil {
			slog.Warn("Server.sessionHandler: no store configured", "module", module.Slug)
			writeJSONResponse(w, http.StatusBadRequest, models.SessionResponse{Error: "Transcript persistence is not configured"})
			return
		}

		id, err := s.st.AddSession(r.Context(), models.SessionRecord{
			AgentID:        module.Exercise,
			CandidateName:  strings.TrimSpace(req.CandidateName),
			CandidateEmail: strings.TrimSpace(req.CandidateEmail),
			Transcript:     req.Transcript,
		})
		if err != nil {
			slog.Error("Server.sessionHandler: failed to persist session", "module", module.Slug, "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.SessionResponse{Error: err.Error()})
			return
		}
		slog.Info("Server.sessionHandler: session persisted", "module", module.Slug, "id", id)
		writeJSONResponse(w, http.StatusOK, models.SessionResponse{OK: true, ID: id})
	}
}

// scoreHandler runs the rubric scoring pipeline over a transcript
// (POST /api/score).
func (s *Server) scoreHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.scoreHandler: processing request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.scoreHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.ErrorWithDetails("Invalid payload", []string{err.Error()}))
		return
	}
	if details := req.Validate(); len(details) > 0 {
		slog.Warn("Server.scoreHandler: validation failed", "details", details)
		writeJSONResponse(w, http.StatusBadRequest, models.ErrorWithDetails("Invalid payload", details))
		return
	}

	outcome, err := s.engine.ScoreTranscript(r.Context(), req)
	if err != nil {
		slog.Error("Server.scoreHandler: scoring failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to score transcript"))
		return
	}

	sessionID, saved := s.persistScore(r.Context(), req, outcome)

	writeJSONResponse(w, http.StatusOK, models.ScoreResponse{
		SessionID:     sessionID,
		Scores:        outcome.Scores,
		ModelUsed:     outcome.ModelUsed,
		UsedFallback:  outcome.UsedFallback,
		SupabaseSaved: saved,
	})
}

// persistScore writes the session and score rows best-effort: failures are
// logged and reported through the saved flag, never as a request failure.
func (s *Server) persistScore(ctx context.Context, req models.ScoreRequest, outcome genai.ScoreOutcome) (string, bool) {
	sessionID := req.SessionID
	if s.st == nil {
		slog.Debug("Server.persistScore: no store configured, skipping write")
		return sessionID, false
	}

	rec := models.SessionRecord{
		ID:             sessionID,
		AgentID:        req.AgentID,
		CandidateName:  req.CandidateName,
		CandidateEmail: req.CandidateEmail,
		Transcript:     req.Transcript,
	}
	if sessionID == "" {
		id, err := s.st.AddSession(ctx, rec)
		if err != nil {
			slog.Warn("Server.persistScore: session insert skipped or failed", "error", err)
			return sessionID, false
		}
		sessionID = id
	} else {
		if err := s.st.UpdateSession(ctx, rec); err != nil {
			slog.Warn("Server.persistScore: session update skipped or failed", "error", err)
			return sessionID, false
		}
	}

	if sessionID == "" {
		return sessionID, false
	}
	err := s.st.AddScore(ctx, models.ScoreRecord{
		SessionID:     sessionID,
		RubricVersion: genai.RubricVersion,
		Scores:        outcome.Analysis,
		ModelUsed:     outcome.ModelUsed,
		Reasoning:     outcome.RawText,
	})
	if err != nil {
		slog.Warn("Server.persistScore: score insert skipped or failed", "error", err)
		return sessionID, false
	}
	return sessionID, true
}

type coachRequest struct {
	QuestionText string `json:"questionText"`
	UserMessage  string `json:"userMessage"`
	AgentID      string `json:"agentId"`
}

// coachHandler returns a single-turn stateless coaching reply
// (POST /api/coach). No transcript is persisted.
func (s *Server) coachHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.coachHandler: processing request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req coachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid payload"))
		return
	}
	if req.QuestionText == "" || req.UserMessage == "" || req.AgentID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid payload"))
		return
	}

	if s.eleven == nil || !s.eleven.Configured() {
		slog.Error("Server.coachHandler: ElevenLabs credential not configured")
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Missing ELEVENLABS_API_KEY"))
		return
	}

	reply, err := s.eleven.CoachReply(r.Context(), req.QuestionText, req.UserMessage, req.AgentID)
	if err != nil {
		slog.Error("Server.coachHandler: coach reply failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("coach_failed"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.CoachResponse{Reply: reply})
}

// healthHandler provides a health check endpoint for monitoring and load balancing.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"modules":   len(s.modules),
	})
}
