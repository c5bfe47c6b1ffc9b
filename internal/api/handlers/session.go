package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

// SessionHandler exposes transcript inspection and session lifecycle
type SessionHandler struct {
	engine Pipeline
	logger *logger.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(engine Pipeline, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		engine: engine,
		logger: log.WithComponent("session"),
	}
}

// History handles GET /api/history/{sessionID}
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	turns, err := h.engine.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to load history")
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if turns == nil {
		turns = []models.Turn{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"history":    turns,
		"count":      len(turns),
	})
}

// Reset handles DELETE /api/reset/{sessionID}
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	if err := h.engine.Reset(r.Context(), sessionID); err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to reset session")
		respondError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":     "reset",
		"session_id": sessionID,
	})
}
