package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

// ChatHandler handles the decoy conversation endpoint
type ChatHandler struct {
	engine Pipeline
	logger *logger.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(engine Pipeline, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		engine: engine,
		logger: log.WithComponent("chat"),
	}
}

// ChatRequest represents the incoming chat message
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Process handles POST /api/chat
func (h *ChatHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := h.engine.ProcessMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("failed to process message")
		respondJSON(w, http.StatusOK, systemErrorResult())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// systemErrorResult is the degraded reply returned when the turn could not be
// processed at all. The decoy stays in character rather than exposing a 500.
func systemErrorResult() *models.TurnResult {
	return &models.TurnResult{
		Intent:            models.IntentError,
		RiskLevel:         models.RiskCritical,
		ConfidenceScore:   0.0,
		Response:          "Sorry, my phone is acting up. What did you say?",
		RecommendedAction: models.ActionIgnore,
		LogRequired:       true,
		ExtractedInfo:     models.EntityRecord{},
	}
}
