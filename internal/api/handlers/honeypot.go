package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

// HoneypotHandler handles the platform-facing webhook endpoint
type HoneypotHandler struct {
	engine Pipeline
	logger *logger.Logger
}

// NewHoneypotHandler creates a new HoneypotHandler
func NewHoneypotHandler(engine Pipeline, log *logger.Logger) *HoneypotHandler {
	return &HoneypotHandler{
		engine: engine,
		logger: log.WithComponent("honeypot"),
	}
}

// HoneypotMessage is the inbound message envelope used by the platform webhook
type HoneypotMessage struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// HoneypotRequest represents the platform webhook payload. The stored
// transcript is authoritative, so ConversationHistory is accepted but not
// replayed into the session.
type HoneypotRequest struct {
	SessionID           string            `json:"sessionId"`
	Message             HoneypotMessage   `json:"message"`
	ConversationHistory []HoneypotMessage `json:"conversationHistory"`
	Metadata            map[string]any    `json:"metadata"`
}

// HoneypotResponse is the minimal envelope the platform expects back
type HoneypotResponse struct {
	Status    string           `json:"status"`
	Reply     string           `json:"reply"`
	RiskLevel models.RiskLevel `json:"riskLevel"`
}

// Process handles POST /honeypot
func (h *HoneypotHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req HoneypotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Message.Text) == "" {
		respondError(w, http.StatusBadRequest, "message.text is required")
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := h.engine.ProcessMessage(r.Context(), sessionID, req.Message.Text)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to process webhook message")
		errResult := systemErrorResult()
		respondJSON(w, http.StatusOK, HoneypotResponse{
			Status:    "error",
			Reply:     errResult.Response,
			RiskLevel: errResult.RiskLevel,
		})
		return
	}

	respondJSON(w, http.StatusOK, HoneypotResponse{
		Status:    "success",
		Reply:     result.Response,
		RiskLevel: result.RiskLevel,
	})
}
