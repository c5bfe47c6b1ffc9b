package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"honeypot-lab/pkg/logger"
)

// ReportHandler serves consolidated session intelligence reports
type ReportHandler struct {
	engine Pipeline
	logger *logger.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(engine Pipeline, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		engine: engine,
		logger: log.WithComponent("report"),
	}
}

// Results handles GET /api/results/{sessionID}
func (h *ReportHandler) Results(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	report, err := h.engine.Report(r.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to build report")
		respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
