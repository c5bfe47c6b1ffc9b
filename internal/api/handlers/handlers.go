package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/internal/infrastructure/cache"
	"honeypot-lab/internal/infrastructure/database"
	"honeypot-lab/pkg/logger"
)

// Pipeline is the per-turn processing surface the HTTP layer drives.
type Pipeline interface {
	ProcessMessage(ctx context.Context, sessionID, message string) (*models.TurnResult, error)
	Report(ctx context.Context, sessionID string) (*models.SessionReport, error)
	History(ctx context.Context, sessionID string) ([]models.Turn, error)
	Reset(ctx context.Context, sessionID string) error
}

// Handlers holds all API handlers
type Handlers struct {
	Health   *HealthHandler
	Chat     *ChatHandler
	Honeypot *HoneypotHandler
	Report   *ReportHandler
	Session  *SessionHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Engine Pipeline
	Cache  *cache.RedisCache
	DB     *database.PostgresDB
	Logger *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Cache, deps.DB, deps.Logger),
		Chat:     NewChatHandler(deps.Engine, deps.Logger),
		Honeypot: NewHoneypotHandler(deps.Engine, deps.Logger),
		Report:   NewReportHandler(deps.Engine, deps.Logger),
		Session:  NewSessionHandler(deps.Engine, deps.Logger),
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
