package streaming

import (
	"time"

	"github.com/google/uuid"

	"honeypot-lab/internal/domain/models"
)

// EventType represents the type of intelligence event
type EventType string

const (
	EventTypeIntelCaptured EventType = "intel_captured"
)

// IntelEvent is published whenever a processed turn surfaces intelligence
// not seen earlier in the session.
type IntelEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	SessionID string              `json:"session_id"`
	RiskLevel models.RiskLevel    `json:"risk_level"`
	Entities  models.EntityRecord `json:"entities"`
}

// NewIntelEvent builds an event for newly captured entities
func NewIntelEvent(sessionID string, risk models.RiskLevel, fresh models.EntityRecord) *IntelEvent {
	return &IntelEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeIntelCaptured,
		Timestamp: time.Now(),
		SessionID: sessionID,
		RiskLevel: risk,
		Entities:  fresh,
	}
}
