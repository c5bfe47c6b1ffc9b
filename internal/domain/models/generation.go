package models

// RiskLevel grades how dangerous the counterpart's behavior looks
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Action is the recommended handling for the current turn
type Action string

const (
	ActionBlock  Action = "BLOCK"
	ActionIgnore Action = "IGNORE"
	ActionEngage Action = "ENGAGE"
	ActionReport Action = "REPORT"
	ActionDelay  Action = "DELAY"
)

// Well-known intents surfaced by the generative backend or synthesized locally
const (
	IntentGreeting    = "GREETING"
	IntentScamAttempt = "SCAM_ATTEMPT"
	IntentInfoRequest = "INFO_REQUEST"
	IntentUrgency     = "URGENCY"
	IntentThreat      = "THREAT"
	IntentFinancial   = "FINANCIAL"
	IntentFallback    = "FALLBACK"
	IntentError       = "ERROR"
	IntentUnknown     = "UNKNOWN"
)

// TurnResult is the caller-facing outcome of processing one inbound message.
// ExtractedInfo is the consolidated session record after this turn; the same
// value is stored as the agent turn's meta blob and treated as historical
// ground truth from then on.
type TurnResult struct {
	Intent            string       `json:"intent"`
	RiskLevel         RiskLevel    `json:"risk_level"`
	ConfidenceScore   float64      `json:"confidence_score"`
	Response          string       `json:"response"`
	RecommendedAction Action       `json:"recommended_action"`
	LogRequired       bool         `json:"log_required"`
	ExtractedInfo     EntityRecord `json:"extracted_info"`
}
