package models

// ExtractedIntelligence is the public slice of the entity record exposed by
// session reports. Scammer name/address and raw amounts stay internal.
type ExtractedIntelligence struct {
	PhoneNumbers   []string `json:"phoneNumbers"`
	BankAccounts   []string `json:"bankAccounts"`
	UPIIDs         []string `json:"upiIds"`
	PhishingLinks  []string `json:"phishingLinks"`
	EmailAddresses []string `json:"emailAddresses"`
}

// EngagementMetrics summarizes how long the decoy kept the counterpart busy
type EngagementMetrics struct {
	EngagementDurationSeconds int `json:"engagementDurationSeconds"`
	MessageCount              int `json:"messageCount"`
}

// SessionReport is the on-demand engagement report for one session.
// It is derived, never persisted.
type SessionReport struct {
	Status                string                `json:"status"`
	ScamDetected          bool                  `json:"scamDetected"`
	ExtractedIntelligence ExtractedIntelligence `json:"extractedIntelligence"`
	EngagementMetrics     EngagementMetrics     `json:"engagementMetrics"`
	AgentNotes            string                `json:"agentNotes"`
}
