package models

import "encoding/json"

// Role identifies the author of a stored turn
type Role string

const (
	RoleUser  Role = "user"  // the counterpart (suspected scam actor)
	RoleAgent Role = "agent" // the decoy persona
)

// Turn is one stored message in a session. Turns are append-only and
// immutable once written; ordering within a session follows arrival.
// CreatedAt is kept as opaque text because evaluation harnesses supply
// timestamps mixing a space or T separator and an optional zone suffix;
// report generation normalizes at parse time.
type Turn struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	CreatedAt string          `json:"timestamp"`
}
