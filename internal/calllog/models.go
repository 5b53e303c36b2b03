package calllog

import "time"

// CallLog is one planned or completed outbound call to a person.
type CallLog struct {
	ID     int64  `json:"id" db:"id"`
	Number string `json:"number" db:"number"`
	Name   string `json:"name" db:"name"`
	Status string `json:"status" db:"status"`
	// Duration is the provider-reported call length in seconds, kept as a
	// string because the provider sends it that way and it may be absent.
	Duration string `json:"duration" db:"duration"`
	// AgentID selects the prompt persona used when the call is answered.
	AgentID int64 `json:"agent" db:"agent"`
	// Records holds free-form notes or a transcript reference.
	Records string `json:"records" db:"records"`
	// CallSid is the provider's call identifier, set once the call is
	// originated. It correlates the media stream back to this row.
	CallSid   string    `json:"call_sid" db:"call_sid"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

const (
	StatusPending = "pending"
	StatusCalled  = "called"
	StatusFailed  = "failed"
)

// Patch carries a partial update; nil fields are left untouched.
type Patch struct {
	Number   *string `json:"number"`
	Name     *string `json:"name"`
	Status   *string `json:"status"`
	Duration *string `json:"duration"`
	AgentID  *int64  `json:"agent"`
	Records  *string `json:"records"`
	CallSid  *string `json:"call_sid"`
}
