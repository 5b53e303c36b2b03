package agents

// Agent is a prompt persona assignable to outbound calls.
type Agent struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Prompt string `json:"prompt" db:"prompt"`
}

// Patch carries a partial update; nil fields are left untouched.
type Patch struct {
	Name   *string `json:"name"`
	Prompt *string `json:"prompt"`
}
