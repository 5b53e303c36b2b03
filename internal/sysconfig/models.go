package sysconfig

import "time"

// Setting is one operator-editable key/value pair (provider credentials,
// the public server URL). Values may be secrets; never log them.
type Setting struct {
	ID        int64     `json:"id" db:"id"`
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Well-known setting keys.
const (
	KeyOpenAIAPIKey      = "openai_api_key"
	KeyTwilioAccountSID  = "twilio_account_sid"
	KeyTwilioAuthToken   = "twilio_auth_token"
	KeyTwilioPhoneNumber = "twilio_phone_number"
	KeyServerURL         = "server_url"
)
