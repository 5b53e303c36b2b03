package relay

import "errors"

var (
	// ErrConfigMissing means the realtime API key is absent from system
	// config. Sessions cannot be established without it.
	ErrConfigMissing = errors.New("relay: realtime api key is not configured")

	// ErrNoCallRecord means the start event's callSid did not match any
	// call log. The stream stays up, but the model is never configured.
	ErrNoCallRecord = errors.New("relay: no call record for callSid")

	// ErrNoAgent means the correlated call log references an agent that
	// does not exist or has no prompt.
	ErrNoAgent = errors.New("relay: no agent for call record")
)
