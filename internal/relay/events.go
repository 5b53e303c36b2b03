package relay

// Wire shapes for the two sides of a media-stream session: the telephony
// provider's stream protocol on the inbound socket and the realtime voice
// API on the upstream socket. Both speak JSON text frames.

type inboundEvent struct {
	Event string        `json:"event"`
	Start *startPayload `json:"start,omitempty"`
	Media *mediaPayload `json:"media,omitempty"`
}

type startPayload struct {
	StreamSid string `json:"streamSid"`
	CallSid   string `json:"callSid"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

// outboundMedia carries synthesized audio back to the provider. The
// streamSid tag is required; untagged frames are discarded by the provider.
type outboundMedia struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid"`
	Media     mediaPayload `json:"media"`
}

type upstreamEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta,omitempty"`
}

type audioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type sessionUpdate struct {
	Type    string         `json:"type"`
	Session realtimeConfig `json:"session"`
}

type realtimeConfig struct {
	TurnDetection     turnDetection `json:"turn_detection"`
	InputAudioFormat  string        `json:"input_audio_format"`
	OutputAudioFormat string        `json:"output_audio_format"`
	Voice             string        `json:"voice"`
	Instructions      string        `json:"instructions"`
	Modalities        []string      `json:"modalities"`
	Temperature       float64       `json:"temperature"`
}

type turnDetection struct {
	Type string `json:"type"`
}

// Upstream event types worth surfacing in the session log. Everything else
// (notably the per-chunk audio deltas) is too chatty to log.
var logEventTypes = map[string]struct{}{
	"session.created":                   {},
	"session.updated":                   {},
	"response.content.done":             {},
	"response.done":                     {},
	"rate_limits.updated":               {},
	"input_audio_buffer.committed":      {},
	"input_audio_buffer.speech_started": {},
	"input_audio_buffer.speech_stopped": {},
}
