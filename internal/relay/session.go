package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"callops/internal/calllog"
)

// State tracks where a session is in its lifecycle. Transitions only move
// forward; Closed is terminal.
type State int

const (
	StateOpening State = iota
	StateAwaitingStart
	StateConfiguring
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateAwaitingStart:
		return "awaiting_start"
	case StateConfiguring:
		return "configuring"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// CallRecord is the slice of a call log the session needs for correlation.
type CallRecord struct {
	ID      int64
	AgentID int64
	Name    string
}

// Credentials supplies the realtime API key at session start.
type Credentials interface {
	RealtimeAPIKey(ctx context.Context) (string, error)
}

// CallRecords correlates a provider callSid with a call log and records the
// outcome of a connected stream.
type CallRecords interface {
	ByCallSid(ctx context.Context, callSid string) (CallRecord, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// AgentPrompts resolves the instruction prompt for an agent.
type AgentPrompts interface {
	Prompt(ctx context.Context, agentID int64) (string, error)
}

// SessionConfig carries the tunables for a single media-stream session.
type SessionConfig struct {
	URL   string
	Voice string

	// StartTimeout bounds the wait for the provider's start event,
	// ConfigureTimeout the wait for the model configuration to land.
	StartTimeout     time.Duration
	ConfigureTimeout time.Duration

	// GraceDelay is how long to wait after correlation before sending the
	// session update. The realtime API drops updates that race its own
	// session.created handshake, so we give it a beat to settle.
	GraceDelay time.Duration
}

// Session relays audio between one provider media stream and one realtime
// API connection. Each accepted websocket gets its own Session; nothing is
// shared between concurrent calls.
type Session struct {
	id      string
	inbound Conn
	dialer  UpstreamDialer
	creds   Credentials
	records CallRecords
	prompts AgentPrompts
	cfg     SessionConfig
	log     *slog.Logger

	mu            sync.Mutex
	state         State
	upstream      Conn
	streamSid     string
	callSid       string
	startReceived bool
	configured    bool

	writeMu sync.Mutex

	closeOnce    sync.Once
	activateOnce sync.Once
	done         chan struct{}
	started      chan struct{}
	activated    chan struct{}
}

// NewSession wraps an accepted inbound connection. Call Run to drive it.
func NewSession(inbound Conn, dialer UpstreamDialer, creds Credentials, records CallRecords, prompts AgentPrompts, cfg SessionConfig, log *slog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:        id,
		inbound:   inbound,
		dialer:    dialer,
		creds:     creds,
		records:   records,
		prompts:   prompts,
		cfg:       cfg,
		log:       log.With("session_id", id),
		state:     StateOpening,
		done:      make(chan struct{}),
		started:   make(chan struct{}),
		activated: make(chan struct{}),
	}
}

// Run drives the session until either side closes. It blocks on the inbound
// read loop; the upstream dial and pump run concurrently so that provider
// frames arriving before the upstream is open are handled (and dropped)
// rather than queued.
func (s *Session) Run(ctx context.Context) error {
	defer s.close()

	apiKey, err := s.creds.RealtimeAPIKey(ctx)
	if err != nil || strings.TrimSpace(apiKey) == "" {
		s.log.Error("session rejected", "err", ErrConfigMissing)
		return ErrConfigMissing
	}

	go s.dialAndAttach(ctx, apiKey)
	go s.watchdog(ctx)

	s.inboundPump(ctx)
	return nil
}

// Done is closed when the session has fully shut down.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) dialAndAttach(ctx context.Context, apiKey string) {
	up, err := s.dialer.DialUpstream(ctx, s.cfg.URL, apiKey)
	if err != nil {
		s.log.Error("upstream dial failed", "err", err)
		s.close()
		return
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		_ = up.Close()
		return
	}
	s.upstream = up
	var callSid string
	configure := false
	if s.startReceived {
		// The provider beat us to it; go straight to configuring.
		s.state = StateConfiguring
		callSid = s.callSid
		configure = true
	} else {
		s.state = StateAwaitingStart
	}
	s.mu.Unlock()

	s.log.Info("upstream connected", "state", s.stateNow().String())
	go s.upstreamPump()
	if configure {
		go s.configure(ctx, callSid)
	}
}

func (s *Session) inboundPump(ctx context.Context) {
	for {
		_, data, err := s.inbound.ReadMessage()
		if err != nil {
			s.log.Info("inbound stream closed", "err", err)
			return
		}

		var ev inboundEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			// Garbage on the wire is logged and skipped, never fatal.
			s.log.Warn("unparseable inbound frame", "err", err)
			continue
		}

		switch ev.Event {
		case "start":
			s.handleStart(ctx, ev.Start)
		case "media":
			if ev.Media != nil {
				s.forwardMedia(ev.Media.Payload)
			}
		case "stop":
			s.log.Info("provider sent stop")
			return
		default:
			s.log.Debug("ignoring inbound event", "event", ev.Event)
		}
	}
}

func (s *Session) handleStart(ctx context.Context, start *startPayload) {
	if start == nil {
		s.log.Warn("start event without payload")
		return
	}

	s.mu.Lock()
	if s.startReceived || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.startReceived = true
	s.streamSid = start.StreamSid
	s.callSid = start.CallSid
	configure := s.upstream != nil
	if configure {
		s.state = StateConfiguring
	}
	s.mu.Unlock()

	close(s.started)
	s.log.Info("stream started", "stream_sid", start.StreamSid, "call_sid", start.CallSid)
	if configure {
		go s.configure(ctx, start.CallSid)
	}
}

// configure correlates the callSid, waits out the grace delay and sends the
// one session.update this session will ever send. Correlation failures keep
// the stream alive unconfigured.
func (s *Session) configure(ctx context.Context, callSid string) {
	rec, prompt, err := s.lookup(ctx, callSid)
	if err != nil {
		s.log.Warn("call correlation failed", "call_sid", callSid, "err", err)
		s.activate(nil)
		return
	}

	select {
	case <-time.After(s.cfg.GraceDelay):
	case <-s.done:
		return
	}

	if err := s.sendSessionUpdate(prompt, rec.Name); err != nil {
		s.log.Error("session update failed", "err", err)
		s.detachUpstream()
		return
	}
	s.activate(&rec)
}

func (s *Session) lookup(ctx context.Context, callSid string) (CallRecord, string, error) {
	rec, err := s.records.ByCallSid(ctx, callSid)
	if err != nil {
		return CallRecord{}, "", ErrNoCallRecord
	}
	prompt, err := s.prompts.Prompt(ctx, rec.AgentID)
	if err != nil {
		return CallRecord{}, "", ErrNoAgent
	}
	return rec, prompt, nil
}

func (s *Session) sendSessionUpdate(prompt, name string) error {
	instructions := prompt +
		"\nYou are calling " + name + ". Start the conversation by asking if " + name + " is available."

	upd := sessionUpdate{
		Type: "session.update",
		Session: realtimeConfig{
			TurnDetection:     turnDetection{Type: "server_vad"},
			InputAudioFormat:  "g711_ulaw",
			OutputAudioFormat: "g711_ulaw",
			Voice:             s.cfg.Voice,
			Instructions:      instructions,
			Modalities:        []string{"text", "audio"},
			Temperature:       0.8,
		},
	}
	data, err := json.Marshal(upd)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.configured || s.state == StateClosed || s.upstream == nil {
		s.mu.Unlock()
		return nil
	}
	up := s.upstream
	s.mu.Unlock()

	s.writeMu.Lock()
	err = up.WriteMessage(websocket.TextMessage, data)
	s.writeMu.Unlock()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.configured = true
	s.mu.Unlock()
	s.log.Info("session configured", "voice", s.cfg.Voice)
	return nil
}

func (s *Session) activate(rec *CallRecord) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateActive
	s.mu.Unlock()

	s.activateOnce.Do(func() { close(s.activated) })
	s.log.Info("session active", "configured", rec != nil)

	if rec != nil {
		// Best effort; the call itself does not depend on this write.
		id := rec.ID
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.records.UpdateStatus(ctx, id, calllog.StatusCalled); err != nil {
				s.log.Warn("call status update failed", "call_log_id", id, "err", err)
			}
		}()
	}
}

// forwardMedia pushes one caller audio chunk upstream. Chunks arriving
// before the upstream is open are dropped, not queued; the realtime API has
// no use for stale audio.
func (s *Session) forwardMedia(payload string) {
	s.mu.Lock()
	up := s.upstream
	open := s.state != StateClosed
	s.mu.Unlock()
	if up == nil || !open {
		return
	}

	data, err := json.Marshal(audioAppend{Type: "input_audio_buffer.append", Audio: payload})
	if err != nil {
		return
	}
	s.writeMu.Lock()
	err = up.WriteMessage(websocket.TextMessage, data)
	s.writeMu.Unlock()
	if err != nil {
		s.log.Warn("upstream write failed", "err", err)
		s.detachUpstream()
	}
}

// upstreamPump forwards synthesized audio deltas back to the provider and
// logs the interesting upstream lifecycle events.
func (s *Session) upstreamPump() {
	s.mu.Lock()
	up := s.upstream
	s.mu.Unlock()
	if up == nil {
		return
	}

	for {
		_, data, err := up.ReadMessage()
		if err != nil {
			s.log.Info("upstream stream closed", "err", err)
			s.detachUpstream()
			return
		}

		var ev upstreamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			s.log.Warn("unparseable upstream frame", "err", err)
			continue
		}

		if _, ok := logEventTypes[ev.Type]; ok {
			s.log.Info("upstream event", "type", ev.Type)
		}

		if ev.Type == "response.audio.delta" && ev.Delta != "" {
			s.mu.Lock()
			streamSid := s.streamSid
			closed := s.state == StateClosed
			s.mu.Unlock()
			if closed || streamSid == "" {
				continue
			}
			out, err := json.Marshal(outboundMedia{
				Event:     "media",
				StreamSid: streamSid,
				Media:     mediaPayload{Payload: ev.Delta},
			})
			if err != nil {
				continue
			}
			if err := s.inbound.WriteMessage(websocket.TextMessage, out); err != nil {
				s.log.Warn("inbound write failed", "err", err)
				s.close()
				return
			}
		}
	}
}

// watchdog closes sessions that stall before going active: no start event
// within StartTimeout, or no activation within ConfigureTimeout of the start.
func (s *Session) watchdog(ctx context.Context) {
	timer := time.NewTimer(s.cfg.StartTimeout)
	defer timer.Stop()

	select {
	case <-s.started:
	case <-s.done:
		return
	case <-ctx.Done():
		s.close()
		return
	case <-timer.C:
		s.log.Warn("no start event before deadline", "timeout", s.cfg.StartTimeout)
		s.close()
		return
	}

	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(s.cfg.ConfigureTimeout)

	select {
	case <-s.activated:
	case <-s.done:
	case <-ctx.Done():
		s.close()
	case <-timer.C:
		s.log.Warn("configuration stalled past deadline", "timeout", s.cfg.ConfigureTimeout)
		s.close()
	}
}

// detachUpstream tears down the upstream leg only. The inbound side keeps
// draining with its media dropped until the provider hangs up; no upstream
// reconnect is ever attempted.
func (s *Session) detachUpstream() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	up := s.upstream
	s.upstream = nil
	s.state = StateClosed
	s.mu.Unlock()

	if up != nil {
		_ = up.Close()
	}
	s.log.Info("upstream detached, draining inbound")
}

func (s *Session) stateNow() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// close tears down both sockets exactly once. Closing the inbound conn
// unblocks the inbound pump, which lets Run return.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		prev := s.state
		s.state = StateClosed
		up := s.upstream
		s.mu.Unlock()

		if up != nil {
			_ = up.Close()
		}
		_ = s.inbound.Close()
		close(s.done)
		s.log.Info("session closed", "last_state", prev.String())
	})
}
