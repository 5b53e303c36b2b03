package relay

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Conn is the subset of a websocket connection the session needs. Both
// gorilla's *websocket.Conn and the in-memory fakes used by tests satisfy it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// UpstreamDialer opens the websocket to the realtime voice API.
type UpstreamDialer interface {
	DialUpstream(ctx context.Context, url, apiKey string) (Conn, error)
}

type wsDialer struct{}

// NewUpstreamDialer returns the production dialer backed by gorilla/websocket.
func NewUpstreamDialer() UpstreamDialer { return wsDialer{} }

func (wsDialer) DialUpstream(ctx context.Context, url, apiKey string) (Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("relay: dial upstream: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("relay: dial upstream: %w", err)
	}
	return conn, nil
}
