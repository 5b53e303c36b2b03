package telephony

import (
	"encoding/xml"
	"errors"
	"strings"
)

// Minimal TwiML builder for the verbs this service emits.
// Kept SDK-free: the REST client is only needed for originating calls,
// answering webhooks is just XML.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlConnect struct {
	XMLName xml.Name    `xml:"Connect"`
	Stream  twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL string `xml:"url,attr"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlReject struct {
	XMLName xml.Name `xml:"Reject"`
	Reason  string   `xml:"reason,attr,omitempty"`
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`

// StreamTwiML renders the answer document that bridges an answered call into
// the media-stream websocket endpoint.
func StreamTwiML(wsURL string) (string, error) {
	wsURL = strings.TrimSpace(wsURL)
	if !strings.HasPrefix(wsURL, "wss://") && !strings.HasPrefix(wsURL, "ws://") {
		return "", errors.New("telephony: stream url must be a websocket URL")
	}
	return render(twimlConnect{Stream: twimlStream{URL: wsURL}})
}

// HangupTwiML renders a plain hangup response.
func HangupTwiML() (string, error) {
	return render(twimlHangup{})
}

// RejectTwiML renders a rejection with the busy reason.
func RejectTwiML() (string, error) {
	return render(twimlReject{Reason: "busy"})
}

func render(verbs ...any) (string, error) {
	r := twimlResponse{Verbs: verbs}
	out, err := xml.Marshal(r)
	if err != nil {
		return "", err
	}
	return xmlHeader + string(out), nil
}
