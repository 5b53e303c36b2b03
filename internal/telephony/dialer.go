package telephony

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// OutboundCallRequest describes one call to originate.
type OutboundCallRequest struct {
	To   string
	From string
	// AnswerURL is fetched by the provider when the callee picks up; it must
	// return TwiML.
	AnswerURL string
	// StatusCallbackURL receives call progress events. Optional.
	StatusCallbackURL string
}

type OutboundCall struct {
	Sid string
}

// Dialer originates calls at the telephony provider.
type Dialer interface {
	StartCall(ctx context.Context, req OutboundCallRequest) (OutboundCall, error)
}

// DialerFactory builds a Dialer from runtime credentials. Credentials live in
// the settings store, so dialers are built per call rather than at boot.
type DialerFactory func(accountSID, authToken string) Dialer

// NewTwilioDialer is the production DialerFactory.
func NewTwilioDialer(accountSID, authToken string) Dialer {
	return &twilioDialer{client: twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})}
}

type twilioDialer struct {
	client *twilio.RestClient
}

func (d *twilioDialer) StartCall(_ context.Context, req OutboundCallRequest) (OutboundCall, error) {
	params := &api.CreateCallParams{}
	params.SetTo(req.To)
	params.SetFrom(req.From)
	params.SetUrl(req.AnswerURL)
	if req.StatusCallbackURL != "" {
		params.SetStatusCallback(req.StatusCallbackURL)
		params.SetStatusCallbackEvent([]string{"completed"})
	}

	resp, err := d.client.Api.CreateCall(params)
	if err != nil {
		return OutboundCall{}, fmt.Errorf("telephony: create call: %w", err)
	}
	if resp.Sid == nil {
		return OutboundCall{}, fmt.Errorf("telephony: create call returned no sid")
	}
	return OutboundCall{Sid: *resp.Sid}, nil
}
