package telephony

import (
	"net/http"
	"strings"
)

// StatusCallbackForm captures the subset of the provider's call-status
// webhook fields we care about. Sent as application/x-www-form-urlencoded.
type StatusCallbackForm struct {
	CallSid      string
	CallStatus   string
	CallDuration string // seconds, as a string
}

func ParseStatusCallback(r *http.Request) (StatusCallbackForm, error) {
	if err := r.ParseForm(); err != nil {
		return StatusCallbackForm{}, err
	}
	return StatusCallbackForm{
		CallSid:      strings.TrimSpace(r.PostFormValue("CallSid")),
		CallStatus:   strings.TrimSpace(r.PostFormValue("CallStatus")),
		CallDuration: strings.TrimSpace(r.PostFormValue("CallDuration")),
	}, nil
}
