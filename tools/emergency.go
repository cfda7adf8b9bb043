package tools

import (
	"fmt"
	"log"
	"sync"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwiML document played to the callee once the call connects.
const DefaultVoiceURL = "http://demo.twilio.com/docs/voice.xml"

// EmergencyFallback is the fixed safe string returned whenever a call cannot
// be placed. It must never be replaced by an error: the model relays it to a
// user who may be in crisis.
const EmergencyFallback = "Emergency call could not be initiated because telephony is not configured. " +
	"Please dial your local emergency number immediately."

// Dialer places a single outbound call and returns the provider's call SID.
type Dialer interface {
	Dial(to string) (sid string, err error)
}

// TwilioDialer implements Dialer via the Twilio REST API.
type TwilioDialer struct {
	client   *twilio.RestClient
	from     string
	voiceURL string
}

// NewTwilioDialer builds a dialer from account credentials and the outbound
// caller number.
func NewTwilioDialer(accountSID, authToken, from string) *TwilioDialer {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioDialer{
		client:   client,
		from:     from,
		voiceURL: DefaultVoiceURL,
	}
}

// Dial places the call and returns the Twilio call SID.
func (d *TwilioDialer) Dial(to string) (string, error) {
	params := &openapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(d.from)
	params.SetUrl(d.voiceURL)

	call, err := d.client.Api.CreateCall(params)
	if err != nil {
		return "", err
	}

	sid := ""
	if call.Sid != nil {
		sid = *call.Sid
	}
	return sid, nil
}

var (
	dialerMu sync.RWMutex
	dialer   Dialer
)

// ConfigureDialer installs the telephony backend. Pass nil to deconfigure
// (the tool then returns EmergencyFallback).
func ConfigureDialer(d Dialer) {
	dialerMu.Lock()
	defer dialerMu.Unlock()
	dialer = d
}

// Call_Emergency_Services attempts an outbound call to the given phone number.
// It always returns a user-safe string and a nil error: missing configuration
// and provider failures both degrade to fallback text advising the user to
// dial local emergency services directly.
func Call_Emergency_Services(phone string) (string, error) {
	dialerMu.RLock()
	d := dialer
	dialerMu.RUnlock()

	if d == nil {
		return EmergencyFallback, nil
	}

	sid, err := d.Dial(phone)
	if err != nil {
		log.Printf("Emergency call attempt failed: %v", err)
		return fmt.Sprintf("Emergency call attempt failed (error: %v). "+
			"Please contact your local emergency services immediately.", err), nil
	}

	return fmt.Sprintf("A critical situation alert has been triggered. "+
		"The emergency helpline is now calling %s. Call SID: %s. "+
		"Please stay safe and on the line.", phone, sid), nil
}
