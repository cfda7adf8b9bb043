package tools

import (
	"errors"
	"strings"
	"testing"
)

type fakeDialer struct {
	sid    string
	err    error
	lastTo string
}

func (d *fakeDialer) Dial(to string) (string, error) {
	d.lastTo = to
	return d.sid, d.err
}

func TestCallEmergencyServices_NotConfigured(t *testing.T) {
	ConfigureDialer(nil)

	result, err := Call_Emergency_Services("+15551234567")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if result != EmergencyFallback {
		t.Errorf("expected fallback string, got %q", result)
	}
}

func TestCallEmergencyServices_NotConfiguredNeverPanics(t *testing.T) {
	ConfigureDialer(nil)

	for _, phone := range []string{"", "not-a-number", "+15551234567"} {
		result, err := Call_Emergency_Services(phone)
		if err != nil {
			t.Errorf("phone %q: expected nil error, got %v", phone, err)
		}
		if result != EmergencyFallback {
			t.Errorf("phone %q: expected fallback string, got %q", phone, result)
		}
	}
}

func TestCallEmergencyServices_Success(t *testing.T) {
	d := &fakeDialer{sid: "CA123"}
	ConfigureDialer(d)
	defer ConfigureDialer(nil)

	result, err := Call_Emergency_Services("+15551234567")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if d.lastTo != "+15551234567" {
		t.Errorf("dialer received %q, expected the exact phone number", d.lastTo)
	}
	if result == EmergencyFallback {
		t.Error("success should not return the not-configured fallback")
	}
	if !strings.Contains(result, "+15551234567") {
		t.Errorf("confirmation should contain the phone number, got %q", result)
	}
	if !strings.Contains(result, "CA123") {
		t.Errorf("confirmation should contain the call SID, got %q", result)
	}
}

func TestCallEmergencyServices_DialFailure(t *testing.T) {
	ConfigureDialer(&fakeDialer{err: errors.New("twilio: unreachable")})
	defer ConfigureDialer(nil)

	result, err := Call_Emergency_Services("+15551234567")
	if err != nil {
		t.Errorf("dial failure must not surface an error, got %v", err)
	}
	if !strings.Contains(result, "local emergency services") {
		t.Errorf("expected failure fallback advising local emergency services, got %q", result)
	}
}
