package tools

import (
	"errors"
	"testing"

	"github.com/safespace-ai/safespace/models"
	"github.com/safespace-ai/safespace/stores"
)

type fakeModel struct {
	text    string
	err     error
	lastReq models.Model_Request
}

func (m *fakeModel) Model_Request(request models.Model_Request, tools []models.FunctionDeclaration, history []stores.Message) (models.Model_Response, error) {
	m.lastReq = request
	if m.err != nil {
		return models.Model_Response{}, m.err
	}
	text := m.text
	return models.Model_Response{Parts: []models.Model_Part{{Text: &text}}}, nil
}

func (m *fakeModel) Stream_Model_Request(request models.Model_Request, tools []models.FunctionDeclaration, history []stores.Message) (<-chan models.Model_Response, <-chan error) {
	respChan := make(chan models.Model_Response)
	errChan := make(chan error, 1)
	close(respChan)
	close(errChan)
	return respChan, errChan
}

func TestAskMentalHealthSpecialist_NotConfigured(t *testing.T) {
	ConfigureSpecialist(nil)

	result, err := Ask_Mental_Health_Specialist("I feel anxious")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if result != SpecialistNotConfigured {
		t.Errorf("expected not-configured fallback, got %q", result)
	}
}

func TestAskMentalHealthSpecialist_Success(t *testing.T) {
	m := &fakeModel{text: "  That sounds really hard. Let's take a breath together.  "}
	ConfigureSpecialist(m)
	defer ConfigureSpecialist(nil)

	result, err := Ask_Mental_Health_Specialist("I feel anxious")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if result != "That sounds really hard. Let's take a breath together." {
		t.Errorf("expected trimmed model text, got %q", result)
	}
	if m.lastReq.User_Message == nil {
		t.Fatal("specialist should pass the prompt as a user message")
	}
	if got := m.lastReq.User_Message.Content.Parts[0].Text; got != "I feel anxious" {
		t.Errorf("prompt should pass through verbatim, got %q", got)
	}
}

func TestAskMentalHealthSpecialist_ModelError(t *testing.T) {
	ConfigureSpecialist(&fakeModel{err: errors.New("groq: 500")})
	defer ConfigureSpecialist(nil)

	result, err := Ask_Mental_Health_Specialist("I feel anxious")
	if err != nil {
		t.Errorf("model failure must not surface an error, got %v", err)
	}
	if result != SpecialistUnavailable {
		t.Errorf("expected unavailable fallback, got %q", result)
	}
}

func TestAskMentalHealthSpecialist_EmptyResponse(t *testing.T) {
	ConfigureSpecialist(&fakeModel{text: "   "})
	defer ConfigureSpecialist(nil)

	result, err := Ask_Mental_Health_Specialist("hello")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if result != SpecialistUnavailable {
		t.Errorf("blank model output should fall back, got %q", result)
	}
}
