package tools

import (
	"log"
	"strings"
	"sync"

	safespace "github.com/safespace-ai/safespace"
	"github.com/safespace-ai/safespace/models"
)

// Fixed user-safe strings. The tool never surfaces a raw error to the model.
const (
	SpecialistNotConfigured = "The assistant is not fully configured (missing GROQ_API_KEY). " +
		"Please try again after the server is configured."
	SpecialistUnavailable = "I'm having technical difficulties right now, but I want you to know your feelings matter. " +
		"Please try again later."
)

var (
	specialistMu    sync.RWMutex
	specialistModel safespace.Model
)

// ConfigureSpecialist installs the model that backs the therapist tool.
// Pass nil to deconfigure (the tool then returns SpecialistNotConfigured).
func ConfigureSpecialist(m safespace.Model) {
	specialistMu.Lock()
	defer specialistMu.Unlock()
	specialistModel = m
}

// Ask_Mental_Health_Specialist generates a therapeutic response by delegating
// to the specialist model (same LLM, therapist persona system prompt).
func Ask_Mental_Health_Specialist(prompt string) (string, error) {
	specialistMu.RLock()
	m := specialistModel
	specialistMu.RUnlock()

	if m == nil {
		return SpecialistNotConfigured, nil
	}

	userMsg := models.TextMessage(prompt)
	req := models.Model_Request{User_Message: &userMsg}

	resp, err := m.Model_Request(req, nil, nil)
	if err != nil {
		log.Printf("Specialist model error: %v", err)
		return SpecialistUnavailable, nil
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return SpecialistUnavailable, nil
	}
	return text, nil
}
