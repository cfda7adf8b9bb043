package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/safespace-ai/safespace/models"
	"github.com/safespace-ai/safespace/sessions"
	"github.com/safespace-ai/safespace/stores"
)

type fixedAgent struct {
	reply string
}

func (a *fixedAgent) Run(request models.Model_Request, history []stores.Message) (models.Model_Response, error) {
	text := a.reply
	return models.Model_Response{Parts: []models.Model_Part{{Text: &text}}}, nil
}

func (a *fixedAgent) Run_Stream(request models.Model_Request, history []stores.Message) (<-chan models.Model_Response, <-chan error) {
	respChan := make(chan models.Model_Response, 1)
	errChan := make(chan error, 1)
	text := a.reply
	respChan <- models.Model_Response{Parts: []models.Model_Part{{Text: &text}}}
	close(respChan)
	close(errChan)
	return respChan, errChan
}

func (a *fixedAgent) ExecuteTool(name string, args map[string]interface{}, sessionID string) (string, error) {
	return `{"result": "ok"}`, nil
}

func (a *fixedAgent) ApproveTool(name string, args map[string]interface{}) (bool, error) {
	return true, nil
}

func newTestServer(agent sessions.AgentInterface) (*Server, *sessions.Registry) {
	store := stores.NewMemoryStore()
	registry := sessions.NewRegistry(store, 0)
	srv := New(Options{
		Agent:    agent,
		Registry: registry,
		Store:    store,
	})
	return srv, registry
}

func doJSON(srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

func startTestSession(t *testing.T, srv *Server) string {
	t.Helper()
	w := doJSON(srv, http.MethodPost, "/api/v1/session", models.StartSessionRequest{
		Name:  "Alex",
		Phone: "+15551234567",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("session start failed: %d %s", w.Code, w.Body.String())
	}
	var resp models.StartSessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad session response: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("expected a session ID")
	}
	return resp.SessionID
}

func TestStartSession(t *testing.T) {
	srv, registry := newTestServer(&fixedAgent{reply: "hi"})
	defer registry.Close()

	w := doJSON(srv, http.MethodPost, "/api/v1/session", models.StartSessionRequest{Name: "Alex"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.StartSessionResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.Contains(resp.Greeting, "Alex") {
		t.Errorf("greeting should address the user, got %q", resp.Greeting)
	}
}

func TestStartSession_MissingName(t *testing.T) {
	srv, registry := newTestServer(&fixedAgent{reply: "hi"})
	defer registry.Close()

	w := doJSON(srv, http.MethodPost, "/api/v1/session", map[string]string{"phone": "+15551234567"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing name, got %d", w.Code)
	}
}

func TestAsk(t *testing.T) {
	srv, registry := newTestServer(&fixedAgent{reply: "I'm here with you."})
	defer registry.Close()

	sessionID := startTestSession(t, srv)
	w := doJSON(srv, http.MethodPost, "/api/v1/chat/"+sessionID, models.AskRequest{Message: "hi"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.AskResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Response != "I'm here with you." {
		t.Errorf("unexpected reply: %q", resp.Response)
	}
	if resp.ToolCalled != "None" {
		t.Errorf("expected ToolCalled 'None', got %q", resp.ToolCalled)
	}
	if resp.ResponseMode != "chat" {
		t.Errorf("expected default chat mode, got %q", resp.ResponseMode)
	}
}

func TestAsk_UnknownSession(t *testing.T) {
	srv, registry := newTestServer(&fixedAgent{reply: "hi"})
	defer registry.Close()

	w := doJSON(srv, http.MethodPost, "/api/v1/chat/nope", models.AskRequest{Message: "hi"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown session, got %d", w.Code)
	}
}

func TestAsk_NotConfigured(t *testing.T) {
	srv, registry := newTestServer(nil)
	defer registry.Close()

	sessionID := startTestSession(t, srv)
	w := doJSON(srv, http.MethodPost, "/api/v1/chat/"+sessionID, models.AskRequest{Message: "hi"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without an agent, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "GROQ_API_KEY") {
		t.Errorf("error should name the missing credential: %s", w.Body.String())
	}
}

func TestAsk_VoiceModeWithoutTTSFallsBack(t *testing.T) {
	srv, registry := newTestServer(&fixedAgent{reply: "hello"})
	defer registry.Close()

	sessionID := startTestSession(t, srv)
	w := doJSON(srv, http.MethodPost, "/api/v1/chat/"+sessionID, models.AskRequest{
		Message:      "hi",
		ResponseMode: "voice",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp models.AskResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.ResponseMode != "chat" {
		t.Errorf("voice without TTS should fall back to chat, got %q", resp.ResponseMode)
	}
	if resp.Audio != "" {
		t.Error("no audio expected without a synthesizer")
	}
}

func TestHistory(t *testing.T) {
	srv, registry := newTestServer(&fixedAgent{reply: "hello back"})
	defer registry.Close()

	sessionID := startTestSession(t, srv)
	doJSON(srv, http.MethodPost, "/api/v1/chat/"+sessionID, models.AskRequest{Message: "hello"})

	w := doJSON(srv, http.MethodGet, "/api/v1/chat/"+sessionID+"/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		History []models.ChatMessageResponse `json:"history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad history response: %v", err)
	}
	// greeting + user message + model reply
	if len(resp.History) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(resp.History))
	}
}

func TestClearSession(t *testing.T) {
	srv, registry := newTestServer(&fixedAgent{reply: "hi"})
	defer registry.Close()

	sessionID := startTestSession(t, srv)
	w := doJSON(srv, http.MethodDelete, "/api/v1/session/"+sessionID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}

	// Session is gone afterwards
	w = doJSON(srv, http.MethodPost, "/api/v1/chat/"+sessionID, models.AskRequest{Message: "hi"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after clearing, got %d", w.Code)
	}

	w = doJSON(srv, http.MethodDelete, "/api/v1/session/"+sessionID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 clearing twice, got %d", w.Code)
	}
}
