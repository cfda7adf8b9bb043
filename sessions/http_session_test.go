package sessions

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/safespace-ai/safespace/models"
	"github.com/safespace-ai/safespace/stores"
)

// scriptedAgent replays a fixed sequence of model responses and records every
// tool execution. It stands in for the Groq-backed agent so interaction tests
// run without network access.
type scriptedAgent struct {
	responses []models.Model_Response
	calls     int
	requests  []models.Model_Request

	executedTool string
	executedArgs map[string]interface{}
	toolOutput   string
}

func (a *scriptedAgent) Run(request models.Model_Request, history []stores.Message) (models.Model_Response, error) {
	a.requests = append(a.requests, request)
	if a.calls >= len(a.responses) {
		return models.Model_Response{}, fmt.Errorf("unexpected agent call %d", a.calls)
	}
	resp := a.responses[a.calls]
	a.calls++
	return resp, nil
}

func (a *scriptedAgent) Run_Stream(request models.Model_Request, history []stores.Message) (<-chan models.Model_Response, <-chan error) {
	respChan := make(chan models.Model_Response, len(a.responses))
	errChan := make(chan error, 1)
	for a.calls < len(a.responses) {
		respChan <- a.responses[a.calls]
		a.calls++
	}
	close(respChan)
	close(errChan)
	return respChan, errChan
}

func (a *scriptedAgent) ExecuteTool(name string, args map[string]interface{}, sessionID string) (string, error) {
	a.executedTool = name
	a.executedArgs = args
	if a.toolOutput == "" {
		return `{"result": "ok"}`, nil
	}
	return a.toolOutput, nil
}

func (a *scriptedAgent) ApproveTool(name string, args map[string]interface{}) (bool, error) {
	return true, nil
}

func textResponse(s string) models.Model_Response {
	return models.Model_Response{Parts: []models.Model_Part{{Text: &s}}}
}

func toolCallResponse(id, name string, args map[string]interface{}) models.Model_Response {
	return models.Model_Response{Parts: []models.Model_Part{{
		FunctionCall: &models.FunctionCall{ID: id, Name: name, Args: args},
	}}}
}

func newTestChatSession(agent AgentInterface) (*ChatSession, stores.MessageStore) {
	store := stores.NewMemoryStore()
	profile := &Profile{ID: "sess1", Name: "Alex", Phone: "+15551234567"}
	session := &ChatSession{
		Agent:   agent,
		Profile: profile,
		Store:   store,
		Logger:  log.New(os.Stdout, "[TEST sess1] ", log.LstdFlags),
	}
	return session, store
}

func TestRunInteraction_PlainReply(t *testing.T) {
	agent := &scriptedAgent{responses: []models.Model_Response{
		textResponse("A firewall keeps untrusted traffic out of a network."),
	}}
	session, store := newTestChatSession(agent)

	text, toolCalled, err := session.RunInteraction("what is a firewall?")
	if err != nil {
		t.Fatalf("RunInteraction failed: %v", err)
	}
	if text != "A firewall keeps untrusted traffic out of a network." {
		t.Errorf("unexpected reply: %q", text)
	}
	if toolCalled != "None" {
		t.Errorf("expected toolCalled 'None', got %q", toolCalled)
	}
	if agent.executedTool != "" {
		t.Errorf("no tool should have been executed, got %q", agent.executedTool)
	}

	// Transcript: user message + model reply
	history, _ := store.FetchHistory("sess1", 0)
	if len(history) != 2 {
		t.Fatalf("expected 2 transcript messages, got %d", len(history))
	}
	if history[0].Type != "user_message" || history[1].Type != "model_message" {
		t.Errorf("unexpected transcript types: %s, %s", history[0].Type, history[1].Type)
	}
}

func TestRunInteraction_ToolCycle(t *testing.T) {
	agent := &scriptedAgent{responses: []models.Model_Response{
		toolCallResponse("call_1", "ask_mental_health_specialist", map[string]interface{}{"prompt": "I feel overwhelmed"}),
		textResponse("It makes sense that you feel overwhelmed."),
	}}
	session, store := newTestChatSession(agent)

	text, toolCalled, err := session.RunInteraction("I feel overwhelmed")
	if err != nil {
		t.Fatalf("RunInteraction failed: %v", err)
	}
	if toolCalled != "ask_mental_health_specialist" {
		t.Errorf("expected specialist tool reported, got %q", toolCalled)
	}
	if text != "It makes sense that you feel overwhelmed." {
		t.Errorf("unexpected final reply: %q", text)
	}
	if agent.executedTool != "ask_mental_health_specialist" {
		t.Errorf("expected specialist execution, got %q", agent.executedTool)
	}
	if agent.executedArgs["prompt"] != "I feel overwhelmed" {
		t.Errorf("prompt should pass through verbatim, got %v", agent.executedArgs)
	}

	// The second model call carries the tool results, not a user message
	if len(agent.requests) != 2 {
		t.Fatalf("expected 2 agent calls, got %d", len(agent.requests))
	}
	second := agent.requests[1]
	if second.Tool_Results == nil || len(*second.Tool_Results) != 1 {
		t.Fatal("second request should carry one tool result")
	}
	if (*second.Tool_Results)[0].Tool_ID != "call_1" {
		t.Errorf("tool result should keep the call ID, got %q", (*second.Tool_Results)[0].Tool_ID)
	}

	// Transcript: user, function_call, function_response, final model text
	history, _ := store.FetchHistory("sess1", 0)
	if len(history) != 4 {
		t.Fatalf("expected 4 transcript messages, got %d", len(history))
	}
	types := []string{history[0].Type, history[1].Type, history[2].Type, history[3].Type}
	expected := []string{"user_message", "function_call", "function_response", "model_message"}
	for i := range expected {
		if types[i] != expected[i] {
			t.Errorf("transcript position %d: expected %s, got %s", i, expected[i], types[i])
		}
	}
}

func TestRunInteraction_EmergencyPhonePassthrough(t *testing.T) {
	agent := &scriptedAgent{responses: []models.Model_Response{
		toolCallResponse("call_1", "call_emergency_services", map[string]interface{}{"phone": "+15551234567"}),
		textResponse("Help is on the way. Please stay on the line."),
	}}
	session, _ := newTestChatSession(agent)

	_, toolCalled, err := session.RunInteraction("I'm in danger")
	if err != nil {
		t.Fatalf("RunInteraction failed: %v", err)
	}
	if toolCalled != "call_emergency_services" {
		t.Errorf("expected emergency tool reported, got %q", toolCalled)
	}
	if agent.executedArgs["phone"] != "+15551234567" {
		t.Errorf("phone must reach the tool unchanged, got %v", agent.executedArgs)
	}
}

func TestRunInteraction_SessionContextOnEveryCall(t *testing.T) {
	agent := &scriptedAgent{responses: []models.Model_Response{
		toolCallResponse("call_1", "ask_mental_health_specialist", map[string]interface{}{"prompt": "hi"}),
		textResponse("done"),
	}}
	session, _ := newTestChatSession(agent)

	if _, _, err := session.RunInteraction("hi"); err != nil {
		t.Fatalf("RunInteraction failed: %v", err)
	}

	want := SessionContext(session.Profile)
	for i, req := range agent.requests {
		if req.Session_Context != want {
			t.Errorf("call %d: session context not carried: %q", i, req.Session_Context)
		}
	}
}

func TestGetChatHistory(t *testing.T) {
	agent := &scriptedAgent{responses: []models.Model_Response{
		textResponse("hello back"),
	}}
	session, _ := newTestChatSession(agent)

	if _, _, err := session.RunInteraction("hello"); err != nil {
		t.Fatalf("RunInteraction failed: %v", err)
	}

	history, err := session.GetChatHistory()
	if err != nil {
		t.Fatalf("GetChatHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Text != "hello" {
		t.Errorf("expected user text extracted, got %q", history[0].Text)
	}
	if history[1].Text != "hello back" {
		t.Errorf("expected model text extracted, got %q", history[1].Text)
	}
}
