package sessions

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/safespace-ai/safespace/models"
	"github.com/safespace-ai/safespace/stores"
)

// AgentInterface defines the interface that agents must implement
type AgentInterface interface {
	Run(request models.Model_Request, history []stores.Message) (models.Model_Response, error)
	Run_Stream(request models.Model_Request, history []stores.Message) (<-chan models.Model_Response, <-chan error)
	ExecuteTool(name string, args map[string]interface{}, sessionID string) (string, error)
	ApproveTool(name string, args map[string]interface{}) (bool, error)
}

// AgentError represents errors that can occur during agent operations
type AgentError struct {
	Message string
	Fatal   bool
}

func (e *AgentError) Error() string {
	return e.Message
}

// Profile holds the user-provided session context: display name and the phone
// number injected verbatim into emergency tool calls.
type Profile struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
	LastSeen  time.Time
}

// ChatSession handles HTTP-based chat interactions for one session
type ChatSession struct {
	Agent   AgentInterface
	Profile *Profile
	Store   stores.MessageStore
	Logger  *log.Logger
}

// WebSocketWriter handles all WebSocket communication
type WebSocketWriter struct {
	Conn   *websocket.Conn
	Logger *log.Logger
	mu     sync.Mutex
}

func (w *WebSocketWriter) WriteResponse(resp interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(resp)
}

func (w *WebSocketWriter) WriteError(message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(map[string]string{"error": message})
}

func (w *WebSocketWriter) WriteDone(toolCalled string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(map[string]string{"type": "done", "tool_called": toolCalled})
}

// AgentSession encapsulates WebSocket agent interaction logic
type AgentSession struct {
	Agent   AgentInterface
	Profile *Profile
	Writer  *WebSocketWriter
	Store   stores.MessageStore
	Logger  *log.Logger
	History []stores.Message
}
