package sessions

import (
	"fmt"
	"log"
	"os"

	"github.com/gorilla/websocket"

	"github.com/safespace-ai/safespace/stores"
)

// NewChatSession creates a new HTTP chat session
func NewChatSession(profile *Profile, agent AgentInterface, store stores.MessageStore) *ChatSession {
	logger := log.New(os.Stdout, fmt.Sprintf("[HTTP %s] ", profile.ID), log.LstdFlags)

	return &ChatSession{
		Agent:   agent,
		Profile: profile,
		Store:   store,
		Logger:  logger,
	}
}

// NewAgentSession creates a new WebSocket agent session
func NewAgentSession(profile *Profile, conn *websocket.Conn, agent AgentInterface, store stores.MessageStore) *AgentSession {
	logger := log.New(os.Stdout, fmt.Sprintf("[WS %s] ", profile.ID), log.LstdFlags)
	writer := &WebSocketWriter{
		Conn:   conn,
		Logger: logger,
	}

	return &AgentSession{
		Agent:   agent,
		Profile: profile,
		Writer:  writer,
		Store:   store,
		Logger:  logger,
	}
}
