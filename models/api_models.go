package models

import "time"

// StartSessionRequest is the payload for registering a new chat session.
type StartSessionRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// StartSessionResponse returns the generated session ID and the assistant greeting.
type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
}

// AskRequest is a single user turn sent to the agent.
type AskRequest struct {
	Message      string `json:"message" binding:"required"`
	ResponseMode string `json:"response_mode,omitempty"` // "chat" (default) or "voice"
}

// AskResponse carries the assistant reply for one turn.
type AskResponse struct {
	Response     string `json:"response"`
	ToolCalled   string `json:"tool_called"` // "None" when the model answered directly
	ResponseMode string `json:"response_mode"`
	// Audio is base64-encoded synthesized speech, present only in voice mode
	// when a TTS backend is configured.
	Audio         string `json:"audio,omitempty"`
	AudioMimeType string `json:"audio_mime_type,omitempty"`
}

// ChatMessageResponse defines the structure for messages returned by the chat history API endpoint.
// It excludes internal DB fields but includes identifiers and timestamps needed for display.
type ChatMessageResponse struct {
	ID             uint        `json:"id"`
	CreatedAt      time.Time   `json:"created_at"`
	ConversationID string      `json:"conversation_id"`
	Sequence       int         `json:"sequence"`
	Role           string      `json:"role"`                  // "user", "model"
	Type           string      `json:"type"`                  // "user_message", "model_message", "function_call", "function_response"
	FunctionID     string      `json:"function_id,omitempty"` // Associated function call ID
	Text           string      `json:"text,omitempty"`        // Primary text content, extracted from parts
	Parts          interface{} `json:"parts,omitempty"`       // Unmarshalled parts array
}
