package stores

import (
	"gorm.io/gorm"
)

// Message represents any chat message or function interaction within a session turn.
type Message struct {
	gorm.Model
	ConversationID string `gorm:"index;not null"`
	Sequence       int    `gorm:"not null"`
	Role           string `gorm:"not null"` // "user", "model"
	Type           string `gorm:"not null"` // "user_message", "model_message", "function_call", "function_response"
	// FunctionID links a function_response bundle back to its function_call bundle.
	FunctionID string `gorm:"index" json:"function_id,omitempty"`
	// PartsJSON stores the JSON marshaled array of content parts for this turn.
	// Either []models.User_Part or []models.Model_Part depending on Role/Type.
	PartsJSON string `gorm:"type:json"`
}

// Conversation holds metadata for a chat session's transcript
type Conversation struct {
	gorm.Model
	ConversationID string    `gorm:"uniqueIndex;not null"`
	MessageCount   int       `gorm:"default:0"`
	Messages       []Message `gorm:"foreignKey:ConversationID;references:ConversationID"`
}

// MessageStore abstracts transcript persistence. The default implementation is
// in-memory (session transcripts do not survive a restart); SQLite and
// PostgreSQL stores are available for deployments that want durable history.
type MessageStore interface {
	// Message operations
	SaveMessage(sessionID, role, messageType string, parts interface{}, functionID string) error
	FetchHistory(sessionID string, limit int) ([]Message, error)

	// Conversation operations
	CreateConversation(convoID string) error
	DeleteConversation(convoID string) error

	// Connection management
	Connect() error
	Close() error

	// Health check
	Ping() error
}

// StoreConfig holds configuration for transcript stores
type StoreConfig struct {
	Type       string            `json:"type"`       // "memory", "sqlite", "postgres"
	Connection string            `json:"connection"` // connection string (unused for memory)
	Options    map[string]string `json:"options"`    // additional options
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{
		Type:       storeType,
		Connection: connection,
		Options:    make(map[string]string),
	}
}

// WithOption adds an option to the store configuration
func (c *StoreConfig) WithOption(key, value string) *StoreConfig {
	c.Options[key] = value
	return c
}
