package stores

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
)

// MemoryStore implements MessageStore entirely in memory. It is the default
// store: a cleared or expired session leaves nothing behind, and nothing
// survives a restart.
type MemoryStore struct {
	mu       sync.Mutex
	messages map[string][]Message
	nextID   uint
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string][]Message),
	}
}

// Connect is a no-op for the in-memory store
func (s *MemoryStore) Connect() error { return nil }

// Close discards all stored transcripts
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = make(map[string][]Message)
	return nil
}

// Ping always succeeds for the in-memory store
func (s *MemoryStore) Ping() error { return nil }

// SaveMessage appends a message to the conversation transcript in insertion order
func (s *MemoryStore) SaveMessage(sessionID, role, messageType string, parts interface{}, functionID string) error {
	partsJSONBytes, err := json.Marshal(parts)
	if err != nil {
		return fmt.Errorf("failed to marshal parts for storage: %w", err)
	}
	partsJSONStr := string(partsJSONBytes)
	if parts == nil || partsJSONStr == "null" || partsJSONStr == "[]" {
		log.Printf("Warning: Saving message with empty/null parts for ConvID: %s, Role: %s, Type: %s", sessionID, role, messageType)
		partsJSONStr = "{}"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	msg := Message{
		Model:          gorm.Model{ID: s.nextID, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		ConversationID: sessionID,
		Sequence:       len(s.messages[sessionID]) + 1,
		Role:           role,
		Type:           messageType,
		PartsJSON:      partsJSONStr,
		FunctionID:     functionID,
	}
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return nil
}

// FetchHistory returns messages for a conversation in sequence order.
// limit: maximum number of messages to retrieve (0 = return all messages)
func (s *MemoryStore) FetchHistory(sessionID string, limit int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// CreateConversation initializes an empty transcript for the session
func (s *MemoryStore) CreateConversation(convoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[convoID]; !ok {
		s.messages[convoID] = []Message{}
	}
	return nil
}

// DeleteConversation removes the transcript entirely. A subsequent message
// starts a new transcript at sequence 1.
func (s *MemoryStore) DeleteConversation(convoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, convoID)
	return nil
}
