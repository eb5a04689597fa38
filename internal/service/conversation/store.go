package conversation

import (
	"strings"
	"sync"

	"github.com/avelardi/supportlens/internal/model/chat"
)

// Store keeps the append-only message history for every conversation.
// Histories live for the process lifetime unless explicitly evicted.
type Store struct {
	mu        sync.RWMutex
	histories map[string][]chat.Message
	seen      map[string]map[string]struct{}
}

// NewStore bootstraps the in-memory conversation store.
func NewStore() *Store {
	return &Store{
		histories: make(map[string][]chat.Message),
		seen:      make(map[string]map[string]struct{}),
	}
}

// Append adds a message to the conversation's history. The first append for
// an unseen conversation creates it. A message whose ID already exists in
// that history is rejected, which makes retries idempotent.
func (s *Store) Append(conversationID string, msg chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.seen[conversationID]
	if !ok {
		ids = make(map[string]struct{})
		s.seen[conversationID] = ids
		s.histories[conversationID] = make([]chat.Message, 0, 16)
	}

	if _, dup := ids[msg.ID]; dup {
		return false
	}

	ids[msg.ID] = struct{}{}
	s.histories[conversationID] = append(s.histories[conversationID], msg)
	return true
}

// History returns a copy of the stored messages in insertion order.
func (s *Store) History(conversationID string) []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.histories[conversationID]
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied
}

// Transcript renders the full history as role-labeled lines for the
// analysis model. Rendering is pure; it never mutates the history.
func (s *Store) Transcript(conversationID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.histories[conversationID]
	var builder strings.Builder
	for i, msg := range messages {
		builder.WriteString(msg.Role.Label())
		builder.WriteString(": ")
		builder.WriteString(msg.Content)
		if i < len(messages)-1 {
			builder.WriteString("\n")
		}
	}
	return builder.String()
}

// Evict drops a conversation's history. Hook for an external idle-eviction
// policy; safe to call for unknown ids.
func (s *Store) Evict(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, conversationID)
	delete(s.seen, conversationID)
}
