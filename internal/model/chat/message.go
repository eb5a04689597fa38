package chat

import (
	"encoding/json"
	"fmt"
)

// Role identifies which side of the conversation authored a message.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
)

// Valid reports whether the role is one of the two supported sides.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAgent
}

// Label returns the transcript label for the role.
func (r Role) Label() string {
	if r == RoleAgent {
		return "Agent"
	}
	return "Customer"
}

// Message is a single chat turn. Messages are immutable once created and
// deduplicated by ID within a conversation.
type Message struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Validate checks that all wire-required fields are present.
func (m Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("message id is required")
	}
	if !m.Role.Valid() {
		return fmt.Errorf("invalid role %q", m.Role)
	}
	if m.Content == "" {
		return fmt.Errorf("message content is required")
	}
	if m.Timestamp == "" {
		return fmt.Errorf("message timestamp is required")
	}
	return nil
}

// ParseMessage decodes and validates an inbound text frame.
func ParseMessage(frame []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message frame: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}
