package registry

import (
	"errors"
	"sync"

	"github.com/avelardi/supportlens/internal/model/chat"
)

// ErrNotConnected is returned by Send when no live connection exists for
// the conversation.
var ErrNotConnected = errors.New("no live connection for conversation")

// Conn is the duplex channel half the registry manages. *websocket.Conn
// wrappers satisfy it.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Registry maps a conversation id to its single live connection. A new
// registration for the same id replaces the previous connection; closing
// the replaced connection is the registry's job so stale handles never leak.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// New returns an empty connection registry.
func New() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register binds conn to the conversation, closing any previous connection
// registered under the same id.
func (r *Registry) Register(conversationID string, conn Conn) {
	r.mu.Lock()
	prev := r.conns[conversationID]
	r.conns[conversationID] = conn
	r.mu.Unlock()

	if prev != nil && prev != conn {
		_ = prev.Close()
	}
}

// Unregister removes and closes whatever connection is bound to the id.
// No-op when the id is absent.
func (r *Registry) Unregister(conversationID string) {
	r.mu.Lock()
	conn := r.conns[conversationID]
	delete(r.conns, conversationID)
	r.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// UnregisterConn removes the mapping only when conn is still the registered
// connection. A read loop exiting after its connection was replaced by a
// reconnect must not evict the fresh connection.
func (r *Registry) UnregisterConn(conversationID string, conn Conn) {
	r.mu.Lock()
	current, ok := r.conns[conversationID]
	if ok && current == conn {
		delete(r.conns, conversationID)
	}
	r.mu.Unlock()

	_ = conn.Close()
}

// Send writes the envelope to the conversation's live connection. The write
// happens outside the registry lock so a slow client cannot stall lookups
// for other conversations.
func (r *Registry) Send(conversationID string, envelope chat.Envelope) error {
	r.mu.RLock()
	conn, ok := r.conns[conversationID]
	r.mu.RUnlock()

	if !ok {
		return ErrNotConnected
	}
	return conn.WriteJSON(envelope)
}
