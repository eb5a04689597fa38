package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/avelardi/supportlens/internal/model/chat"
	"github.com/avelardi/supportlens/internal/service/analysis"
	"github.com/avelardi/supportlens/internal/service/conversation"
	"github.com/avelardi/supportlens/internal/service/registry"
)

var (
	// ErrMalformedMessage marks inbound frames that fail to parse or are
	// missing required fields. The frame is dropped without touching history.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrDuplicateMessage marks a message id already present in the
	// conversation. Duplicates produce no new envelope.
	ErrDuplicateMessage = errors.New("duplicate message")
)

// Engine orchestrates the relay path: append the message, enrich it with
// sentiment analysis, and push the envelope to the conversation's live
// connection.
type Engine struct {
	store    *conversation.Store
	registry *registry.Registry
	analyzer analysis.Analyzer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine wires the relay to its owned stores and the analysis port.
func NewEngine(store *conversation.Store, reg *registry.Registry, analyzer analysis.Analyzer) *Engine {
	return &Engine{
		store:    store,
		registry: reg,
		analyzer: analyzer,
		locks:    make(map[string]*sync.Mutex),
	}
}

// HandleFrame processes one inbound text frame for a conversation.
// Exactly one envelope is emitted per accepted message; the analysis step
// runs before the next message of the same conversation is processed, so
// envelope order matches acceptance order. Different conversations proceed
// concurrently.
func (e *Engine) HandleFrame(ctx context.Context, conversationID string, frame []byte) error {
	msg, err := chat.ParseMessage(frame)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	lock := e.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	if !e.store.Append(conversationID, msg) {
		return fmt.Errorf("%w: id %s", ErrDuplicateMessage, msg.ID)
	}

	transcript := e.store.Transcript(conversationID)
	sentiment, suggestions := e.analyzer.Analyze(ctx, transcript)

	envelope := chat.Envelope{
		Message:     msg,
		Sentiment:   sentiment,
		Suggestions: suggestions,
	}

	if err := e.registry.Send(conversationID, envelope); err != nil {
		if errors.Is(err, registry.ErrNotConnected) {
			// History keeps the message; only the envelope is lost.
			log.Printf("[relay] envelope discarded, no live connection for conversation=%s", conversationID)
			return nil
		}
		return fmt.Errorf("send envelope: %w", err)
	}

	return nil
}

// Evict drops a conversation's history together with its serialization
// lock. Entry point for an external idle-eviction policy; without it the
// per-conversation mutexes would outlive their evicted histories.
func (e *Engine) Evict(conversationID string) {
	lock := e.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	e.store.Evict(conversationID)

	e.mu.Lock()
	delete(e.locks, conversationID)
	e.mu.Unlock()
}

// lockFor returns the per-conversation mutex, creating it on first use.
// The guard section stays minimal; the analysis call never runs under e.mu.
func (e *Engine) lockFor(conversationID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.locks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[conversationID] = lock
	}
	return lock
}
