package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/avelardi/supportlens/internal/service/registry"
	"github.com/avelardi/supportlens/internal/service/relay"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Handler terminates one websocket connection per client and feeds inbound
// frames to the relay engine.
type Handler struct {
	engine   *relay.Engine
	registry *registry.Registry
	upgrader websocket.Upgrader
}

// New creates the websocket handler.
func New(engine *relay.Engine, reg *registry.Registry) *Handler {
	return &Handler{
		engine:   engine,
		registry: reg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoints. The bare /ws route issues
// a server-side conversation id, announced in the connected frame.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
	r.Get("/ws/{conversationID}", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}

	wrapped := newConn(conn)
	h.registry.Register(conversationID, wrapped)
	defer h.registry.UnregisterConn(conversationID, wrapped)

	log.Printf("[websocket] new connection for conversation=%s", conversationID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, wrapped)

	h.sendAck(wrapped, conversationID)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error conversation=%s: %v", conversationID, err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if err := h.engine.HandleFrame(ctx, conversationID, frame); err != nil {
			switch {
			case errors.Is(err, relay.ErrMalformedMessage):
				log.Printf("[websocket] dropped malformed frame conversation=%s: %v", conversationID, err)
				h.sendError(wrapped, "malformed message")
			case errors.Is(err, relay.ErrDuplicateMessage):
				log.Printf("[websocket] dropped duplicate conversation=%s: %v", conversationID, err)
			default:
				log.Printf("[websocket] relay failed conversation=%s: %v", conversationID, err)
			}
		}
	}
}

func (h *Handler) sendAck(conn *Conn, conversationID string) {
	payload := map[string]any{
		"type":           "connected",
		"conversationId": conversationID,
	}
	if err := conn.WriteJSON(payload); err != nil {
		log.Printf("[websocket] write ack failed: %v", err)
	}
}

func (h *Handler) sendError(conn *Conn, message string) {
	payload := map[string]any{
		"type":    "error",
		"message": message,
	}
	if err := conn.WriteJSON(payload); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return
			}
		}
	}
}

// Conn serializes writes to a websocket connection. Envelope broadcasts,
// error frames and pings can race, and gorilla permits one writer at a time.
type Conn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newConn(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

// WriteJSON sends v as a single JSON text frame.
func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Ping sends a keepalive control frame.
func (c *Conn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
