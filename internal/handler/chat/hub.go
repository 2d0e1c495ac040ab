package chat

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub tracks the single live websocket connection per session. Registering a
// new connection for a session closes the previous one, so at most one
// realtime channel exists per session at a time.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
	log   zerolog.Logger
}

// NewHub creates an empty connection registry.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		conns: make(map[string]*websocket.Conn),
		log:   logger.With().Str("component", "ws-hub").Logger(),
	}
}

// Register stores the connection for a session, closing any previous one.
func (h *Hub) Register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.conns[sessionID]; ok {
		old.Close()
	}
	h.conns[sessionID] = conn
}

// Remove drops the connection for a session, but only if it is still the
// registered one; a replacement connection must not be removed by the
// goroutine cleaning up its predecessor.
func (h *Hub) Remove(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.conns[sessionID]; ok && current == conn {
		delete(h.conns, sessionID)
	}
}

// Push writes a JSON frame to the session's connection, if one is
// registered. Writes are serialized through the hub lock. Returns false when
// no connection exists or the write failed.
func (h *Hub) Push(sessionID string, payload interface{}) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[sessionID]
	if !ok {
		return false
	}
	if err := conn.WriteJSON(payload); err != nil {
		h.log.Debug().Err(err).Str("session", sessionID).Msg("push failed")
		conn.Close()
		delete(h.conns, sessionID)
		return false
	}
	return true
}

// CloseAll closes every registered connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sessionID, conn := range h.conns {
		conn.Close()
		delete(h.conns, sessionID)
	}
}
