package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/leadpilothq/chatwidget/pkg/utils"
)

// notice is an out-of-band frame: connection status, pong replies, errors.
// Chat messages are pushed as plain message objects instead, so clients can
// classify frames by the presence of a sender field.
type notice struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func newNotice(kind, sessionID, message string) notice {
	return notice{
		Type:      kind,
		SessionID: sessionID,
		Message:   message,
		Timestamp: time.Now().Unix(),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// RegisterWebSocketRoutes wires the realtime push endpoint.
func (h *Handler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// handleWebSocket upgrades the connection, parks it in the hub and serves
// pings until the client goes away. All pushes flow through the hub so a
// replacement connection cleanly evicts this one.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.hub.Register(sessionID, conn)
	defer func() {
		h.hub.Remove(sessionID, conn)
		conn.Close()
	}()

	h.log.Info().Str("session", sessionID).Msg("realtime channel opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.hub.Push(sessionID, newNotice("connected", sessionID, ""))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Debug().Err(err).Str("session", sessionID).Msg("read error")
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var frame struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			h.hub.Push(sessionID, newNotice("error", sessionID, "invalid frame"))
			continue
		}

		switch frame.Type {
		case "ping":
			h.hub.Push(sessionID, newNotice("pong", sessionID, ""))
		default:
			// The channel is a push enhancement; client frames other than
			// ping are ignored.
		}
	}
}

// pingLoop keeps the connection alive with protocol-level pings.
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
