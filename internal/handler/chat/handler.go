package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/leadpilothq/chatwidget/internal/model/chat"
	"github.com/leadpilothq/chatwidget/internal/model/playbook"
	"github.com/leadpilothq/chatwidget/internal/service/agent"
	chatService "github.com/leadpilothq/chatwidget/internal/service/chat"
	"github.com/leadpilothq/chatwidget/pkg/utils"
)

// handoffTopics name the playbook topics that trigger a delayed human-
// handoff follow-up pushed over the realtime channel.
var handoffTopics = map[string]bool{
	"billing": true,
	"trouble": true,
}

const handoffFollowUp = "I've looped in a teammate. They'll join this conversation shortly."

// Handler serves the widget-facing chat API.
type Handler struct {
	chatSvc   *chatService.Service
	responder agent.Responder
	playbooks playbook.Store
	hub       *Hub
	log       zerolog.Logger

	// followUpDelay defers the handoff push so the canned reply lands first.
	followUpDelay time.Duration
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, responder agent.Responder, playbooks playbook.Store, hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		chatSvc:       chatSvc,
		responder:     responder,
		playbooks:     playbooks,
		hub:           hub,
		log:           logger.With().Str("component", "chat-handler").Logger(),
		followUpDelay: 2 * time.Second,
	}
}

// RegisterRoutes wires the request/response endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/initialize", h.handleInitialize)
	r.Post("/{sessionID}/message", h.handleMessage)
}

// handleInitialize creates a session and seeds it with the greeting.
func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Context chat.Context `json:"context"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.Context)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	greeting, err := h.chatSvc.AppendMessage(r.Context(), session.ID, chat.Message{
		Content: agent.Greeting(h.playbooks),
		Sender:  chat.SenderAgent,
		Type:    chat.TypeText,
	})
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	session.Messages = []chat.Message{greeting}
	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleMessage appends the user message, produces the agent reply and
// returns it. The reply travels on the response; the realtime channel only
// carries out-of-band pushes such as handoff follow-ups.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Content string           `json:"content"`
		Type    chat.MessageType `json:"type"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(payload.Content)
	if content == "" {
		utils.RespondError(w, http.StatusBadRequest, "content is required")
		return
	}
	if payload.Type == "" {
		payload.Type = chat.TypeText
	}
	if !payload.Type.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "invalid message type")
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	transcript, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	if _, err := h.chatSvc.AppendMessage(r.Context(), sessionID, chat.Message{
		Content: content,
		Sender:  chat.SenderUser,
		Type:    payload.Type,
	}); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	replyText, err := h.responder.Reply(r.Context(), session, transcript, content)
	if err != nil {
		h.log.Error().Err(err).Str("session", sessionID).Msg("responder failed")
		utils.RespondError(w, http.StatusBadGateway, "agent unavailable")
		return
	}

	reply, err := h.chatSvc.AppendMessage(r.Context(), sessionID, chat.Message{
		Content: replyText,
		Sender:  chat.SenderAgent,
		Type:    chat.TypeText,
	})
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.scheduleHandoff(sessionID, content)

	utils.RespondJSON(w, http.StatusOK, reply)
}

// scheduleHandoff pushes a delayed follow-up over the realtime channel for
// topics a human has to pick up. Clients without an open channel simply miss
// the push; the authoritative transcript still records it.
func (h *Handler) scheduleHandoff(sessionID, content string) {
	match := agent.Match(h.playbooks.List(), content)
	if !handoffTopics[match.Topic] {
		return
	}

	time.AfterFunc(h.followUpDelay, func() {
		followUp, err := h.chatSvc.AppendMessage(context.Background(), sessionID, chat.Message{
			Content: handoffFollowUp,
			Sender:  chat.SenderAgent,
			Type:    chat.TypeText,
		})
		if err != nil {
			if !errors.Is(err, chatService.ErrSessionNotFound) {
				h.log.Error().Err(err).Str("session", sessionID).Msg("handoff append failed")
			}
			return
		}
		if h.hub != nil {
			h.hub.Push(sessionID, followUp)
		}
	})
}
