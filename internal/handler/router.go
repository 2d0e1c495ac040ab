package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	chatHandler "github.com/leadpilothq/chatwidget/internal/handler/chat"
	middlewarePkg "github.com/leadpilothq/chatwidget/internal/middleware"
	"github.com/leadpilothq/chatwidget/internal/model/playbook"
	"github.com/leadpilothq/chatwidget/internal/service/agent"
	chatService "github.com/leadpilothq/chatwidget/internal/service/chat"
	"github.com/leadpilothq/chatwidget/pkg/utils"
)

// NewRouter wires the widget-facing chat API.
func NewRouter(chatSvc *chatService.Service, responder agent.Responder, playbooks playbook.Store, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	hub := chatHandler.NewHub(logger)
	h := chatHandler.New(chatSvc, responder, playbooks, hub, logger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1/chat", func(api chi.Router) {
		h.RegisterRoutes(api)
		h.RegisterWebSocketRoutes(api)
	})

	return r
}
