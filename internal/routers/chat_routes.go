package routers

import (
	"github.com/ethanctan/ai-oa/internal/handlers"
	"github.com/ethanctan/ai-oa/internal/middleware"
	"github.com/ethanctan/ai-oa/internal/models"

	"github.com/go-chi/chi/v5"
)

// ChatRoutes are hit from inside the sandbox, so they carry no admin auth.
func ChatRoutes(router *chi.Mux, chatHandler *handlers.ChatHandler) {
	router.Route("/api/v1/chat", func(r chi.Router) {
		r.With(middleware.ValidateRequest[*models.ChatMessageRequest]()).Post("/messages", chatHandler.SendMessageHandler)
		r.Get("/{instanceID}/history", chatHandler.HistoryHandler)
		r.Delete("/{instanceID}/history", chatHandler.ClearHistoryHandler)
	})
}
