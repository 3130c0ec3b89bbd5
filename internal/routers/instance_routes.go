package routers

import (
	"net/http"

	"github.com/ethanctan/ai-oa/internal/handlers"
	"github.com/ethanctan/ai-oa/internal/middleware"
	"github.com/ethanctan/ai-oa/internal/models"

	"github.com/go-chi/chi/v5"
)

func InstanceRoutes(router *chi.Mux, instanceHandler *handlers.InstanceHandler, auth func(http.Handler) http.Handler) {
	router.Route("/api/v1/instances", func(r chi.Router) {
		r.Use(auth)
		r.With(middleware.ValidateRequest[*models.CreateInstanceRequest]()).Post("/", instanceHandler.CreateInstanceHandler)
		r.Get("/", instanceHandler.ListInstancesHandler)
		r.Get("/{id}", instanceHandler.GetInstanceHandler)
		r.Post("/{id}/stop", instanceHandler.StopInstanceHandler)
		r.Delete("/{id}", instanceHandler.DeleteInstanceHandler)
	})
}
