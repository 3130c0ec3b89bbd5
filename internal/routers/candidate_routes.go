package routers

import (
	"net/http"

	"github.com/ethanctan/ai-oa/internal/handlers"

	"github.com/go-chi/chi/v5"
)

func CandidateRoutes(router *chi.Mux, candidateHandler *handlers.CandidateHandler, auth func(http.Handler) http.Handler) {
	router.Route("/api/v1/candidates", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", candidateHandler.CreateCandidateHandler)
		r.Get("/", candidateHandler.ListCandidatesHandler)
		r.Get("/{id}", candidateHandler.GetCandidateHandler)
		r.Put("/{id}", candidateHandler.UpdateCandidateHandler)
		r.Delete("/{id}", candidateHandler.DeleteCandidateHandler)
	})
}
