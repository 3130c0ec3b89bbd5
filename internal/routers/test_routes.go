package routers

import (
	"net/http"

	"github.com/ethanctan/ai-oa/internal/handlers"

	"github.com/go-chi/chi/v5"
)

func TestRoutes(router *chi.Mux, testHandler *handlers.TestHandler, auth func(http.Handler) http.Handler) {
	router.Route("/api/v1/tests", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", testHandler.CreateTestHandler)
		r.Get("/", testHandler.ListTestsHandler)
		r.Get("/{id}", testHandler.GetTestHandler)
		r.Put("/{id}", testHandler.UpdateTestHandler)
		r.Delete("/{id}", testHandler.DeleteTestHandler)
		r.Get("/{id}/candidates", testHandler.TestCandidatesHandler)
	})
}
