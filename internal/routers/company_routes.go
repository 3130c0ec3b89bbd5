package routers

import (
	"net/http"

	"github.com/ethanctan/ai-oa/internal/handlers"

	"github.com/go-chi/chi/v5"
)

// CompanyRoutes keeps creation open for onboarding; reads require auth.
func CompanyRoutes(router *chi.Mux, companyHandler *handlers.CompanyHandler, auth func(http.Handler) http.Handler) {
	router.Route("/api/v1/companies", func(r chi.Router) {
		r.Post("/", companyHandler.CreateCompanyHandler)
		r.With(auth).Get("/", companyHandler.ListCompaniesHandler)
		r.With(auth).Get("/{id}", companyHandler.GetCompanyHandler)
	})
}
