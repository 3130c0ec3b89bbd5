package routers

import (
	"net/http"

	"github.com/ethanctan/ai-oa/internal/handlers"
	"github.com/ethanctan/ai-oa/internal/middleware"
	"github.com/ethanctan/ai-oa/internal/models"

	"github.com/go-chi/chi/v5"
)

// ReportRoutes: submission comes from the sandbox extension, reads come from
// the admin dashboard.
func ReportRoutes(router *chi.Mux, reportHandler *handlers.ReportHandler, auth func(http.Handler) http.Handler) {
	router.Route("/api/v1/reports", func(r chi.Router) {
		r.With(middleware.ValidateRequest[*models.SubmitReportRequest]()).Post("/{instanceID}", reportHandler.SubmitReportHandler)
		r.With(auth).Get("/{instanceID}", reportHandler.GetReportHandler)
	})
}
