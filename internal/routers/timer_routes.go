package routers

import (
	"github.com/ethanctan/ai-oa/internal/handlers"
	"github.com/ethanctan/ai-oa/internal/middleware"
	"github.com/ethanctan/ai-oa/internal/models"

	"github.com/go-chi/chi/v5"
)

// TimerRoutes are hit from inside the sandbox, so they carry no admin auth.
func TimerRoutes(router *chi.Mux, timerHandler *handlers.TimerHandler) {
	router.Route("/api/v1/timers", func(r chi.Router) {
		r.With(middleware.ValidateRequest[*models.StartTimerRequest]()).Post("/", timerHandler.StartTimerHandler)
		r.With(middleware.ValidateRequest[*models.ResetTimerRequest]()).Post("/reset", timerHandler.ResetTimerHandler)
		r.With(middleware.ValidateRequest[*models.PhaseStartedRequest]()).Post("/phase/{phase}", timerHandler.MarkPhaseStartedHandler)
		r.Get("/{instanceID}", timerHandler.GetTimerHandler)
		r.Delete("/{instanceID}", timerHandler.DeleteTimerHandler)
	})
}
