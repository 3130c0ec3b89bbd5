package handlers

import (
	"errors"
	"net/http"

	"github.com/ethanctan/ai-oa/internal/middleware"
	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/timers"
	"github.com/ethanctan/ai-oa/internal/utils"

	"github.com/go-chi/chi/v5"
)

type TimerHandler struct {
	Timers *timers.Store
}

// StartTimerHandler creates or replaces the countdown for an instance. A
// disabled timer (enableTimer=false or duration 0) still creates a record so
// status reads do not 404.
func (h *TimerHandler) StartTimerHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.StartTimerRequest](r)

	duration := req.Duration
	if req.EnableTimer != nil && !*req.EnableTimer {
		duration = 0
	}
	state, err := h.Timers.Start(r.Context(), req.InstanceID, duration, req.TimerType)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "timer_start_failed", "Failed to start timer")
		return
	}
	utils.JSON(w, http.StatusOK, state)
}

// GetTimerHandler reports the countdown for an instance.
func (h *TimerHandler) GetTimerHandler(w http.ResponseWriter, r *http.Request) {
	instanceID, ok := idParam(w, r, "instanceID")
	if !ok {
		return
	}
	state, err := h.Timers.Status(r.Context(), instanceID)
	if err != nil {
		if errors.Is(err, timers.ErrTimerNotFound) {
			utils.JSONError(w, http.StatusNotFound, "timer_not_found", "No timer for this instance")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "timer_status_failed", "Failed to read timer")
		}
		return
	}
	utils.JSON(w, http.StatusOK, state)
}

// ResetTimerHandler restarts the countdown window from now, optionally
// switching phase. Phase-started flags survive the reset.
func (h *TimerHandler) ResetTimerHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.ResetTimerRequest](r)

	state, err := h.Timers.Reset(r.Context(), req.InstanceID, req.Duration, req.TimerType)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "timer_reset_failed", "Failed to reset timer")
		return
	}
	utils.JSON(w, http.StatusOK, state)
}

// MarkPhaseStartedHandler flips the started flag for the phase named in the
// URL.
func (h *TimerHandler) MarkPhaseStartedHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.PhaseStartedRequest](r)
	phase := chi.URLParam(r, "phase")
	if !models.ValidPhase(phase) {
		utils.JSONError(w, http.StatusBadRequest, "invalid_timer_type", "phase must be one of: initial, project, final")
		return
	}

	started := true
	if req.Started != nil {
		started = *req.Started
	}
	state, err := h.Timers.MarkPhaseStarted(r.Context(), req.InstanceID, phase, started)
	if err != nil {
		if errors.Is(err, timers.ErrTimerNotFound) {
			utils.JSONError(w, http.StatusNotFound, "timer_not_found", "No timer for this instance")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "timer_update_failed", "Failed to update timer")
		}
		return
	}
	utils.JSON(w, http.StatusOK, state)
}

// DeleteTimerHandler removes the countdown, e.g. before re-provisioning.
func (h *TimerHandler) DeleteTimerHandler(w http.ResponseWriter, r *http.Request) {
	instanceID, ok := idParam(w, r, "instanceID")
	if !ok {
		return
	}
	existed, err := h.Timers.Delete(r.Context(), instanceID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "timer_delete_failed", "Failed to delete timer")
		return
	}
	message := "deleted"
	if !existed {
		message = "no timer"
	}
	utils.JSON(w, http.StatusOK, models.OperationResult{Success: true, Message: message})
}
