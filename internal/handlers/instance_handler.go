package handlers

import (
	"errors"
	"net/http"

	"github.com/ethanctan/ai-oa/internal/middleware"
	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/orchestrator"
	"github.com/ethanctan/ai-oa/internal/repositories"
	"github.com/ethanctan/ai-oa/internal/utils"
)

type InstanceHandler struct {
	Orchestrator *orchestrator.Orchestrator
}

// CreateInstanceHandler provisions a sandbox for a (test, candidate) pair.
// Provisioning failures still leave a degraded row behind, which is returned
// with the error so the caller can retry the same pair.
func (h *InstanceHandler) CreateInstanceHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.CreateInstanceRequest](r)
	companyID := middleware.CompanyID(r)

	instance, err := h.Orchestrator.CreateInstance(r.Context(), req.TestID, req.CandidateID, companyID)
	if err != nil {
		switch orchestrator.KindOf(err) {
		case orchestrator.KindValidation:
			utils.JSONError(w, http.StatusNotFound, "unknown_reference", err.Error())
		case orchestrator.KindConflict:
			utils.JSON(w, http.StatusConflict, map[string]any{
				"error":    "instance already exists for this test and candidate",
				"instance": instance,
			})
		default:
			utils.JSON(w, http.StatusBadGateway, map[string]any{
				"error":    err.Error(),
				"instance": instance,
			})
		}
		return
	}

	utils.JSON(w, http.StatusCreated, instance)
}

// ListInstancesHandler returns the company's instances with live container
// state merged in.
func (h *InstanceHandler) ListInstancesHandler(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.CompanyID(r)
	entries, err := h.Orchestrator.ListInstances(r.Context(), companyID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list_failed", "Failed to list instances")
		return
	}
	utils.JSON(w, http.StatusOK, entries)
}

// GetInstanceHandler returns one instance with joined test and candidate
// details.
func (h *InstanceHandler) GetInstanceHandler(w http.ResponseWriter, r *http.Request) {
	instanceID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	details, err := h.Orchestrator.GetInstance(instanceID, middleware.CompanyID(r))
	if err != nil {
		if orchestrator.KindOf(err) == orchestrator.KindNotFound {
			utils.JSONError(w, http.StatusNotFound, "instance_not_found", "Instance not found")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "get_failed", "Failed to retrieve instance")
		}
		return
	}
	utils.JSON(w, http.StatusOK, details)
}

// StopInstanceHandler stops the instance's container. Stopping twice, or
// stopping an instance whose container was removed externally, succeeds.
func (h *InstanceHandler) StopInstanceHandler(w http.ResponseWriter, r *http.Request) {
	instanceID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.Orchestrator.StopInstance(r.Context(), instanceID, middleware.CompanyID(r))
	if err != nil {
		if orchestrator.KindOf(err) == orchestrator.KindNotFound {
			utils.JSONError(w, http.StatusNotFound, "instance_not_found", "Instance not found")
		} else {
			utils.JSONError(w, http.StatusBadGateway, "stop_failed", err.Error())
		}
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

// DeleteInstanceHandler tears down the container and removes the row.
func (h *InstanceHandler) DeleteInstanceHandler(w http.ResponseWriter, r *http.Request) {
	instanceID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Orchestrator.DeleteInstance(r.Context(), instanceID, middleware.CompanyID(r)); err != nil {
		if orchestrator.KindOf(err) == orchestrator.KindNotFound ||
			errors.Is(err, repositories.ErrInstanceNotFound) {
			utils.JSONError(w, http.StatusNotFound, "instance_not_found", "Instance not found")
		} else {
			utils.JSONError(w, http.StatusBadGateway, "delete_failed", err.Error())
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
