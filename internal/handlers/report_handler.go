package handlers

import (
	"errors"
	"net/http"

	"github.com/ethanctan/ai-oa/internal/middleware"
	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/reports"
	"github.com/ethanctan/ai-oa/internal/repositories"
	"github.com/ethanctan/ai-oa/internal/utils"
)

type ReportHandler struct {
	Service *reports.Service
}

// SubmitReportHandler generates the evaluation report from a submitted
// workspace. Resubmission replaces the previous report.
func (h *ReportHandler) SubmitReportHandler(w http.ResponseWriter, r *http.Request) {
	instanceID, ok := idParam(w, r, "instanceID")
	if !ok {
		return
	}
	req := middleware.GetValidatedRequest[*models.SubmitReportRequest](r)

	report, err := h.Service.Generate(r.Context(), instanceID, req.Workspace)
	if err != nil {
		if errors.Is(err, repositories.ErrInstanceNotFound) {
			utils.JSONError(w, http.StatusNotFound, "instance_not_found", "Instance not found")
		} else {
			utils.JSONError(w, http.StatusBadGateway, "report_failed", "Failed to generate report")
		}
		return
	}
	utils.JSON(w, http.StatusCreated, report)
}

// GetReportHandler returns the stored report for an instance.
func (h *ReportHandler) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	instanceID, ok := idParam(w, r, "instanceID")
	if !ok {
		return
	}
	report, err := h.Service.Get(instanceID)
	if err != nil {
		if errors.Is(err, repositories.ErrReportNotFound) {
			utils.JSONError(w, http.StatusNotFound, "report_not_found", "No report for this instance")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "get_failed", "Failed to retrieve report")
		}
		return
	}
	utils.JSON(w, http.StatusOK, report)
}
