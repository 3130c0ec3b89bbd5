package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ethanctan/ai-oa/internal/middleware"
	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/repositories"
	"github.com/ethanctan/ai-oa/internal/utils"

	"github.com/google/uuid"
)

type CandidateHandler struct {
	Repo *repositories.CandidateRepository
}

// CreateCandidateHandler registers a candidate for the caller's company.
func (h *CandidateHandler) CreateCandidateHandler(w http.ResponseWriter, r *http.Request) {
	var candidate models.Candidate
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request payload")
		return
	}
	if candidate.Email == "" {
		// admin preview candidates are throwaway identities; mint one
		if candidate.AdminTest {
			candidate.Email = fmt.Sprintf("admin-preview-%s@internal.invalid", uuid.NewString())
			if candidate.Name == "" {
				candidate.Name = "Admin Preview"
			}
		} else {
			utils.JSONError(w, http.StatusBadRequest, "missing_email", "email is required")
			return
		}
	}
	candidate.CompanyID = middleware.CompanyID(r)

	if err := h.Repo.CreateCandidate(&candidate); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "create_failed", "Failed to create candidate")
		return
	}
	utils.JSON(w, http.StatusCreated, candidate)
}

// GetCandidateHandler retrieves a candidate by ID
func (h *CandidateHandler) GetCandidateHandler(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	candidate, err := h.Repo.GetCandidateByID(candidateID, middleware.CompanyID(r))
	if err != nil {
		if errors.Is(err, repositories.ErrCandidateNotFound) {
			utils.JSONError(w, http.StatusNotFound, "candidate_not_found", "Candidate not found")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "get_failed", "Failed to retrieve candidate")
		}
		return
	}
	utils.JSON(w, http.StatusOK, candidate)
}

// ListCandidatesHandler lists the company's candidates.
func (h *CandidateHandler) ListCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.Repo.ListCandidates(middleware.CompanyID(r))
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list_failed", "Failed to list candidates")
		return
	}
	utils.JSON(w, http.StatusOK, candidates)
}

// UpdateCandidateHandler updates candidate details
func (h *CandidateHandler) UpdateCandidateHandler(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var updates models.Candidate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request payload")
		return
	}

	candidate, err := h.Repo.UpdateCandidate(candidateID, middleware.CompanyID(r), &updates)
	if err != nil {
		if errors.Is(err, repositories.ErrCandidateNotFound) {
			utils.JSONError(w, http.StatusNotFound, "candidate_not_found", "Candidate not found")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "update_failed", "Failed to update candidate")
		}
		return
	}
	utils.JSON(w, http.StatusOK, candidate)
}

// DeleteCandidateHandler deletes a candidate by ID
func (h *CandidateHandler) DeleteCandidateHandler(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Repo.DeleteCandidate(candidateID, middleware.CompanyID(r)); err != nil {
		if errors.Is(err, repositories.ErrCandidateNotFound) {
			utils.JSONError(w, http.StatusNotFound, "candidate_not_found", "Candidate not found")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "delete_failed", "Failed to delete candidate")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
