package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethanctan/ai-oa/internal/middleware"
	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/repositories"
	"github.com/ethanctan/ai-oa/internal/utils"
)

type TestHandler struct {
	Repo *repositories.TestRepository
}

// CreateTestHandler creates an assessment definition for the caller's
// company.
func (h *TestHandler) CreateTestHandler(w http.ResponseWriter, r *http.Request) {
	var test models.Test
	if err := json.NewDecoder(r.Body).Decode(&test); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request payload")
		return
	}
	if test.Name == "" {
		utils.JSONError(w, http.StatusBadRequest, "missing_name", "name is required")
		return
	}
	test.CompanyID = middleware.CompanyID(r)

	if err := h.Repo.CreateTest(&test); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "create_failed", "Failed to create test")
		return
	}
	utils.JSON(w, http.StatusCreated, test)
}

// GetTestHandler retrieves a test by ID
func (h *TestHandler) GetTestHandler(w http.ResponseWriter, r *http.Request) {
	testID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	test, err := h.Repo.GetTestByID(testID, middleware.CompanyID(r))
	if err != nil {
		if errors.Is(err, repositories.ErrTestNotFound) {
			utils.JSONError(w, http.StatusNotFound, "test_not_found", "Test not found")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "get_failed", "Failed to retrieve test")
		}
		return
	}
	utils.JSON(w, http.StatusOK, test)
}

// ListTestsHandler lists the company's tests.
func (h *TestHandler) ListTestsHandler(w http.ResponseWriter, r *http.Request) {
	tests, err := h.Repo.ListTests(middleware.CompanyID(r))
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list_failed", "Failed to list tests")
		return
	}
	utils.JSON(w, http.StatusOK, tests)
}

// UpdateTestHandler updates test details
func (h *TestHandler) UpdateTestHandler(w http.ResponseWriter, r *http.Request) {
	testID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var updates models.Test
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request payload")
		return
	}

	test, err := h.Repo.UpdateTest(testID, middleware.CompanyID(r), &updates)
	if err != nil {
		if errors.Is(err, repositories.ErrTestNotFound) {
			utils.JSONError(w, http.StatusNotFound, "test_not_found", "Test not found")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "update_failed", "Failed to update test")
		}
		return
	}
	utils.JSON(w, http.StatusOK, test)
}

// DeleteTestHandler deletes a test by ID
func (h *TestHandler) DeleteTestHandler(w http.ResponseWriter, r *http.Request) {
	testID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Repo.DeleteTest(testID, middleware.CompanyID(r)); err != nil {
		if errors.Is(err, repositories.ErrTestNotFound) {
			utils.JSONError(w, http.StatusNotFound, "test_not_found", "Test not found")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "delete_failed", "Failed to delete test")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestCandidatesHandler lists candidates assigned to a test.
func (h *TestHandler) TestCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	testID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.Repo.GetTestByID(testID, middleware.CompanyID(r)); err != nil {
		if errors.Is(err, repositories.ErrTestNotFound) {
			utils.JSONError(w, http.StatusNotFound, "test_not_found", "Test not found")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "get_failed", "Failed to retrieve test")
		}
		return
	}
	candidates, err := h.Repo.AssignedCandidates(testID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list_failed", "Failed to list assigned candidates")
		return
	}
	utils.JSON(w, http.StatusOK, candidates)
}
