package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/repositories"
	"github.com/ethanctan/ai-oa/internal/utils"
)

type CompanyHandler struct {
	Repo *repositories.CompanyRepository
}

// CreateCompanyHandler registers a tenant.
func (h *CompanyHandler) CreateCompanyHandler(w http.ResponseWriter, r *http.Request) {
	var company models.Company
	if err := json.NewDecoder(r.Body).Decode(&company); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request payload")
		return
	}
	if company.Name == "" {
		utils.JSONError(w, http.StatusBadRequest, "missing_name", "name is required")
		return
	}
	if err := h.Repo.CreateCompany(&company); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "create_failed", "Failed to create company")
		return
	}
	utils.JSON(w, http.StatusCreated, company)
}

// GetCompanyHandler retrieves a company by ID
func (h *CompanyHandler) GetCompanyHandler(w http.ResponseWriter, r *http.Request) {
	companyID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	company, err := h.Repo.GetCompanyByID(companyID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompanyNotFound) {
			utils.JSONError(w, http.StatusNotFound, "company_not_found", "Company not found")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "get_failed", "Failed to retrieve company")
		}
		return
	}
	utils.JSON(w, http.StatusOK, company)
}

// ListCompaniesHandler lists all tenants.
func (h *CompanyHandler) ListCompaniesHandler(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Repo.ListCompanies()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list_failed", "Failed to list companies")
		return
	}
	utils.JSON(w, http.StatusOK, companies)
}
