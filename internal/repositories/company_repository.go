package repositories

import (
	"errors"

	"github.com/ethanctan/ai-oa/internal/models"

	"gorm.io/gorm"
)

var ErrCompanyNotFound = errors.New("company not found")

type CompanyRepository struct {
	DB *gorm.DB
}

func (r *CompanyRepository) CreateCompany(company *models.Company) error {
	return r.DB.Create(company).Error
}

func (r *CompanyRepository) GetCompanyByID(companyID uint) (*models.Company, error) {
	var company models.Company
	err := r.DB.First(&company, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCompanyNotFound
	}
	return &company, err
}

func (r *CompanyRepository) ListCompanies() ([]models.Company, error) {
	var companies []models.Company
	err := r.DB.Order("created_at ASC").Find(&companies).Error
	return companies, err
}
