package repositories

import (
	"errors"

	"github.com/ethanctan/ai-oa/internal/models"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func (r *TestRepository) CreateTest(test *models.Test) error {
	return r.DB.Create(test).Error
}

func (r *TestRepository) GetTestByID(testID, companyID uint) (*models.Test, error) {
	var test models.Test
	query := r.DB.Where("id = ?", testID)
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	err := query.First(&test).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTestNotFound
	}
	return &test, err
}

func (r *TestRepository) ListTests(companyID uint) ([]models.Test, error) {
	var tests []models.Test
	query := r.DB.Order("created_at DESC")
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	err := query.Find(&tests).Error
	return tests, err
}

func (r *TestRepository) UpdateTest(testID, companyID uint, updates *models.Test) (*models.Test, error) {
	test, err := r.GetTestByID(testID, companyID)
	if err != nil {
		return nil, err
	}
	if err := r.DB.Model(test).Updates(updates).Error; err != nil {
		return nil, err
	}
	return test, nil
}

func (r *TestRepository) DeleteTest(testID, companyID uint) error {
	query := r.DB.Where("id = ?", testID)
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	result := query.Delete(&models.Test{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTestNotFound
	}
	return nil
}

// AssignedCandidates lists the candidates assigned to a test.
func (r *TestRepository) AssignedCandidates(testID uint) ([]models.Candidate, error) {
	var candidates []models.Candidate
	err := r.DB.
		Joins("JOIN test_candidates ON test_candidates.candidate_id = candidates.id").
		Where("test_candidates.test_id = ? AND test_candidates.deleted_at IS NULL", testID).
		Find(&candidates).Error
	return candidates, err
}
