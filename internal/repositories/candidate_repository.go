package repositories

import (
	"errors"

	"github.com/ethanctan/ai-oa/internal/models"

	"gorm.io/gorm"
)

type CandidateRepository struct {
	DB *gorm.DB
}

func (r *CandidateRepository) CreateCandidate(candidate *models.Candidate) error {
	return r.DB.Create(candidate).Error
}

func (r *CandidateRepository) GetCandidateByID(candidateID, companyID uint) (*models.Candidate, error) {
	var candidate models.Candidate
	query := r.DB.Where("id = ?", candidateID)
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	err := query.First(&candidate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCandidateNotFound
	}
	return &candidate, err
}

func (r *CandidateRepository) GetCandidateByEmail(email string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := r.DB.First(&candidate, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCandidateNotFound
	}
	return &candidate, err
}

func (r *CandidateRepository) ListCandidates(companyID uint) ([]models.Candidate, error) {
	var candidates []models.Candidate
	query := r.DB.Order("created_at DESC")
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	err := query.Find(&candidates).Error
	return candidates, err
}

func (r *CandidateRepository) UpdateCandidate(candidateID, companyID uint, updates *models.Candidate) (*models.Candidate, error) {
	candidate, err := r.GetCandidateByID(candidateID, companyID)
	if err != nil {
		return nil, err
	}
	if err := r.DB.Model(candidate).Updates(updates).Error; err != nil {
		return nil, err
	}
	return candidate, nil
}

func (r *CandidateRepository) DeleteCandidate(candidateID, companyID uint) error {
	query := r.DB.Where("id = ?", candidateID)
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	result := query.Delete(&models.Candidate{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

// MarkCompleted flags both the candidate and the test assignment as done and
// bumps the test's completed counter.
func (r *CandidateRepository) MarkCompleted(testID, candidateID uint) error {
	if err := r.DB.Model(&models.Candidate{}).
		Where("id = ?", candidateID).
		Update("completed", true).Error; err != nil {
		return err
	}
	result := r.DB.Model(&models.TestCandidate{}).
		Where("test_id = ? AND candidate_id = ? AND completed = ?", testID, candidateID, false).
		Update("completed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return r.DB.Model(&models.Test{}).
			Where("id = ?", testID).
			UpdateColumn("candidates_completed", gorm.Expr("candidates_completed + 1")).Error
	}
	return nil
}
