package repositories

import (
	"errors"

	"github.com/ethanctan/ai-oa/internal/models"

	"gorm.io/gorm"
)

var (
	ErrTestNotFound      = errors.New("test not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrInstanceNotFound  = errors.New("instance not found")
	ErrInstanceExists    = errors.New("instance already exists for this test and candidate")
)

// Fields accepted by InstanceRepository.Update. Everything else on the row is
// owned by Create.
var instanceUpdateAllowList = map[string]bool{
	"container_id": true,
	"port":         true,
	"access_url":   true,
	"status":       true,
	"last_error":   true,
}

type InstanceRepository struct {
	DB *gorm.DB
}

// Create validates tenant ownership of the test and candidate, then inserts a
// pending row with the sentinel container id. A row already covering the
// (test, candidate) pair yields ErrInstanceExists; the composite unique index
// backs this check when two requests race past the lookup.
func (r *InstanceRepository) Create(testID, candidateID, companyID uint) (*models.Instance, error) {
	var test models.Test
	if err := r.DB.First(&test, "id = ? AND company_id = ?", testID, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}
	var candidate models.Candidate
	if err := r.DB.First(&candidate, "id = ? AND company_id = ?", candidateID, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}

	var existing models.Instance
	err := r.DB.First(&existing, "test_id = ? AND candidate_id = ?", testID, candidateID).Error
	if err == nil {
		return &existing, ErrInstanceExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	instance := &models.Instance{
		TestID:      testID,
		CandidateID: candidateID,
		CompanyID:   companyID,
		ContainerID: models.ContainerIDPending,
		Status:      models.StatusPending,
	}
	if err := r.DB.Create(instance).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrInstanceExists
		}
		return nil, err
	}
	return instance, nil
}

// GetByPair fetches the instance for a (test, candidate) pair, if any.
func (r *InstanceRepository) GetByPair(testID, candidateID uint) (*models.Instance, error) {
	var instance models.Instance
	err := r.DB.First(&instance, "test_id = ? AND candidate_id = ?", testID, candidateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInstanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// Update applies a partial update restricted to the allow-list. companyID of
// zero skips tenant scoping (internal callers).
func (r *InstanceRepository) Update(instanceID uint, fields map[string]any, companyID uint) (*models.Instance, error) {
	for key := range fields {
		if !instanceUpdateAllowList[key] {
			return nil, errors.New("field not updatable: " + key)
		}
	}

	instance, err := r.Get(instanceID, companyID)
	if err != nil {
		return nil, err
	}
	if err := r.DB.Model(instance).Updates(fields).Error; err != nil {
		return nil, err
	}
	return instance, nil
}

// Get fetches an instance by id, scoped to companyID when non-zero.
func (r *InstanceRepository) Get(instanceID, companyID uint) (*models.Instance, error) {
	var instance models.Instance
	query := r.DB.Where("id = ?", instanceID)
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	err := query.First(&instance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInstanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// GetWithDetails joins in the test and candidate display snapshots.
func (r *InstanceRepository) GetWithDetails(instanceID, companyID uint) (*models.InstanceDetails, error) {
	instance, err := r.Get(instanceID, companyID)
	if err != nil {
		return nil, err
	}
	return r.attachDetails(instance), nil
}

// ListWithDetails returns every instance row for a company, newest first,
// including pending and degraded rows that never got a container.
func (r *InstanceRepository) ListWithDetails(companyID uint) ([]models.InstanceDetails, error) {
	var instances []models.Instance
	query := r.DB.Order("created_at DESC")
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	if err := query.Find(&instances).Error; err != nil {
		return nil, err
	}

	details := make([]models.InstanceDetails, 0, len(instances))
	for i := range instances {
		details = append(details, *r.attachDetails(&instances[i]))
	}
	return details, nil
}

func (r *InstanceRepository) attachDetails(instance *models.Instance) *models.InstanceDetails {
	d := &models.InstanceDetails{Instance: *instance}

	var test models.Test
	if err := r.DB.Select("name").First(&test, instance.TestID).Error; err == nil {
		d.TestName = test.Name
	}
	var candidate models.Candidate
	if err := r.DB.Select("name", "email").First(&candidate, instance.CandidateID).Error; err == nil {
		d.CandidateName = candidate.Name
		d.CandidateEmail = candidate.Email
	}
	return d
}

// Delete removes the row permanently. A soft delete would leave the row in
// the (test, candidate) unique index and block recreating the pair, so this
// bypasses gorm's DeletedAt handling. Scoped to companyID when non-zero.
func (r *InstanceRepository) Delete(instanceID, companyID uint) error {
	query := r.DB.Unscoped().Where("id = ?", instanceID)
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	result := query.Delete(&models.Instance{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInstanceNotFound
	}
	return nil
}

// EnsureAssignment records the test-candidate assignment if missing and bumps
// the test's assigned counter.
func (r *InstanceRepository) EnsureAssignment(testID, candidateID uint) error {
	var existing models.TestCandidate
	err := r.DB.First(&existing, "test_id = ? AND candidate_id = ?", testID, candidateID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := r.DB.Create(&models.TestCandidate{TestID: testID, CandidateID: candidateID}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	return r.DB.Model(&models.Test{}).
		Where("id = ?", testID).
		UpdateColumn("candidates_assigned", gorm.Expr("candidates_assigned + 1")).Error
}
