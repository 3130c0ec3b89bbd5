package repositories

import (
	"time"

	"github.com/ethanctan/ai-oa/internal/models"
)

// StaleAdminCandidates returns admin-test candidates created before the
// retention cutoff. These are throwaway identities admins use to preview a
// test; their rows and sandboxes are reclaimed periodically.
func StaleAdminCandidates(repo *CandidateRepository, retention time.Duration) ([]models.Candidate, error) {
	cutoff := time.Now().Add(-retention)
	var candidates []models.Candidate
	err := repo.DB.
		Where("admin_test = ? AND created_at < ?", true, cutoff).
		Find(&candidates).Error
	return candidates, err
}

// InstancesForCandidate lists instance rows owned by a candidate across all
// of their assigned tests.
func InstancesForCandidate(repo *InstanceRepository, candidateID uint) ([]models.Instance, error) {
	var instances []models.Instance
	err := repo.DB.Where("candidate_id = ?", candidateID).Find(&instances).Error
	return instances, err
}

// DeleteCandidateCascade removes a candidate together with its assignments
// and instance rows. Deletes are unscoped so the rows drop out of their
// unique indexes instead of lingering as tombstones. Callers are expected to
// have torn down any containers first.
func DeleteCandidateCascade(repo *CandidateRepository, candidateID uint) error {
	if err := repo.DB.Unscoped().Where("candidate_id = ?", candidateID).Delete(&models.Instance{}).Error; err != nil {
		return err
	}
	if err := repo.DB.Unscoped().Where("candidate_id = ?", candidateID).Delete(&models.TestCandidate{}).Error; err != nil {
		return err
	}
	return repo.DB.Unscoped().Delete(&models.Candidate{}, candidateID).Error
}
