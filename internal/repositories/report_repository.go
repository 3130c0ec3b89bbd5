package repositories

import (
	"errors"

	"github.com/ethanctan/ai-oa/internal/models"

	"gorm.io/gorm"
)

var ErrReportNotFound = errors.New("report not found")

type ReportRepository struct {
	DB *gorm.DB
}

func (r *ReportRepository) GetByInstance(instanceID uint) (*models.Report, error) {
	var report models.Report
	err := r.DB.First(&report, "instance_id = ?", instanceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReportNotFound
	}
	return &report, err
}

// Upsert stores the report for an instance, overwriting any previous content.
func (r *ReportRepository) Upsert(instanceID uint, content, modelName string) (*models.Report, error) {
	var report models.Report
	err := r.DB.First(&report, "instance_id = ?", instanceID).Error
	switch {
	case err == nil:
		report.Content = content
		report.ModelName = modelName
		if err := r.DB.Save(&report).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		report = models.Report{InstanceID: instanceID, Content: content, ModelName: modelName}
		if err := r.DB.Create(&report).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return &report, nil
}
