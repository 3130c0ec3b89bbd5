package models

import "gorm.io/gorm"

// Report is the AI-generated evaluation of a candidate's instance. One report
// per instance; regenerating overwrites the content.
type Report struct {
	gorm.Model
	InstanceID uint   `gorm:"uniqueIndex;not null" json:"instance_id"`
	Content    string `gorm:"type:text" json:"content"`
	ModelName  string `json:"model_name"`
}
