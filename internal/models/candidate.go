package models

import "gorm.io/gorm"

// Candidate represents a person taking assessments for a company.
type Candidate struct {
	gorm.Model
	Name      string `gorm:"not null" json:"name"`
	Email     string `gorm:"unique;not null" json:"email"`
	Tags      string `json:"tags"`
	Completed bool   `gorm:"default:false" json:"completed"`
	// AdminTest marks ephemeral candidates created by admins to try out a
	// test themselves; they are garbage-collected after a retention window.
	AdminTest bool `gorm:"default:false" json:"admin_test"`
	CompanyID uint `gorm:"index;not null" json:"company_id"`
}
