package models

import "gorm.io/gorm"

// Company is the tenant boundary: every candidate, test and instance
// belongs to exactly one company.
type Company struct {
	gorm.Model
	Name   string `gorm:"unique;not null" json:"name"`
	Domain string `json:"domain"`
}
