package models

import "gorm.io/gorm"

// ContainerIDPending is the sentinel container identifier for an instance row
// that exists in the database but has no provisioned container yet.
const ContainerIDPending = "pending"

// Instance lifecycle states.
const (
	StatusPending      = "pending"
	StatusProvisioning = "provisioning"
	StatusReady        = "ready"
	StatusDegraded     = "degraded"
	StatusStopped      = "stopped"
	StatusNotFound     = "not_found"
	StatusRemoved      = "removed"
)

// Instance identifies one candidate's provisioned sandbox for one test.
// At most one instance exists per (test, candidate) pair; the composite
// unique index backs the duplicate check under concurrent creation.
type Instance struct {
	gorm.Model
	TestID      uint `gorm:"uniqueIndex:idx_instance_pair;not null" json:"test_id"`
	CandidateID uint `gorm:"uniqueIndex:idx_instance_pair;not null" json:"candidate_id"`
	CompanyID   uint `gorm:"index;not null" json:"company_id"`

	ContainerID string `gorm:"default:pending" json:"container_id"`
	Port        int    `json:"port"`
	AccessURL   string `json:"access_url"`
	Status      string `gorm:"default:pending" json:"status"`
	LastError   string `json:"last_error,omitempty"`
}

// Provisioned reports whether a real container has been recorded for the row.
func (i *Instance) Provisioned() bool {
	return i.ContainerID != "" && i.ContainerID != ContainerIDPending
}

// InstanceDetails is an instance joined with display snapshots of its test
// and candidate.
type InstanceDetails struct {
	Instance
	TestName       string `json:"test_name"`
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
}

// ContainerState is the live Docker-side view merged into instance listings.
type ContainerState struct {
	Name    string `json:"name,omitempty"`
	Image   string `json:"image,omitempty"`
	State   string `json:"state,omitempty"`
	Healthy bool   `json:"healthy"`
}

// InstanceListEntry pairs a stored instance with its live container state.
type InstanceListEntry struct {
	InstanceDetails
	Container *ContainerState `json:"container,omitempty"`
}
