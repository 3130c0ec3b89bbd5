package models

import (
	"time"

	"gorm.io/gorm"
)

// Test is the configuration proxy for the sandbox container: prompts, timer
// settings and optional source/target repositories. Consumed read-only by the
// provisioner.
type Test struct {
	gorm.Model
	Name string `gorm:"not null" json:"name"`

	GithubRepo        string `json:"github_repo"`
	GithubToken       string `json:"-"`
	TargetGithubRepo  string `json:"target_github_repo"`
	TargetGithubToken string `json:"-"`

	InitialPrompt                string `json:"initial_prompt"`
	FinalPrompt                  string `json:"final_prompt"`
	QualitativeAssessmentPrompt  string `json:"qualitative_assessment_prompt"`
	QuantitativeAssessmentPrompt string `json:"quantitative_assessment_prompt"`

	// Timer durations are stored in minutes, matching what admins enter in
	// the dashboard. A disabled timer still produces a (inactive) record.
	EnableTimer          bool `gorm:"default:true" json:"enable_timer"`
	TimerDuration        int  `gorm:"default:10" json:"timer_duration"`
	EnableProjectTimer   bool `gorm:"default:true" json:"enable_project_timer"`
	ProjectTimerDuration int  `gorm:"default:60" json:"project_timer_duration"`

	InitialQuestionBudget int `gorm:"default:5" json:"initial_question_budget"`
	FinalQuestionBudget   int `gorm:"default:5" json:"final_question_budget"`

	CandidatesAssigned  int  `gorm:"default:0" json:"candidates_assigned"`
	CandidatesCompleted int  `gorm:"default:0" json:"candidates_completed"`
	CompanyID           uint `gorm:"index;not null" json:"company_id"`
}

// TestCandidate records the assignment of a candidate to a test.
type TestCandidate struct {
	gorm.Model
	TestID      uint       `gorm:"uniqueIndex:idx_test_candidate;not null" json:"test_id"`
	CandidateID uint       `gorm:"uniqueIndex:idx_test_candidate;not null" json:"candidate_id"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}
