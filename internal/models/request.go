package models

// Timer phases mirror the interview flow: initial interview, project work,
// final interview.
const (
	PhaseInitial = "initial"
	PhaseProject = "project"
	PhaseFinal   = "final"
)

// ValidPhase reports whether the given timer phase name is known.
func ValidPhase(phase string) bool {
	switch phase {
	case PhaseInitial, PhaseProject, PhaseFinal:
		return true
	}
	return false
}

type CreateInstanceRequest struct {
	TestID      uint `json:"testId"`
	CandidateID uint `json:"candidateId"`
}

// implements the Validator interface
func (r *CreateInstanceRequest) Validate() error {
	if r.TestID == 0 {
		return &ErrorResponse{Code: "missing_test_id", Message: "testId is required"}
	}
	if r.CandidateID == 0 {
		return &ErrorResponse{Code: "missing_candidate_id", Message: "candidateId is required"}
	}
	return nil
}

type StartTimerRequest struct {
	InstanceID uint `json:"instanceId"`
	// EnableTimer defaults to true; when false the timer is created disabled
	// regardless of Duration.
	EnableTimer *bool  `json:"enableTimer,omitempty"`
	Duration    int    `json:"duration"` // seconds
	TimerType   string `json:"timerType"`
}

func (r *StartTimerRequest) Validate() error {
	if r.InstanceID == 0 {
		return &ErrorResponse{Code: "missing_instance_id", Message: "instanceId is required"}
	}
	if r.Duration < 0 {
		return &ErrorResponse{Code: "invalid_duration", Message: "duration must not be negative"}
	}
	if r.TimerType == "" {
		r.TimerType = PhaseInitial
	}
	if !ValidPhase(r.TimerType) {
		return &ErrorResponse{Code: "invalid_timer_type", Message: "timerType must be one of: initial, project, final"}
	}
	return nil
}

type ResetTimerRequest struct {
	InstanceID uint   `json:"instanceId"`
	Duration   int    `json:"duration"` // seconds
	TimerType  string `json:"timerType,omitempty"`
}

func (r *ResetTimerRequest) Validate() error {
	if r.InstanceID == 0 {
		return &ErrorResponse{Code: "missing_instance_id", Message: "instanceId is required"}
	}
	if r.Duration < 0 {
		return &ErrorResponse{Code: "invalid_duration", Message: "duration must not be negative"}
	}
	if r.TimerType != "" && !ValidPhase(r.TimerType) {
		return &ErrorResponse{Code: "invalid_timer_type", Message: "timerType must be one of: initial, project, final"}
	}
	return nil
}

type PhaseStartedRequest struct {
	InstanceID uint  `json:"instanceId"`
	Started    *bool `json:"started,omitempty"` // defaults to true
}

func (r *PhaseStartedRequest) Validate() error {
	if r.InstanceID == 0 {
		return &ErrorResponse{Code: "missing_instance_id", Message: "instanceId is required"}
	}
	return nil
}

type ChatMessageRequest struct {
	InstanceID uint   `json:"instanceId"`
	Message    string `json:"message"`
}

func (r *ChatMessageRequest) Validate() error {
	if r.InstanceID == 0 {
		return &ErrorResponse{Code: "missing_instance_id", Message: "instanceId is required"}
	}
	if r.Message == "" {
		return &ErrorResponse{Code: "missing_message", Message: "message is required"}
	}
	return nil
}

// SubmitReportRequest carries the candidate's workspace content captured by
// the in-sandbox extension, as an opaque JSON document.
type SubmitReportRequest struct {
	Workspace map[string]any `json:"workspace"`
}

func (r *SubmitReportRequest) Validate() error {
	if len(r.Workspace) == 0 {
		return &ErrorResponse{Code: "missing_workspace", Message: "workspace content is required"}
	}
	return nil
}
