package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethanctan/ai-oa/internal/llm"
	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/prompts"
	"github.com/ethanctan/ai-oa/internal/repositories"

	"go.uber.org/zap"
)

// submissionPusher archives the candidate's working copy after submission.
type submissionPusher interface {
	PushToTarget(ctx context.Context, instanceID uint, targetURL, token string) error
}

// Service turns a submitted workspace plus the interview transcript into an
// evaluation report. One report exists per instance; resubmission replaces
// it.
type Service struct {
	reports   *repositories.ReportRepository
	instances *repositories.InstanceRepository
	tests     *repositories.TestRepository
	messages  *repositories.ChatRepository
	provider  llm.Provider
	prompts   *prompts.PromptManager
	git       submissionPusher
	gitToken  string
	logger    *zap.Logger
}

func NewService(reports *repositories.ReportRepository, instances *repositories.InstanceRepository, tests *repositories.TestRepository, messages *repositories.ChatRepository, provider llm.Provider, pm *prompts.PromptManager, logger *zap.Logger) *Service {
	return &Service{
		reports:   reports,
		instances: instances,
		tests:     tests,
		messages:  messages,
		provider:  provider,
		prompts:   pm,
		logger:    logger,
	}
}

// WithGit enables pushing submissions to the test's archive repository.
func (s *Service) WithGit(git submissionPusher, token string) *Service {
	s.git = git
	s.gitToken = token
	return s
}

// Generate produces the qualitative and quantitative assessments and stores
// them as one report for the instance.
func (s *Service) Generate(ctx context.Context, instanceID uint, workspace map[string]any) (*models.Report, error) {
	instance, err := s.instances.Get(instanceID, 0)
	if err != nil {
		return nil, err
	}
	test, err := s.tests.GetTestByID(instance.TestID, instance.CompanyID)
	if err != nil {
		return nil, err
	}

	workspaceJSON, err := json.MarshalIndent(workspace, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode workspace: %w", err)
	}
	transcript := s.transcript(instanceID)

	qualitative, err := s.assess(ctx, prompts.VariantQualitative, test.QualitativeAssessmentPrompt, string(workspaceJSON), transcript)
	if err != nil {
		return nil, err
	}
	quantitative, err := s.assess(ctx, prompts.VariantQuantitative, test.QuantitativeAssessmentPrompt, string(workspaceJSON), transcript)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	content.WriteString("## Qualitative Assessment\n\n")
	content.WriteString(qualitative.Content)
	content.WriteString("\n\n## Quantitative Assessment\n\n")
	content.WriteString(quantitative.Content)

	report, err := s.reports.Upsert(instanceID, content.String(), qualitative.Model)
	if err != nil {
		return nil, err
	}
	s.logger.Info("evaluation report stored",
		zap.Uint("instance_id", instanceID),
		zap.String("model", qualitative.Model))

	// archiving is best effort; the report is already stored
	if s.git != nil && test.TargetGithubRepo != "" {
		if err := s.git.PushToTarget(ctx, instanceID, test.TargetGithubRepo, s.gitToken); err != nil {
			s.logger.Warn("failed to archive submission",
				zap.Uint("instance_id", instanceID), zap.Error(err))
		}
	}
	return report, nil
}

// Get returns the stored report for an instance.
func (s *Service) Get(instanceID uint) (*models.Report, error) {
	return s.reports.GetByInstance(instanceID)
}

func (s *Service) assess(ctx context.Context, variant, assessmentPrompt, workspace, transcript string) (*llm.Completion, error) {
	prompt, err := s.prompts.BuildPrompt(prompts.ModeReport, variant, map[string]string{
		"AssessmentPrompt": assessmentPrompt,
		"Workspace":        workspace,
		"Transcript":       transcript,
	})
	if err != nil {
		return nil, err
	}
	completion, err := s.provider.Complete(ctx, "", []llm.Message{{Role: models.RoleUser, Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("%s assessment: %w", variant, err)
	}
	return completion, nil
}

func (s *Service) transcript(instanceID uint) string {
	history, err := s.messages.History(instanceID)
	if err != nil || len(history) == 0 {
		return "(no interview conversation recorded)"
	}
	var b strings.Builder
	for _, m := range history {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
