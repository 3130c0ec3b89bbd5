package reports

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ethanctan/ai-oa/internal/llm"
	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/prompts"
	"github.com/ethanctan/ai-oa/internal/repositories"
	"github.com/ethanctan/ai-oa/internal/testhelpers"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubProvider struct {
	replies []string
	prompts []string
	err     error
}

func (s *stubProvider) Complete(ctx context.Context, system string, history []llm.Message) (*llm.Completion, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.prompts = append(s.prompts, history[len(history)-1].Content)
	reply := "assessment"
	if len(s.replies) > 0 {
		reply = s.replies[0]
		s.replies = s.replies[1:]
	}
	return &llm.Completion{Content: reply, Model: "stub-model"}, nil
}

func (s *stubProvider) GetProviderName() string { return "stub" }

func setupService(t *testing.T, provider *stubProvider) (*Service, *gorm.DB, *models.Instance) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	_, test, candidate := testhelpers.SeedTenant(t, db)
	if err := db.Model(test).Updates(map[string]any{
		"qualitative_assessment_prompt":  "Judge readability.",
		"quantitative_assessment_prompt": "Score strictly.",
	}).Error; err != nil {
		t.Fatalf("failed to set assessment prompts: %v", err)
	}

	instance := &models.Instance{
		TestID:      test.ID,
		CandidateID: candidate.ID,
		CompanyID:   test.CompanyID,
		ContainerID: "cid-live",
		Status:      models.StatusReady,
	}
	if err := db.Create(instance).Error; err != nil {
		t.Fatalf("failed to seed instance: %v", err)
	}

	pm, err := prompts.NewPromptManager()
	if err != nil {
		t.Fatalf("failed to load prompts: %v", err)
	}
	svc := NewService(
		&repositories.ReportRepository{DB: db},
		&repositories.InstanceRepository{DB: db},
		&repositories.TestRepository{DB: db},
		&repositories.ChatRepository{DB: db},
		provider,
		pm,
		zap.NewNop(),
	)
	return svc, db, instance
}

func TestGenerate(t *testing.T) {
	provider := &stubProvider{replies: []string{"Readable code.", "8/10 overall."}}
	svc, db, instance := setupService(t, provider)

	// seed a short conversation so the transcript lands in the prompt
	db.Create(&models.ChatMessage{InstanceID: instance.ID, Role: models.RoleUser, Content: "Can I use a framework?"})

	report, err := svc.Generate(context.Background(), instance.ID, map[string]any{"main.go": "package main"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(report.Content, "Readable code.") || !strings.Contains(report.Content, "8/10 overall.") {
		t.Errorf("expected both assessments in the report, got: %s", report.Content)
	}
	if report.ModelName != "stub-model" {
		t.Errorf("expected model name to be recorded, got %s", report.ModelName)
	}

	if len(provider.prompts) != 2 {
		t.Fatalf("expected two assessment calls, got %d", len(provider.prompts))
	}
	if !strings.Contains(provider.prompts[0], "Judge readability.") {
		t.Errorf("expected qualitative prompt first, got: %s", provider.prompts[0])
	}
	if !strings.Contains(provider.prompts[1], "Score strictly.") {
		t.Errorf("expected quantitative prompt second, got: %s", provider.prompts[1])
	}
	for _, p := range provider.prompts {
		if !strings.Contains(p, "package main") {
			t.Error("expected workspace content in the prompt")
		}
		if !strings.Contains(p, "Can I use a framework?") {
			t.Error("expected transcript in the prompt")
		}
	}
}

func TestGenerate_ResubmissionReplaces(t *testing.T) {
	provider := &stubProvider{replies: []string{"v1", "v1", "v2", "v2"}}
	svc, db, instance := setupService(t, provider)

	if _, err := svc.Generate(context.Background(), instance.ID, map[string]any{"a": 1}); err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	if _, err := svc.Generate(context.Background(), instance.ID, map[string]any{"a": 2}); err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}

	var count int64
	db.Model(&models.Report{}).Where("instance_id = ?", instance.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected one report per instance, got %d", count)
	}
	report, err := svc.Get(instance.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !strings.Contains(report.Content, "v2") {
		t.Errorf("expected the latest report content, got: %s", report.Content)
	}
}

func TestGenerate_ProviderFailure(t *testing.T) {
	provider := &stubProvider{err: &llm.ProviderError{Provider: "stub", Code: llm.ErrCodeServiceDown, Message: "down"}}
	svc, _, instance := setupService(t, provider)

	if _, err := svc.Generate(context.Background(), instance.ID, map[string]any{"a": 1}); err == nil {
		t.Fatal("expected provider failure to propagate")
	}
	if _, err := svc.Get(instance.ID); !errors.Is(err, repositories.ErrReportNotFound) {
		t.Errorf("expected no report to be stored, got %v", err)
	}
}

type stubPusher struct {
	pushed  []string
	pushErr error
}

func (s *stubPusher) PushToTarget(ctx context.Context, instanceID uint, targetURL, token string) error {
	if s.pushErr != nil {
		return s.pushErr
	}
	s.pushed = append(s.pushed, targetURL)
	return nil
}

func TestGenerate_ArchivesSubmission(t *testing.T) {
	provider := &stubProvider{}
	svc, db, instance := setupService(t, provider)
	pusher := &stubPusher{}
	svc.WithGit(pusher, "gh-token")
	if err := db.Model(&models.Test{}).Where("id = ?", instance.TestID).
		Update("target_github_repo", "https://github.com/acme/archive").Error; err != nil {
		t.Fatalf("failed to set archive repo: %v", err)
	}

	if _, err := svc.Generate(context.Background(), instance.ID, map[string]any{"a": 1}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(pusher.pushed) != 1 || pusher.pushed[0] != "https://github.com/acme/archive" {
		t.Errorf("expected one push to the archive repo, got %v", pusher.pushed)
	}

	// a push failure must not fail the submission
	pusher.pushErr = errors.New("remote rejected")
	if _, err := svc.Generate(context.Background(), instance.ID, map[string]any{"a": 2}); err != nil {
		t.Fatalf("Generate should survive a failed archive push, got %v", err)
	}
}

func TestGenerate_UnknownInstance(t *testing.T) {
	svc, _, _ := setupService(t, &stubProvider{})
	if _, err := svc.Generate(context.Background(), 9999, map[string]any{"a": 1}); !errors.Is(err, repositories.ErrInstanceNotFound) {
		t.Errorf("expected ErrInstanceNotFound, got %v", err)
	}
}
