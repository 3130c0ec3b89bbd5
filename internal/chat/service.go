package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethanctan/ai-oa/internal/llm"
	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/prompts"
	"github.com/ethanctan/ai-oa/internal/repositories"
	"github.com/ethanctan/ai-oa/internal/timers"

	"go.uber.org/zap"
)

var ErrInstanceNotReady = errors.New("instance has no provisioned container")

// phaseReader is the slice of the timer store the chat service needs.
type phaseReader interface {
	Status(ctx context.Context, instanceID uint) (*timers.State, error)
}

// Service drives the interview assistant: it keeps the per-instance
// transcript and asks the configured LLM provider for the next reply, with a
// system prompt matched to the interview phase.
type Service struct {
	messages  *repositories.ChatRepository
	instances *repositories.InstanceRepository
	tests     *repositories.TestRepository
	timers    phaseReader
	provider  llm.Provider
	prompts   *prompts.PromptManager
	logger    *zap.Logger
}

func NewService(messages *repositories.ChatRepository, instances *repositories.InstanceRepository, tests *repositories.TestRepository, timerStore phaseReader, provider llm.Provider, pm *prompts.PromptManager, logger *zap.Logger) *Service {
	return &Service{
		messages:  messages,
		instances: instances,
		tests:     tests,
		timers:    timerStore,
		provider:  provider,
		prompts:   pm,
		logger:    logger,
	}
}

// SendMessage appends the candidate's message to the transcript and returns
// the assistant's reply. Consecutive duplicate messages are answered from
// the transcript without a second provider call.
func (s *Service) SendMessage(ctx context.Context, instanceID uint, message string) (*models.ChatMessage, error) {
	instance, err := s.instances.Get(instanceID, 0)
	if err != nil {
		return nil, err
	}
	if !instance.Provisioned() {
		return nil, ErrInstanceNotReady
	}
	test, err := s.tests.GetTestByID(instance.TestID, instance.CompanyID)
	if err != nil {
		return nil, err
	}

	userMsg := &models.ChatMessage{
		InstanceID: instanceID,
		Role:       models.RoleUser,
		Content:    message,
	}
	appended, err := s.messages.Append(userMsg)
	if err != nil {
		return nil, err
	}
	if !appended {
		// the candidate re-sent the same message; return the reply we
		// already gave instead of burning another generation
		if last := s.lastAssistantMessage(instanceID); last != nil {
			return last, nil
		}
	}

	phase := s.currentPhase(ctx, instanceID)
	system, err := s.systemPrompt(phase, test)
	if err != nil {
		return nil, err
	}

	history, err := s.messages.History(instanceID)
	if err != nil {
		return nil, err
	}
	turns := make([]llm.Message, 0, len(history))
	for _, m := range history {
		turns = append(turns, llm.Message{Role: m.Role, Content: m.Content})
	}

	completion, err := s.provider.Complete(ctx, system, turns)
	if err != nil {
		return nil, fmt.Errorf("assistant reply: %w", err)
	}

	reply := &models.ChatMessage{
		InstanceID: instanceID,
		Role:       models.RoleAssistant,
		Content:    completion.Content,
	}
	if _, err := s.messages.Append(reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// History returns the transcript, oldest first.
func (s *Service) History(instanceID uint) ([]models.ChatMessage, error) {
	return s.messages.History(instanceID)
}

// ClearHistory drops the transcript, typically on re-provisioning.
func (s *Service) ClearHistory(instanceID uint) error {
	return s.messages.DeleteHistory(instanceID)
}

func (s *Service) currentPhase(ctx context.Context, instanceID uint) string {
	state, err := s.timers.Status(ctx, instanceID)
	if err != nil || state.Phase == "" {
		return models.PhaseInitial
	}
	return state.Phase
}

func (s *Service) systemPrompt(phase string, test *models.Test) (string, error) {
	brief := test.InitialPrompt
	if phase == models.PhaseFinal {
		brief = test.FinalPrompt
	}
	return s.prompts.BuildPrompt(prompts.ModeInterview, phase, map[string]string{
		"TestPrompt": brief,
	})
}

func (s *Service) lastAssistantMessage(instanceID uint) *models.ChatMessage {
	history, err := s.messages.History(instanceID)
	if err != nil {
		return nil
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleAssistant {
			return &history[i]
		}
	}
	return nil
}
