package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethanctan/ai-oa/internal/metrics"
	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/provisioner"
	"github.com/ethanctan/ai-oa/internal/repositories"
	"github.com/ethanctan/ai-oa/internal/timers"

	"go.uber.org/zap"
)

// sandboxProvisioner is the slice of the provisioner the orchestrator needs.
type sandboxProvisioner interface {
	Provision(ctx context.Context, instanceID uint, test *models.Test, candidateID uint, workspaceDir string) (*provisioner.Result, error)
	Teardown(ctx context.Context, containerID string) (bool, error)
	State(ctx context.Context, containerID string) (*models.ContainerState, error)
}

// workspaceSeeder clones the test's starter repository onto the host so it
// can be bind-mounted into the sandbox.
type workspaceSeeder interface {
	CloneForInstance(ctx context.Context, instanceID uint, repoURL, token string) (string, error)
}

// timerStore is the slice of the timer store the orchestrator needs.
type timerStore interface {
	Start(ctx context.Context, instanceID uint, durationSeconds int, phase string) (*timers.State, error)
	Delete(ctx context.Context, instanceID uint) (bool, error)
}

// Orchestrator composes the instance repository, the container provisioner
// and the timer store into the instance lifecycle. The repository owns
// persistence; the provisioner returns results that the orchestrator commits.
type Orchestrator struct {
	instances *repositories.InstanceRepository
	tests     *repositories.TestRepository
	sandbox   sandboxProvisioner
	timers    timerStore
	git       workspaceSeeder
	gitToken  string
	logger    *zap.Logger
}

func New(instances *repositories.InstanceRepository, tests *repositories.TestRepository, sandbox sandboxProvisioner, ts timerStore, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		instances: instances,
		tests:     tests,
		sandbox:   sandbox,
		timers:    ts,
		logger:    logger,
	}
}

// WithGit enables host-side workspace seeding for tests that carry a starter
// repository.
func (o *Orchestrator) WithGit(git workspaceSeeder, token string) *Orchestrator {
	o.git = git
	o.gitToken = token
	return o
}

// CreateInstance validates the (test, candidate, company) triple, inserts or
// reuses the instance row, provisions a sandbox container and starts the
// initial timer. Provisioning failures degrade the row and surface as
// KindInfrastructure with the row attached, so the caller can retry the same
// pair later; only validation failures mean the request itself was wrong.
func (o *Orchestrator) CreateInstance(ctx context.Context, testID, candidateID, companyID uint) (*models.Instance, error) {
	instance, err := o.instances.Create(testID, candidateID, companyID)
	switch {
	case errors.Is(err, repositories.ErrTestNotFound), errors.Is(err, repositories.ErrCandidateNotFound):
		return nil, wrap(KindValidation, err)
	case errors.Is(err, repositories.ErrInstanceExists):
		if instance == nil || instance.Provisioned() {
			return instance, wrap(KindConflict, err)
		}
		// the row survived an earlier failed provisioning; reuse it
		o.logger.Info("reusing unprovisioned instance row",
			zap.Uint("instance_id", instance.ID),
			zap.String("status", instance.Status))
	case err != nil:
		return nil, wrap(KindInfrastructure, err)
	}

	if err := o.instances.EnsureAssignment(testID, candidateID); err != nil {
		o.logger.Warn("failed to record test assignment", zap.Error(err))
	}

	// a countdown left over from a previous container must not leak into
	// the new one
	if _, err := o.timers.Delete(ctx, instance.ID); err != nil {
		o.logger.Warn("failed to clear stale timer", zap.Uint("instance_id", instance.ID), zap.Error(err))
	}

	test, err := o.tests.GetTestByID(testID, companyID)
	if err != nil {
		return nil, wrap(KindValidation, err)
	}

	if _, err := o.instances.Update(instance.ID, map[string]any{"status": models.StatusProvisioning}, 0); err != nil {
		return nil, wrap(KindInfrastructure, err)
	}

	workspaceDir, err := o.seedWorkspace(ctx, instance.ID, test)
	if err != nil {
		degraded, uerr := o.instances.Update(instance.ID, map[string]any{
			"status":     models.StatusDegraded,
			"last_error": err.Error(),
		}, 0)
		if uerr != nil {
			return instance, wrap(KindInfrastructure, err)
		}
		o.logger.Error("workspace seeding failed",
			zap.Uint("instance_id", instance.ID), zap.Error(err))
		return degraded, wrap(KindInfrastructure, err)
	}

	provStart := time.Now()
	result, provErr := o.sandbox.Provision(ctx, instance.ID, test, candidateID, workspaceDir)
	metrics.ObserveProvision(provisionOutcome(provErr), time.Since(provStart))
	if provErr != nil {
		degraded, uerr := o.instances.Update(instance.ID, map[string]any{
			"status":     models.StatusDegraded,
			"last_error": provErr.Error(),
		}, 0)
		if uerr != nil {
			o.logger.Error("failed to record provisioning failure",
				zap.Uint("instance_id", instance.ID), zap.Error(uerr))
			return instance, wrap(KindInfrastructure, provErr)
		}
		o.logger.Error("provisioning failed",
			zap.Uint("instance_id", instance.ID), zap.Error(provErr))
		return degraded, wrap(KindInfrastructure, provErr)
	}

	ready, err := o.instances.Update(instance.ID, map[string]any{
		"container_id": result.ContainerID,
		"port":         result.Port,
		"access_url":   result.AccessURL,
		"status":       models.StatusReady,
		"last_error":   "",
	}, 0)
	if err != nil {
		return nil, wrap(KindInfrastructure, err)
	}

	duration := 0
	if test.EnableTimer {
		duration = test.TimerDuration * 60
	}
	if _, err := o.timers.Start(ctx, instance.ID, duration, models.PhaseInitial); err != nil {
		o.logger.Error("failed to start initial timer",
			zap.Uint("instance_id", instance.ID), zap.Error(err))
	}

	o.logger.Info("instance ready",
		zap.Uint("instance_id", instance.ID),
		zap.String("container_id", result.ContainerID),
		zap.Int("port", result.Port))
	return ready, nil
}

// seedWorkspace clones the starter repository for the instance when the test
// names one and a git client is configured. The container falls back to an
// in-sandbox clone otherwise.
func (o *Orchestrator) seedWorkspace(ctx context.Context, instanceID uint, test *models.Test) (string, error) {
	if o.git == nil || test.GithubRepo == "" {
		return "", nil
	}
	dir, err := o.git.CloneForInstance(ctx, instanceID, test.GithubRepo, o.gitToken)
	if err != nil {
		return "", fmt.Errorf("seed workspace: %w", err)
	}
	return dir, nil
}

func provisionOutcome(err error) string {
	if err != nil {
		return models.StatusDegraded
	}
	return models.StatusReady
}

// StopInstance tears the container down and marks the row. A container the
// daemon no longer knows about still counts as a successful stop; a row that
// never got a container is a non-fatal no-op.
func (o *Orchestrator) StopInstance(ctx context.Context, instanceID, companyID uint) (*models.OperationResult, error) {
	instance, err := o.instances.Get(instanceID, companyID)
	if errors.Is(err, repositories.ErrInstanceNotFound) {
		return nil, wrap(KindNotFound, err)
	}
	if err != nil {
		return nil, wrap(KindInfrastructure, err)
	}

	if !instance.Provisioned() {
		return &models.OperationResult{
			Success: false,
			Message: "instance has no provisioned container",
		}, nil
	}

	gone, err := o.sandbox.Teardown(ctx, instance.ContainerID)
	if err != nil {
		return nil, wrap(KindInfrastructure, fmt.Errorf("stop container %s: %w", instance.ContainerID, err))
	}

	status := models.StatusStopped
	if gone {
		status = models.StatusNotFound
	}
	if _, err := o.instances.Update(instance.ID, map[string]any{"status": status}, 0); err != nil {
		return nil, wrap(KindInfrastructure, err)
	}

	if _, err := o.timers.Delete(ctx, instance.ID); err != nil {
		o.logger.Warn("failed to delete timer", zap.Uint("instance_id", instance.ID), zap.Error(err))
	}

	o.logger.Info("instance stopped",
		zap.Uint("instance_id", instance.ID),
		zap.String("status", status))
	return &models.OperationResult{Success: true, Message: status}, nil
}

// DeleteInstance tears down the container if any, then removes the row and
// its timer.
func (o *Orchestrator) DeleteInstance(ctx context.Context, instanceID, companyID uint) error {
	instance, err := o.instances.Get(instanceID, companyID)
	if errors.Is(err, repositories.ErrInstanceNotFound) {
		return wrap(KindNotFound, err)
	}
	if err != nil {
		return wrap(KindInfrastructure, err)
	}

	if instance.Provisioned() {
		if _, err := o.sandbox.Teardown(ctx, instance.ContainerID); err != nil {
			return wrap(KindInfrastructure, err)
		}
	}
	if _, err := o.timers.Delete(ctx, instance.ID); err != nil {
		o.logger.Warn("failed to delete timer", zap.Uint("instance_id", instance.ID), zap.Error(err))
	}
	if err := o.instances.Delete(instance.ID, 0); err != nil {
		return wrap(KindInfrastructure, err)
	}
	return nil
}

// ListInstances merges stored rows with the live container state so stale
// rows are visible as such.
func (o *Orchestrator) ListInstances(ctx context.Context, companyID uint) ([]models.InstanceListEntry, error) {
	details, err := o.instances.ListWithDetails(companyID)
	if err != nil {
		return nil, wrap(KindInfrastructure, err)
	}
	entries := make([]models.InstanceListEntry, 0, len(details))
	for _, d := range details {
		entry := models.InstanceListEntry{InstanceDetails: d}
		if d.Provisioned() {
			state, serr := o.sandbox.State(ctx, d.ContainerID)
			if serr != nil {
				o.logger.Warn("failed to inspect container",
					zap.String("container_id", d.ContainerID), zap.Error(serr))
			} else {
				entry.Container = state
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetInstance returns one row with joined details.
func (o *Orchestrator) GetInstance(instanceID, companyID uint) (*models.InstanceDetails, error) {
	details, err := o.instances.GetWithDetails(instanceID, companyID)
	if errors.Is(err, repositories.ErrInstanceNotFound) {
		return nil, wrap(KindNotFound, err)
	}
	if err != nil {
		return nil, wrap(KindInfrastructure, err)
	}
	return details, nil
}
