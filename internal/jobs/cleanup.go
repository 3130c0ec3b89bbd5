package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/repositories"
	"github.com/ethanctan/ai-oa/internal/timers"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// containerTeardown is the slice of the provisioner the job needs.
type containerTeardown interface {
	Teardown(ctx context.Context, containerID string) (bool, error)
}

// CleanupConfig contains configuration for the cleanup job.
type CleanupConfig struct {
	Schedule  string        // cron schedule, e.g. "0 3 * * *"
	Retention time.Duration // how long admin-test candidates are kept
	Enabled   bool
}

// CleanupJob reclaims admin-test candidates and their sandboxes on a cron
// schedule. Admins spawn throwaway candidates to preview a test; those rows
// and containers are not worth keeping past the retention window.
type CleanupJob struct {
	candidates *repositories.CandidateRepository
	instances  *repositories.InstanceRepository
	sandbox    containerTeardown
	timers     *timers.Store
	config     *CleanupConfig
	cron       *cron.Cron
	logger     *zap.Logger
}

func NewCleanupJob(
	candidates *repositories.CandidateRepository,
	instances *repositories.InstanceRepository,
	sandbox containerTeardown,
	timerStore *timers.Store,
	config *CleanupConfig,
	logger *zap.Logger,
) *CleanupJob {
	return &CleanupJob{
		candidates: candidates,
		instances:  instances,
		sandbox:    sandbox,
		timers:     timerStore,
		config:     config,
		cron:       cron.New(),
		logger:     logger,
	}
}

// Start begins the scheduled cleanup job.
func (cj *CleanupJob) Start() error {
	if !cj.config.Enabled {
		cj.logger.Info("admin candidate cleanup is disabled, skipping scheduler")
		return nil
	}

	cj.logger.Info("starting admin candidate cleanup",
		zap.String("schedule", cj.config.Schedule),
		zap.Duration("retention", cj.config.Retention))

	_, err := cj.cron.AddFunc(cj.config.Schedule, func() {
		if err := cj.RunCleanup(context.Background()); err != nil {
			cj.logger.Error("cleanup run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup job: %w", err)
	}

	cj.cron.Start()
	return nil
}

// Stop stops the scheduled cleanup job.
func (cj *CleanupJob) Stop() {
	if cj.cron != nil {
		cj.cron.Stop()
	}
}

// RunCleanup performs a single cleanup pass. Failures on one candidate do not
// block the rest; the row is retried on the next run.
func (cj *CleanupJob) RunCleanup(ctx context.Context) error {
	stale, err := repositories.StaleAdminCandidates(cj.candidates, cj.config.Retention)
	if err != nil {
		return fmt.Errorf("failed to list stale admin candidates: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	cj.logger.Info("reclaiming stale admin candidates", zap.Int("count", len(stale)))

	for _, candidate := range stale {
		if err := cj.reclaim(ctx, &candidate); err != nil {
			cj.logger.Warn("failed to reclaim admin candidate",
				zap.Uint("candidate_id", candidate.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (cj *CleanupJob) reclaim(ctx context.Context, candidate *models.Candidate) error {
	instances, err := repositories.InstancesForCandidate(cj.instances, candidate.ID)
	if err != nil {
		return fmt.Errorf("failed to list instances: %w", err)
	}

	for _, instance := range instances {
		if instance.Provisioned() {
			if _, err := cj.sandbox.Teardown(ctx, instance.ContainerID); err != nil {
				return fmt.Errorf("failed to tear down container %s: %w", instance.ContainerID, err)
			}
		}
		if _, err := cj.timers.Delete(ctx, instance.ID); err != nil {
			cj.logger.Warn("failed to delete timer during cleanup",
				zap.Uint("instance_id", instance.ID),
				zap.Error(err))
		}
	}

	if err := repositories.DeleteCandidateCascade(cj.candidates, candidate.ID); err != nil {
		return fmt.Errorf("failed to delete candidate rows: %w", err)
	}

	cj.logger.Info("reclaimed admin candidate",
		zap.Uint("candidate_id", candidate.ID),
		zap.Int("instances", len(instances)))
	return nil
}
