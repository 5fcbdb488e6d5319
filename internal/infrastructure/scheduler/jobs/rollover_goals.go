package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROLLOVER GOALS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RolloverGoalsJob resets goals whose period has elapsed so completion
// points become earnable again in the new window.
type RolloverGoalsJob struct {
	repo      progress.Repository
	publisher shared.EventPublisher
	locker    Locker
	lockKey   string
	logger    *slog.Logger
}

// NewRolloverGoalsJob creates a new goal rollover job.
func NewRolloverGoalsJob(
	repo progress.Repository,
	publisher shared.EventPublisher,
	locker Locker,
	lockKey string,
	logger *slog.Logger,
) *RolloverGoalsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RolloverGoalsJob{
		repo:      repo,
		publisher: publisher,
		locker:    locker,
		lockKey:   lockKey,
		logger:    logger,
	}
}

// Name returns the unique name of the job.
func (j *RolloverGoalsJob) Name() string {
	return "rollover_goals"
}

// Description returns a human-readable description of the job.
func (j *RolloverGoalsJob) Description() string {
	return "Resets goals whose daily, weekly, or monthly period has elapsed"
}

// Run executes the job.
func (j *RolloverGoalsJob) Run(ctx context.Context) error {
	if j.locker != nil {
		acquired, err := j.locker.SetNX(ctx, j.lockKey, time.Now().Unix(), 30*time.Second)
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !acquired {
			j.logger.Debug("rollover job already running elsewhere")
			return nil
		}
	}

	userIDs, err := j.repo.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	now := time.Now().UTC()
	rolledTotal := 0

	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p, err := j.repo.Load(ctx, userID)
		if err != nil {
			j.logger.Warn("skipping user, load failed", "user_id", userID, "error", err)
			continue
		}

		rolled := p.RolloverGoals(now)
		if rolled == 0 {
			continue
		}

		if err := j.repo.Save(ctx, p); err != nil {
			j.logger.Error("failed to save after rollover", "user_id", userID, "error", err)
			continue
		}

		rolledTotal += rolled
	}

	j.logger.Info("goal rollover complete",
		"users_scanned", len(userIDs),
		"goals_rolled", rolledTotal,
	)
	return nil
}
