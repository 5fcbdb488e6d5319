// Package jobs contains the scheduled maintenance jobs of the Blen
// Progress Hub: challenge expiry, goal rollover, and leaderboard rebuilds.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// Locker acquires short-lived distributed locks so only one instance
// runs a maintenance job at a time.
type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE CHALLENGES JOB
// ══════════════════════════════════════════════════════════════════════════════

// ExpireChallengesJob moves challenges whose window has closed out of
// every user's active list. Expired challenges award no points.
type ExpireChallengesJob struct {
	repo      progress.Repository
	publisher shared.EventPublisher
	locker    Locker
	lockKey   string
	logger    *slog.Logger
}

// NewExpireChallengesJob creates a new challenge expiry job.
func NewExpireChallengesJob(
	repo progress.Repository,
	publisher shared.EventPublisher,
	locker Locker,
	lockKey string,
	logger *slog.Logger,
) *ExpireChallengesJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpireChallengesJob{
		repo:      repo,
		publisher: publisher,
		locker:    locker,
		lockKey:   lockKey,
		logger:    logger,
	}
}

// Name returns the unique name of the job.
func (j *ExpireChallengesJob) Name() string {
	return "expire_challenges"
}

// Description returns a human-readable description of the job.
func (j *ExpireChallengesJob) Description() string {
	return "Moves ended challenges out of every user's active list"
}

// Run executes the job.
func (j *ExpireChallengesJob) Run(ctx context.Context) error {
	if j.locker != nil {
		acquired, err := j.locker.SetNX(ctx, j.lockKey, time.Now().Unix(), 30*time.Second)
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !acquired {
			j.logger.Debug("expire job already running elsewhere")
			return nil
		}
	}

	userIDs, err := j.repo.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	now := time.Now().UTC()
	usersTouched := 0
	expiredTotal := 0

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

		expired := p.ExpireChallenges(now)
		if len(expired) == 0 {
			continue
		}

		if err := j.repo.Save(ctx, p); err != nil {
			j.logger.Error("failed to save after expiry", "user_id", userID, "error", err)
			continue
		}

		usersTouched++
		expiredTotal += len(expired)

		if j.publisher != nil {
			for _, ch := range expired {
				event := shared.NewChallengeExpiredEvent(userID, ch.ID, ch.EndDate)
				if err := j.publisher.Publish(event); err != nil {
					j.logger.Warn("failed to publish expiry event", "challenge_id", ch.ID, "error", err)
				}
			}
		}
	}

	j.logger.Info("challenge expiry complete",
		"users_scanned", len(userIDs),
		"users_touched", usersTouched,
		"challenges_expired", expiredTotal,
	)
	return nil
}
