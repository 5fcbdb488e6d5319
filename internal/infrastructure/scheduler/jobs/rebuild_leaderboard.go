package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	cacheredis "github.com/blen-hub/blen-progress-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob repopulates the cached per-challenge standings
// from every user's aggregate. The sorted sets are a read model; the
// aggregates stay authoritative.
type RebuildLeaderboardJob struct {
	repo    progress.Repository
	cache   *cacheredis.LeaderboardCache
	locker  Locker
	lockKey string
	logger  *slog.Logger
}

// NewRebuildLeaderboardJob creates a new leaderboard rebuild job.
func NewRebuildLeaderboardJob(
	repo progress.Repository,
	cache *cacheredis.LeaderboardCache,
	locker Locker,
	lockKey string,
	logger *slog.Logger,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RebuildLeaderboardJob{
		repo:    repo,
		cache:   cache,
		locker:  locker,
		lockKey: lockKey,
		logger:  logger,
	}
}

// Name returns the unique name of the job.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description of the job.
func (j *RebuildLeaderboardJob) Description() string {
	return "Repopulates cached challenge standings from user aggregates"
}

// Run executes the job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	if j.locker != nil {
		acquired, err := j.locker.SetNX(ctx, j.lockKey, time.Now().Unix(), 30*time.Second)
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !acquired {
			j.logger.Debug("rebuild job already running elsewhere")
			return nil
		}
	}

	userIDs, err := j.repo.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	entriesWritten := 0
	challengesSeen := make(map[string]struct{})

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

		for i := range p.ActiveChallenges {
			ch := &p.ActiveChallenges[i]
			entry, err := ch.EntryFor(userID)
			if err != nil {
				continue
			}

			if err := j.cache.UpdateEntry(ctx, ch.ID, *entry); err != nil {
				j.logger.Warn("failed to update standings entry",
					"challenge_id", ch.ID,
					"user_id", userID,
					"error", err,
				)
				continue
			}
			challengesSeen[ch.ID] = struct{}{}
			entriesWritten++
		}
	}

	j.logger.Info("leaderboard rebuild complete",
		"users_scanned", len(userIDs),
		"challenges", len(challengesSeen),
		"entries_written", entriesWritten,
	)
	return nil
}
