package redis

import (
	"context"

	"github.com/blen-hub/blen-progress-hub/internal/domain/challenge"
)

// LeaderboardCache keeps per-challenge standings in Redis sorted sets
// so ranked reads don't have to load and sort every participant's
// aggregate. It is a derived view: the aggregates remain the source
// of truth, and the rebuild job repopulates the sets periodically.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a LeaderboardCache over an existing
// cache connection.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// RankedEntry is one row of a ranked leaderboard read.
type RankedEntry struct {
	// UserID - the participant.
	UserID string `json:"user_id"`

	// Progress toward the challenge target.
	Progress float64 `json:"progress"`

	// Position - 1-based standing, highest progress first.
	Position int `json:"position"`
}

// UpdateEntry writes one participant's progress into the challenge's
// sorted set and refreshes the set's TTL.
func (l *LeaderboardCache) UpdateEntry(ctx context.Context, challengeID string, entry challenge.LeaderboardEntry) error {
	key := LeaderboardKey(challengeID)
	if err := l.cache.ZAdd(ctx, key, entry.UserID, entry.Progress); err != nil {
		return err
	}
	return l.cache.Expire(ctx, key, TTLLeaderboardCache)
}

// Top returns the highest-progress participants of a challenge, best
// first. Returns an empty slice when the set is absent or expired.
func (l *LeaderboardCache) Top(ctx context.Context, challengeID string, limit int) ([]RankedEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.cache.ZRevRangeWithScores(ctx, LeaderboardKey(challengeID), 0, int64(limit-1))
	if err != nil {
		return nil, err
	}

	entries := make([]RankedEntry, 0, len(rows))
	for i, row := range rows {
		userID, _ := row.Member.(string)
		entries = append(entries, RankedEntry{
			UserID:   userID,
			Progress: row.Score,
			Position: i + 1,
		})
	}
	return entries, nil
}

// Position returns the 1-based standing of a participant.
// Returns ErrCacheMiss when the participant is not in the set.
func (l *LeaderboardCache) Position(ctx context.Context, challengeID, userID string) (int, error) {
	rank, err := l.cache.ZRevRank(ctx, LeaderboardKey(challengeID), userID)
	if err != nil {
		return 0, err
	}
	return int(rank) + 1, nil
}

// ParticipantCount returns how many participants are in the set.
func (l *LeaderboardCache) ParticipantCount(ctx context.Context, challengeID string) (int, error) {
	count, err := l.cache.ZCard(ctx, LeaderboardKey(challengeID))
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Invalidate drops a challenge's cached standings.
func (l *LeaderboardCache) Invalidate(ctx context.Context, challengeID string) error {
	return l.cache.Delete(ctx, LeaderboardKey(challengeID))
}
