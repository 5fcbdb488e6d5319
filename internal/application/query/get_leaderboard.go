package query

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
	"github.com/blen-hub/blen-progress-hub/internal/infrastructure/persistence/postgres"
	cacheredis "github.com/blen-hub/blen-progress-hub/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CHALLENGE LEADERBOARD QUERY
// Reads the ranked standings of one challenge. Served from the Redis
// sorted set when available, falling back to the viewer's own copy of
// the challenge leaderboard.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery contains the leaderboard request parameters.
type GetLeaderboardQuery struct {
	// ChallengeID identifies the challenge.
	ChallengeID string

	// UserID - the viewer. Used for the fallback read and to report
	// the viewer's own standing. Optional.
	UserID string

	// Limit - number of entries (default 10, maximum 100).
	Limit int
}

// Validate validates the query parameters.
func (q *GetLeaderboardQuery) Validate() error {
	if q.ChallengeID == "" {
		return errors.New("challenge_id is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// StandingDTO is one row of the ranked standings.
type StandingDTO struct {
	// Position - 1-based standing, highest progress first.
	Position int `json:"position"`

	// UserID - the participant.
	UserID string `json:"user_id"`

	// Progress toward the challenge target.
	Progress float64 `json:"progress"`
}

// GetLeaderboardResult contains the ranked standings.
type GetLeaderboardResult struct {
	// ChallengeID the standings belong to.
	ChallengeID string `json:"challenge_id"`

	// Standings - the top participants, best first.
	Standings []StandingDTO `json:"standings"`

	// ParticipantCount - total participants, when known.
	ParticipantCount int `json:"participant_count"`

	// ViewerPosition - the viewer's 1-based standing, 0 when absent.
	ViewerPosition int `json:"viewer_position,omitempty"`

	// FromCache - whether the standings came from the cache.
	FromCache bool `json:"from_cache"`

	// GeneratedAt - when the standings were assembled.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler handles challenge leaderboard requests.
type GetLeaderboardHandler struct {
	repo  progress.Repository
	cache *cacheredis.LeaderboardCache
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
// The cache is optional; without it every read uses the fallback.
func NewGetLeaderboardHandler(repo progress.Repository, cache *cacheredis.LeaderboardCache) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{repo: repo, cache: cache}
}

// Handle executes the get leaderboard query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	if result, err := h.tryCache(ctx, query); err == nil {
		return result, nil
	}

	return h.fromAggregate(ctx, query)
}

// tryCache reads the sorted set. An empty set is treated as a miss so
// a cold cache falls through to the aggregate copy.
func (h *GetLeaderboardHandler) tryCache(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if h.cache == nil {
		return nil, errors.New("cache not available")
	}

	entries, err := h.cache.Top(ctx, query.ChallengeID, query.Limit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.New("empty leaderboard set")
	}

	result := &GetLeaderboardResult{
		ChallengeID: query.ChallengeID,
		Standings:   make([]StandingDTO, 0, len(entries)),
		FromCache:   true,
		GeneratedAt: time.Now().UTC(),
	}
	for _, e := range entries {
		result.Standings = append(result.Standings, StandingDTO{
			Position: e.Position,
			UserID:   e.UserID,
			Progress: e.Progress,
		})
	}

	if count, err := h.cache.ParticipantCount(ctx, query.ChallengeID); err == nil {
		result.ParticipantCount = count
	} else {
		result.ParticipantCount = len(entries)
	}

	if query.UserID != "" {
		if pos, err := h.cache.Position(ctx, query.ChallengeID, query.UserID); err == nil {
			result.ViewerPosition = pos
		}
	}

	return result, nil
}

// fromAggregate ranks the leaderboard copy stored on the viewer's own
// aggregate. Requires a viewer; anonymous reads have no fallback.
func (h *GetLeaderboardHandler) fromAggregate(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if query.UserID == "" {
		return nil, shared.NewDomainError("query", "GetLeaderboard", shared.ErrNotFound, "leaderboard not cached and no viewer to read from")
	}

	p, err := h.repo.Load(ctx, query.UserID)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrNotFound, "failed to load viewer progress", err)
	}

	ch := findChallenge(p, query.ChallengeID)
	if ch == nil {
		return nil, shared.ErrChallengeNotFound
	}

	sorted := make([]StandingDTO, 0, len(ch.Leaderboard))
	for _, e := range ch.Leaderboard {
		sorted = append(sorted, StandingDTO{UserID: e.UserID, Progress: e.Progress})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Progress > sorted[j].Progress
	})

	result := &GetLeaderboardResult{
		ChallengeID:      ch.ID,
		ParticipantCount: len(sorted),
		GeneratedAt:      time.Now().UTC(),
	}
	for i := range sorted {
		sorted[i].Position = i + 1
		if sorted[i].UserID == query.UserID {
			result.ViewerPosition = i + 1
		}
	}
	if len(sorted) > query.Limit {
		sorted = sorted[:query.Limit]
	}
	result.Standings = sorted

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET GLOBAL LEADERBOARD QUERY
// Ranks all users by lifetime points, read from the denormalized
// snapshot columns.
// ══════════════════════════════════════════════════════════════════════════════

// PointsReader reads the cross-user points ranking.
type PointsReader interface {
	TopByPoints(ctx context.Context, limit int) ([]postgres.PointsEntry, error)
}

// GetGlobalLeaderboardQuery contains the global ranking parameters.
type GetGlobalLeaderboardQuery struct {
	// Limit - number of entries (default 10, maximum 100).
	Limit int
}

// Validate validates the query parameters.
func (q *GetGlobalLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// GlobalStandingDTO is one row of the global points ranking.
type GlobalStandingDTO struct {
	// Position - 1-based standing.
	Position int `json:"position"`

	// UserID - the ranked user.
	UserID string `json:"user_id"`

	// TotalPoints - lifetime points.
	TotalPoints int `json:"total_points"`

	// Level derived from total points.
	Level int `json:"level"`
}

// GetGlobalLeaderboardResult contains the global ranking.
type GetGlobalLeaderboardResult struct {
	// Standings - the top users, best first.
	Standings []GlobalStandingDTO `json:"standings"`

	// GeneratedAt - when the ranking was assembled.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetGlobalLeaderboardHandler handles global ranking requests.
type GetGlobalLeaderboardHandler struct {
	reader PointsReader
}

// NewGetGlobalLeaderboardHandler creates a new handler.
func NewGetGlobalLeaderboardHandler(reader PointsReader) *GetGlobalLeaderboardHandler {
	return &GetGlobalLeaderboardHandler{reader: reader}
}

// Handle executes the global leaderboard query.
func (h *GetGlobalLeaderboardHandler) Handle(ctx context.Context, query GetGlobalLeaderboardQuery) (*GetGlobalLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetGlobalLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	entries, err := h.reader.TopByPoints(ctx, query.Limit)
	if err != nil {
		return nil, shared.WrapError("query", "GetGlobalLeaderboard", shared.ErrExternalService, "failed to read points ranking", err)
	}

	result := &GetGlobalLeaderboardResult{
		Standings:   make([]GlobalStandingDTO, 0, len(entries)),
		GeneratedAt: time.Now().UTC(),
	}
	for i, e := range entries {
		result.Standings = append(result.Standings, GlobalStandingDTO{
			Position:    i + 1,
			UserID:      e.UserID,
			TotalPoints: e.TotalPoints,
			Level:       e.Level,
		})
	}

	return result, nil
}
