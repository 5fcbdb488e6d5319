package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blen-hub/blen-progress-hub/internal/domain/activity"
	"github.com/blen-hub/blen-progress-hub/internal/domain/challenge"
	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/quiz"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// memRepo is an in-memory progress.Repository for query tests.
type memRepo struct {
	store map[string]*progress.UserProgress
}

func newMemRepo() *memRepo {
	return &memRepo{store: make(map[string]*progress.UserProgress)}
}

func (r *memRepo) Load(ctx context.Context, userID string) (*progress.UserProgress, error) {
	p, ok := r.store[userID]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	return p, nil
}

func (r *memRepo) Save(ctx context.Context, p *progress.UserProgress) error {
	r.store[p.UserID] = p
	return nil
}

func (r *memRepo) Delete(ctx context.Context, userID string) error {
	delete(r.store, userID)
	return nil
}

func (r *memRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.store))
	for id := range r.store {
		ids = append(ids, id)
	}
	return ids, nil
}

// seedActivities stores an aggregate with the given number of running
// sessions, one per day going back from now.
func seedActivities(t *testing.T, repo *memRepo, userID string, count int) *progress.UserProgress {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	p, err := progress.LoadOrCreate(ctx, repo, userID, now)
	require.NoError(t, err)

	for i := count - 1; i >= 0; i-- {
		start := now.Add(-time.Duration(i) * 24 * time.Hour)
		distance := 5.0
		act, err := activity.New(activity.NewParams{
			ID:         "act-" + start.Format("2006-01-02"),
			Type:       activity.TypeRunning,
			Name:       "Run " + start.Format("Jan 2"),
			StartTime:  start,
			Duration:   1800,
			Distance:   &distance,
			Calories:   300,
			Difficulty: shared.DifficultyBeginner,
		})
		require.NoError(t, err)

		_, err = p.RecordActivity(act, start)
		require.NoError(t, err)
	}

	require.NoError(t, repo.Save(ctx, p))
	return p
}

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetProgressHandlerFreshUser(t *testing.T) {
	h := NewGetProgressHandler(newMemRepo())

	result, err := h.Handle(context.Background(), GetProgressQuery{UserID: "newcomer"})
	require.NoError(t, err)

	assert.Equal(t, "newcomer", result.UserID)
	assert.Zero(t, result.TotalPoints)
	assert.Equal(t, 1, result.Level)
	assert.Empty(t, result.RecentActivities)
	assert.Empty(t, result.ActiveChallenges)
	assert.NotEmpty(t, result.Milestones)
}

func TestGetProgressHandlerRecentActivitiesNewestFirst(t *testing.T) {
	repo := newMemRepo()
	seedActivities(t, repo, "user-1", 5)

	h := NewGetProgressHandler(repo)
	result, err := h.Handle(context.Background(), GetProgressQuery{
		UserID:              "user-1",
		RecentActivityLimit: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.ActivityTotal)
	require.Len(t, result.RecentActivities, 3)
	for i := 1; i < len(result.RecentActivities); i++ {
		prev := result.RecentActivities[i-1].StartTime
		curr := result.RecentActivities[i].StartTime
		assert.True(t, prev.After(curr), "recent activities must be newest first")
	}
	assert.Positive(t, result.TotalPoints)
	require.NotNil(t, result.LastActivityDate)
}

func TestGetProgressHandlerValidation(t *testing.T) {
	h := NewGetProgressHandler(newMemRepo())

	_, err := h.Handle(context.Background(), GetProgressQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

// ══════════════════════════════════════════════════════════════════════════════
// GET STATS
// ══════════════════════════════════════════════════════════════════════════════

func TestGetStatsHandlerAllTime(t *testing.T) {
	repo := newMemRepo()
	seedActivities(t, repo, "user-1", 4)

	h := NewGetStatsHandler(repo)
	result, err := h.Handle(context.Background(), GetStatsQuery{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, string(PeriodAllTime), result.Period)
	assert.Nil(t, result.PeriodStart)
	assert.Equal(t, 4, result.ActivityCount)
	assert.InDelta(t, 20.0, result.DistanceKm, 0.001)
	assert.Equal(t, 4, result.ByType[string(activity.TypeRunning)])
}

func TestGetStatsHandlerTodayWindow(t *testing.T) {
	repo := newMemRepo()
	seedActivities(t, repo, "user-1", 4)

	h := NewGetStatsHandler(repo)
	result, err := h.Handle(context.Background(), GetStatsQuery{
		UserID: "user-1",
		Period: PeriodToday,
	})
	require.NoError(t, err)

	// Only the session recorded today falls inside the window.
	assert.Equal(t, string(PeriodToday), result.Period)
	require.NotNil(t, result.PeriodStart)
	assert.Equal(t, 1, result.ActivityCount)
	assert.InDelta(t, 5.0, result.DistanceKm, 0.001)
}

func TestGetStatsHandlerUnknownPeriod(t *testing.T) {
	h := NewGetStatsHandler(newMemRepo())

	_, err := h.Handle(context.Background(), GetStatsQuery{
		UserID: "user-1",
		Period: "fortnight",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD (aggregate fallback)
// ══════════════════════════════════════════════════════════════════════════════

func TestGetLeaderboardHandlerFallback(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	now := time.Now().UTC()

	ch, err := challenge.New(challenge.NewParams{
		ID:        "ch-1",
		Title:     "Century Ride",
		Type:      challenge.TypeDistance,
		Target:    100,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(7 * 24 * time.Hour),
		Reward:    500,
	})
	require.NoError(t, err)
	ch.Join("entry-1", "viewer")
	ch.Join("entry-2", "rival")
	ch.Leaderboard[0].Progress = 40
	ch.Leaderboard[1].Progress = 65

	p, err := progress.LoadOrCreate(ctx, repo, "viewer", now)
	require.NoError(t, err)
	p.ActiveChallenges = append(p.ActiveChallenges, *ch)
	require.NoError(t, repo.Save(ctx, p))

	// No cache wired, so the read falls back to the aggregate copy.
	h := NewGetLeaderboardHandler(repo, nil)
	result, err := h.Handle(ctx, GetLeaderboardQuery{
		ChallengeID: "ch-1",
		UserID:      "viewer",
	})
	require.NoError(t, err)

	assert.False(t, result.FromCache)
	assert.Equal(t, 2, result.ParticipantCount)
	require.Len(t, result.Standings, 2)
	assert.Equal(t, "rival", result.Standings[0].UserID)
	assert.Equal(t, 1, result.Standings[0].Position)
	assert.Equal(t, "viewer", result.Standings[1].UserID)
	assert.Equal(t, 2, result.ViewerPosition)
}

func TestGetLeaderboardHandlerNotJoined(t *testing.T) {
	h := NewGetLeaderboardHandler(newMemRepo(), nil)

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{
		ChallengeID: "ch-unknown",
		UserID:      "viewer",
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE QUIZ
// ══════════════════════════════════════════════════════════════════════════════

func TestGenerateQuizHandler(t *testing.T) {
	h := NewGenerateQuizHandler(quiz.NewSeededGenerator(nil, 7))

	result, err := h.Handle(context.Background(), GenerateQuizQuery{
		Category:      string(quiz.CategorySafetyBasics),
		QuestionCount: 3,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.QuizID)
	assert.Equal(t, string(shared.DifficultyBeginner), result.Difficulty)
	require.Len(t, result.Questions, 3)

	// The DTO hides the answer key; the full quiz keeps it for grading.
	require.NotNil(t, result.Quiz)
	assert.Equal(t, result.QuizID, result.Quiz.ID)
	for i, q := range result.Questions {
		assert.NotEmpty(t, q.Options)
		assert.Equal(t, result.Quiz.Questions[i].ID, q.ID)
	}
}

func TestGenerateQuizHandlerUnknownCategory(t *testing.T) {
	h := NewGenerateQuizHandler(quiz.NewSeededGenerator(nil, 7))

	_, err := h.Handle(context.Background(), GenerateQuizQuery{
		Category:      "knitting",
		QuestionCount: 3,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
}
