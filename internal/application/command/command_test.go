package command

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

// memRepo is an in-memory progress.Repository for handler tests.
type memRepo struct {
	store map[string]*progress.UserProgress
	saves int
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
	r.saves++
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

// memPublisher collects published events.
type memPublisher struct {
	events []shared.Event
}

func (p *memPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

// memChallenges serves challenges by ID.
type memChallenges struct {
	byID map[string]*challenge.Challenge
}

func (c *memChallenges) GetByID(ctx context.Context, id string) (*challenge.Challenge, error) {
	ch, ok := c.byID[id]
	if !ok {
		return nil, shared.ErrChallengeNotFound
	}
	return ch, nil
}

// memArchiver collects archived certificates.
type memArchiver struct {
	certs []progress.Certificate
}

func (a *memArchiver) ArchiveCertificate(ctx context.Context, userID string, cert progress.Certificate) error {
	a.certs = append(a.certs, cert)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY
// ══════════════════════════════════════════════════════════════════════════════

func TestRecordActivityHandler(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	pub := &memPublisher{}
	h := NewRecordActivityHandler(repo, pub, nil)

	distance := 8.5
	result, err := h.Handle(ctx, RecordActivityCommand{
		UserID:    "user-1",
		Type:      activity.TypeRunning,
		Name:      "Morning trail run",
		StartTime: time.Now().UTC().Add(-time.Hour),
		Duration:  3600,
		Distance:  &distance,
		Calories:  540,
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", result.UserID)
	assert.NotEmpty(t, result.ActivityID)
	assert.Positive(t, result.PointsAwarded)
	assert.Equal(t, result.TotalPoints, result.PointsAwarded)
	assert.Equal(t, 1, result.Streak)

	stored, err := repo.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, stored.Activities, 1)
	assert.Equal(t, 1, stored.ActivityCount[activity.TypeRunning])
	assert.InDelta(t, 8.5, stored.TotalDistance, 0.001)

	require.NotEmpty(t, pub.events)
	assert.Equal(t, shared.EventActivityRecorded, pub.events[0].EventType())
}

func TestRecordActivityHandlerValidation(t *testing.T) {
	h := NewRecordActivityHandler(newMemRepo(), nil, nil)

	tests := []struct {
		name string
		cmd  RecordActivityCommand
	}{
		{"missing user", RecordActivityCommand{Type: activity.TypeHiking, Duration: 60}},
		{"unknown type", RecordActivityCommand{UserID: "u", Type: "skydiving", Duration: 60}},
		{"zero duration", RecordActivityCommand{UserID: "u", Type: activity.TypeHiking}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tt.cmd)
			assert.Error(t, err)
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GOALS
// ══════════════════════════════════════════════════════════════════════════════

func TestGoalLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	pub := &memPublisher{}

	addHandler := NewAddGoalHandler(repo, nil)
	added, err := addHandler.Handle(ctx, AddGoalCommand{
		UserID: "user-1",
		Type:   progress.GoalDistance,
		Target: 20,
		Period: progress.PeriodWeekly,
	})
	require.NoError(t, err)
	require.NotEmpty(t, added.GoalID)

	updateHandler := NewUpdateGoalProgressHandler(repo, pub, nil)

	partial, err := updateHandler.Handle(ctx, UpdateGoalProgressCommand{
		UserID: "user-1",
		GoalID: added.GoalID,
		Value:  12,
	})
	require.NoError(t, err)
	assert.False(t, partial.Completed)

	done, err := updateHandler.Handle(ctx, UpdateGoalProgressCommand{
		UserID: "user-1",
		GoalID: added.GoalID,
		Value:  20,
	})
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.Positive(t, done.TotalPoints)

	require.NotEmpty(t, pub.events)
	assert.Equal(t, shared.EventGoalCompleted, pub.events[len(pub.events)-1].EventType())
}

func TestUpdateGoalProgressUnknownGoal(t *testing.T) {
	h := NewUpdateGoalProgressHandler(newMemRepo(), nil, nil)

	_, err := h.Handle(context.Background(), UpdateGoalProgressCommand{
		UserID: "user-1",
		GoalID: "missing",
		Value:  5,
	})
	assert.Error(t, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// JOIN CHALLENGE
// ══════════════════════════════════════════════════════════════════════════════

func openChallenge(t *testing.T, id string) *challenge.Challenge {
	t.Helper()
	now := time.Now().UTC()
	ch, err := challenge.New(challenge.NewParams{
		ID:        id,
		Title:     "Summer Summit Series",
		Type:      challenge.TypeDistance,
		Target:    100,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(14 * 24 * time.Hour),
		Reward:    250,
	})
	require.NoError(t, err)
	return ch
}

func TestJoinChallengeHandler(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	pub := &memPublisher{}
	source := &memChallenges{byID: map[string]*challenge.Challenge{
		"ch-1": openChallenge(t, "ch-1"),
	}}
	h := NewJoinChallengeHandler(repo, source, pub, nil)

	result, err := h.Handle(ctx, JoinChallengeCommand{UserID: "user-1", ChallengeID: "ch-1"})
	require.NoError(t, err)
	assert.True(t, result.Joined)
	assert.Equal(t, "Summer Summit Series", result.Title)
	assert.Equal(t, 1, result.Rank)

	// Joining again is a no-op, not an error.
	again, err := h.Handle(ctx, JoinChallengeCommand{UserID: "user-1", ChallengeID: "ch-1"})
	require.NoError(t, err)
	assert.False(t, again.Joined)

	stored, err := repo.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, stored.ActiveChallenges, 1)
}

func TestJoinChallengeHandlerEnded(t *testing.T) {
	now := time.Now().UTC()
	ended, err := challenge.New(challenge.NewParams{
		ID:        "ch-old",
		Title:     "Winter Wrap-Up",
		Type:      challenge.TypeDistance,
		Target:    50,
		StartDate: now.Add(-30 * 24 * time.Hour),
		EndDate:   now.Add(-24 * time.Hour),
		Reward:    100,
	})
	require.NoError(t, err)

	source := &memChallenges{byID: map[string]*challenge.Challenge{"ch-old": ended}}
	h := NewJoinChallengeHandler(newMemRepo(), source, nil, nil)

	_, err = h.Handle(context.Background(), JoinChallengeCommand{UserID: "user-1", ChallengeID: "ch-old"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT QUIZ
// ══════════════════════════════════════════════════════════════════════════════

func generatedQuiz(t *testing.T, count int) *quiz.Quiz {
	t.Helper()
	gen := quiz.NewSeededGenerator(nil, 42)
	q, err := gen.Generate(context.Background(), quiz.CategorySafetyBasics, shared.DifficultyBeginner, count)
	require.NoError(t, err)
	return q
}

func correctAnswers(q *quiz.Quiz) []int {
	answers := make([]int, len(q.Questions))
	for i, question := range q.Questions {
		answers[i] = question.CorrectAnswer
	}
	return answers
}

func TestSubmitQuizHandlerPass(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	pub := &memPublisher{}
	archiver := &memArchiver{}
	h := NewSubmitQuizHandler(repo, archiver, pub, nil)

	q := generatedQuiz(t, 3)
	result, err := h.Handle(ctx, SubmitQuizCommand{
		UserID:      "user-1",
		Quiz:        q,
		Answers:     correctAnswers(q),
		CourseTitle: "Trailhead Safety 101",
	})
	require.NoError(t, err)

	assert.Equal(t, len(q.Questions), result.Score)
	assert.Equal(t, len(q.Questions), result.OutOf)
	assert.True(t, result.Passed)
	assert.Positive(t, result.PointsAwarded)
	require.NotNil(t, result.Certificate)
	assert.Equal(t, "Trailhead Safety 101", result.Certificate.CourseTitle)

	require.Len(t, archiver.certs, 1)

	stored, err := repo.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Contains(t, stored.QuizScores, q.ID)
}

func TestSubmitQuizHandlerFailAwardsPoints(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	h := NewSubmitQuizHandler(repo, nil, nil, nil)

	q := generatedQuiz(t, 4)
	// All answers wrong: index past the option count never matches.
	wrong := make([]int, len(q.Questions))
	for i := range wrong {
		wrong[i] = -1
	}

	result, err := h.Handle(ctx, SubmitQuizCommand{
		UserID:  "user-1",
		Quiz:    q,
		Answers: wrong,
	})
	require.NoError(t, err)

	assert.Zero(t, result.Score)
	assert.False(t, result.Passed)
	assert.Positive(t, result.PointsAwarded)
	assert.Nil(t, result.Certificate)
}

func TestSubmitQuizHandlerRejectsResubmission(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	h := NewSubmitQuizHandler(repo, nil, nil, nil)

	q := generatedQuiz(t, 3)
	_, err := h.Handle(ctx, SubmitQuizCommand{
		UserID:  "user-1",
		Quiz:    q,
		Answers: correctAnswers(q),
	})
	require.NoError(t, err)

	_, err = h.Handle(ctx, SubmitQuizCommand{
		UserID:  "user-1",
		Quiz:    q,
		Answers: correctAnswers(q),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, quiz.ErrAlreadySubmitted)
}
