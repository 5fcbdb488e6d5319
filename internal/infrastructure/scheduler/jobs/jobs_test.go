package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blen-hub/blen-progress-hub/internal/domain/challenge"
	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// memRepo is an in-memory progress.Repository for job tests.
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

// memLocker always grants the lock unless told otherwise.
type memLocker struct {
	denied bool
	calls  int
}

func (l *memLocker) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	l.calls++
	return !l.denied, nil
}

// memPublisher collects published events.
type memPublisher struct {
	events []shared.Event
}

func (p *memPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func pastChallenge(t *testing.T, id string) challenge.Challenge {
	t.Helper()
	now := time.Now().UTC()
	ch, err := challenge.New(challenge.NewParams{
		ID:        id,
		Title:     "Spring Distance Dash",
		Type:      challenge.TypeDistance,
		Target:    20,
		StartDate: now.AddDate(0, 0, -14),
		EndDate:   now.AddDate(0, 0, -7),
		Reward:    200,
	})
	require.NoError(t, err)
	return *ch
}

func TestExpireChallengesJob_MovesEndedChallenges(t *testing.T) {
	repo := newMemRepo()
	now := time.Now().UTC()

	p, err := progress.New("user-1", now.AddDate(0, 0, -20))
	require.NoError(t, err)
	require.True(t, p.JoinChallenge(pastChallenge(t, "ch-1"), now.AddDate(0, 0, -10)))
	repo.store["user-1"] = p

	fresh, err := progress.New("user-2", now)
	require.NoError(t, err)
	repo.store["user-2"] = fresh

	publisher := &memPublisher{}
	locker := &memLocker{}
	job := NewExpireChallengesJob(repo, publisher, locker, "lock:expire", nil)

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 1, locker.calls)
	assert.Empty(t, repo.store["user-1"].ActiveChallenges)
	require.Len(t, repo.store["user-1"].CompletedChallenges, 1)
	assert.Equal(t, "ch-1", repo.store["user-1"].CompletedChallenges[0].ID)
	assert.Equal(t, 0, repo.store["user-1"].TotalPoints, "expiry awards no points")

	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventChallengeExpired, publisher.events[0].EventType())
	assert.Equal(t, "user-1", publisher.events[0].AggregateID())

	// Untouched user is not re-saved.
	assert.Equal(t, 1, repo.saves)
}

func TestExpireChallengesJob_SkipsWhenLockDenied(t *testing.T) {
	repo := newMemRepo()
	locker := &memLocker{denied: true}
	job := NewExpireChallengesJob(repo, &memPublisher{}, locker, "lock:expire", nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, repo.saves)
}

func TestRolloverGoalsJob_ResetsElapsedGoals(t *testing.T) {
	repo := newMemRepo()
	start := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	p, err := progress.New("user-1", start)
	require.NoError(t, err)
	repo.store["user-1"] = p

	job := NewRolloverGoalsJob(repo, &memPublisher{}, &memLocker{}, "lock:rollover", nil)
	require.NoError(t, job.Run(context.Background()))

	// Seeded goals are daily and started long before now; all three roll.
	for _, g := range repo.store["user-1"].Goals {
		assert.Zero(t, g.Progress)
		assert.False(t, g.IsCompleted)
	}
	assert.Equal(t, 1, repo.saves)

	// A second run on the same day rolls nothing further.
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, repo.saves)
}
