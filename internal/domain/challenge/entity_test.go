package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blen-hub/blen-progress-hub/internal/domain/activity"
)

func newTestChallenge(t *testing.T, chType Type, target float64) *Challenge {
	t.Helper()

	c, err := New(NewParams{
		ID:        "ch-1",
		Title:     "Summit Week",
		Type:      chType,
		Target:    target,
		StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 7, 23, 59, 59, 0, time.UTC),
		Reward:    200,
	})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := New(NewParams{Type: TypeDistance, Target: 10, StartDate: start, EndDate: start})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = New(NewParams{ID: "x", Type: "teleport", Target: 10, StartDate: start, EndDate: start})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = New(NewParams{ID: "x", Type: TypeDistance, Target: 0, StartDate: start, EndDate: start})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = New(NewParams{ID: "x", Type: TypeDistance, Target: 10, StartDate: start, EndDate: start.Add(-time.Hour)})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestJoin_AssignsRankAtJoinTime(t *testing.T) {
	c := newTestChallenge(t, TypeDistance, 50)

	c.Join("e-1", "user-a")
	c.Join("e-2", "user-b")
	c.Join("e-3", "user-c")

	require.Len(t, c.Leaderboard, 3)
	assert.Equal(t, 1, c.Leaderboard[0].Rank)
	assert.Equal(t, 2, c.Leaderboard[1].Rank)
	assert.Equal(t, 3, c.Leaderboard[2].Rank)
}

func TestJoin_Idempotent(t *testing.T) {
	c := newTestChallenge(t, TypeDistance, 50)

	c.Join("e-1", "user-a")
	c.Join("e-dup", "user-a")

	assert.Len(t, c.Participants, 1)
	assert.Len(t, c.Leaderboard, 1)
}

func TestEntryFor_NotJoined(t *testing.T) {
	c := newTestChallenge(t, TypeDistance, 50)

	_, err := c.EntryFor("stranger")
	assert.ErrorIs(t, err, ErrNotJoined)
}

func TestContains_InclusiveWindow(t *testing.T) {
	c := newTestChallenge(t, TypeDistance, 50)

	assert.True(t, c.Contains(c.StartDate))
	assert.True(t, c.Contains(c.EndDate))
	assert.True(t, c.Contains(c.StartDate.Add(48*time.Hour)))
	assert.False(t, c.Contains(c.StartDate.Add(-time.Second)))
	assert.False(t, c.Contains(c.EndDate.Add(time.Second)))
}

func TestProgressDelta(t *testing.T) {
	dist := 12.5
	base := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	act := &activity.SportActivity{
		Type:      activity.TypeHiking,
		StartTime: base,
		Duration:  5400,
		Distance:  &dist,
		Route: []activity.TrackPoint{
			{Altitude: 400, Timestamp: base},
			{Altitude: 650, Timestamp: base.Add(30 * time.Minute)},
			{Altitude: 600, Timestamp: base.Add(time.Hour)},
		},
	}

	assert.Equal(t, 12.5, newTestChallenge(t, TypeDistance, 50).ProgressDelta(act))
	assert.Equal(t, 250.0, newTestChallenge(t, TypeElevation, 1000).ProgressDelta(act))
	assert.Equal(t, 1.0, newTestChallenge(t, TypeActivities, 5).ProgressDelta(act))
	assert.Equal(t, 5400.0, newTestChallenge(t, TypeDuration, 36000).ProgressDelta(act))
}

func TestProgressDelta_NoDistanceNoRoute(t *testing.T) {
	act := &activity.SportActivity{Type: activity.TypeYoga, Duration: 1800}

	assert.Equal(t, 0.0, newTestChallenge(t, TypeDistance, 50).ProgressDelta(act))
	assert.Equal(t, 0.0, newTestChallenge(t, TypeElevation, 1000).ProgressDelta(act))
}

func TestApplyActivity(t *testing.T) {
	c := newTestChallenge(t, TypeDistance, 20)
	c.Join("e-1", "user-a")

	dist := 12.0
	act := &activity.SportActivity{
		StartTime: time.Date(2026, 6, 3, 10, 0, 0, 0, time.UTC),
		Distance:  &dist,
	}

	completed, err := c.ApplyActivity("user-a", act)
	require.NoError(t, err)
	assert.False(t, completed)

	completed, err = c.ApplyActivity("user-a", act)
	require.NoError(t, err)
	assert.True(t, completed)

	entry, err := c.EntryFor("user-a")
	require.NoError(t, err)
	assert.Equal(t, 24.0, entry.Progress)
}

func TestApplyActivity_OutsideWindow(t *testing.T) {
	c := newTestChallenge(t, TypeActivities, 1)
	c.Join("e-1", "user-a")

	act := &activity.SportActivity{
		StartTime: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
	}

	completed, err := c.ApplyActivity("user-a", act)
	require.NoError(t, err)
	assert.False(t, completed)

	entry, err := c.EntryFor("user-a")
	require.NoError(t, err)
	assert.Equal(t, 0.0, entry.Progress)
}

func TestIsExpired(t *testing.T) {
	c := newTestChallenge(t, TypeDistance, 50)

	assert.False(t, c.IsExpired(c.EndDate))
	assert.True(t, c.IsExpired(c.EndDate.Add(time.Minute)))
}
