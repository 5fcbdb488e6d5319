package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

func validParams() NewParams {
	return NewParams{
		ID:         "act-1",
		Type:       TypeHiking,
		StartTime:  time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC),
		Duration:   3600,
		Difficulty: shared.DifficultyIntermediate,
	}
}

func TestNew_Valid(t *testing.T) {
	dist := 5.5
	params := validParams()
	params.Distance = &dist
	params.Calories = 420

	act, err := New(params)
	require.NoError(t, err)

	assert.Equal(t, "act-1", act.ID)
	assert.Equal(t, TypeHiking, act.Type)
	assert.Equal(t, 420, act.Calories)
	assert.Equal(t, 5.5, act.DistanceKm())
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NewParams)
		wantErr error
	}{
		{"missing id", func(p *NewParams) { p.ID = "" }, ErrMissingID},
		{"unknown type", func(p *NewParams) { p.Type = "skydiving" }, ErrInvalidType},
		{"unknown difficulty", func(p *NewParams) { p.Difficulty = "insane" }, ErrInvalidDifficulty},
		{"zero duration", func(p *NewParams) { p.Duration = 0 }, ErrInvalidDuration},
		{"negative duration", func(p *NewParams) { p.Duration = -60 }, ErrInvalidDuration},
		{"zero start time", func(p *NewParams) { p.StartTime = time.Time{} }, ErrZeroStartTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)

			_, err := New(params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew_NegativeDistance(t *testing.T) {
	dist := -1.0
	params := validParams()
	params.Distance = &dist

	_, err := New(params)
	assert.ErrorIs(t, err, ErrInvalidDistance)
}

func TestNew_EstimatesCaloriesWhenAbsent(t *testing.T) {
	params := validParams()
	params.Calories = 0

	act, err := New(params)
	require.NoError(t, err)

	// Hiking: MET 6.0 * 70kg * 1 hour.
	assert.Equal(t, 420, act.Calories)
}

func TestEstimateCalories(t *testing.T) {
	assert.Equal(t, 420, EstimateCalories(TypeHiking, 3600))
	assert.Equal(t, 297, EstimateCalories(TypeRunning, 1800))
	assert.Equal(t, 105, EstimateCalories(TypeYoga, 1800))
}

func TestTypeDisplayName(t *testing.T) {
	assert.Equal(t, "Hiking", TypeHiking.DisplayName())
	assert.Equal(t, "Rock Climbing", TypeClimbing.DisplayName())
	assert.Equal(t, "Mountain Biking", TypeBiking.DisplayName())
	assert.Equal(t, "Swimming", TypeSwimming.DisplayName())
	assert.Equal(t, "Running", TypeRunning.DisplayName())
	assert.Equal(t, "Yoga", TypeYoga.DisplayName())
}

func TestElevationGain(t *testing.T) {
	base := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	act := &SportActivity{
		Route: []TrackPoint{
			{Altitude: 100, Timestamp: base},
			{Altitude: 150, Timestamp: base.Add(time.Minute)},
			{Altitude: 140, Timestamp: base.Add(2 * time.Minute)},
			{Altitude: 180, Timestamp: base.Add(3 * time.Minute)},
		},
	}

	// Descents are ignored: +50 and +40 only.
	assert.Equal(t, 90.0, act.ElevationGain())
}

func TestElevationGain_NoRoute(t *testing.T) {
	act := &SportActivity{}
	assert.Equal(t, 0.0, act.ElevationGain())

	act.Route = []TrackPoint{{Altitude: 100}}
	assert.Equal(t, 0.0, act.ElevationGain())
}

func TestCompletionPoints(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		diff     shared.Difficulty
		advID    string
		want     int
	}{
		{"10min advanced no link", 600, shared.DifficultyAdvanced, "", 27},
		{"1h beginner", 3600, shared.DifficultyBeginner, "", 27},
		{"1h expert linked", 3600, shared.DifficultyExpert, "adv-1", 57},
		{"short intermediate", 200, shared.DifficultyIntermediate, "", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := &SportActivity{
				Duration:           tt.duration,
				Difficulty:         tt.diff,
				RelatedAdventureID: tt.advID,
			}
			assert.Equal(t, tt.want, act.CompletionPoints())
		})
	}
}
