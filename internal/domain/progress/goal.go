package progress

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/blen-hub/blen-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GOAL
// ══════════════════════════════════════════════════════════════════════════════

// GoalType identifies the metric a goal tracks.
type GoalType string

const (
	// GoalDistance - kilometers covered.
	GoalDistance GoalType = "distance"
	// GoalDuration - minutes of activity.
	GoalDuration GoalType = "duration"
	// GoalCalories - kilocalories burned.
	GoalCalories GoalType = "calories"
	// GoalFrequency - number of sessions.
	GoalFrequency GoalType = "frequency"
)

// IsValid checks that the goal type is known.
func (g GoalType) IsValid() bool {
	switch g {
	case GoalDistance, GoalDuration, GoalCalories, GoalFrequency:
		return true
	default:
		return false
	}
}

// Unit returns the display unit of the goal metric.
func (g GoalType) Unit() string {
	switch g {
	case GoalDistance:
		return "km"
	case GoalDuration:
		return "min"
	case GoalCalories:
		return "kcal"
	case GoalFrequency:
		return "times"
	default:
		return ""
	}
}

// GoalPeriod is the recurrence window of a goal.
type GoalPeriod string

const (
	PeriodDaily   GoalPeriod = "daily"
	PeriodWeekly  GoalPeriod = "weekly"
	PeriodMonthly GoalPeriod = "monthly"
)

// IsValid checks that the period is known.
func (p GoalPeriod) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	default:
		return false
	}
}

// End returns the exclusive end of the period window starting at t.
func (p GoalPeriod) End(t time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return timeutil.StartOfDay(t).AddDate(0, 0, 1)
	case PeriodWeekly:
		return timeutil.StartOfWeek(t).AddDate(0, 0, 7)
	case PeriodMonthly:
		return timeutil.StartOfMonth(t).AddDate(0, 1, 0)
	default:
		return timeutil.StartOfDay(t).AddDate(0, 0, 1)
	}
}

// Goal is a recurring personal target.
type Goal struct {
	// ID - unique identifier (UUID string).
	ID string `json:"id"`

	// Type - the metric tracked.
	Type GoalType `json:"type"`

	// Target value in the unit of Type.
	Target float64 `json:"target"`

	// Period - how often the goal resets.
	Period GoalPeriod `json:"period"`

	// StartDate - beginning of the current period window.
	StartDate time.Time `json:"start_date"`

	// Progress accumulated inside the current window.
	Progress float64 `json:"progress"`

	// IsCompleted - whether the target was reached this window.
	// The completion reward is paid once per window.
	IsCompleted bool `json:"is_completed"`
}

var (
	// ErrInvalidGoalType - unknown goal type.
	ErrInvalidGoalType = errors.New("invalid goal type")

	// ErrInvalidGoalPeriod - unknown goal period.
	ErrInvalidGoalPeriod = errors.New("invalid goal period")

	// ErrInvalidGoalTarget - target must be positive.
	ErrInvalidGoalTarget = errors.New("invalid goal target: must be positive")
)

// NewGoal creates a validated goal starting at the given time.
func NewGoal(goalType GoalType, target float64, period GoalPeriod, start time.Time) (*Goal, error) {
	if !goalType.IsValid() {
		return nil, ErrInvalidGoalType
	}
	if !period.IsValid() {
		return nil, ErrInvalidGoalPeriod
	}
	if target <= 0 {
		return nil, ErrInvalidGoalTarget
	}

	return &Goal{
		ID:        uuid.NewString(),
		Type:      goalType,
		Target:    target,
		Period:    period,
		StartDate: start.UTC(),
	}, nil
}

// NeedsRollover reports whether the goal's period window has elapsed.
func (g *Goal) NeedsRollover(now time.Time) bool {
	return !now.Before(g.Period.End(g.StartDate))
}

// Rollover resets the goal for a new period window starting at now.
func (g *Goal) Rollover(now time.Time) {
	g.StartDate = now.UTC()
	g.Progress = 0
	g.IsCompleted = false
}

// DefaultGoals returns the goals seeded for a fresh aggregate.
func DefaultGoals(now time.Time) []Goal {
	now = now.UTC()
	return []Goal{
		{ID: uuid.NewString(), Type: GoalDistance, Target: 5.0, Period: PeriodDaily, StartDate: now},
		{ID: uuid.NewString(), Type: GoalDuration, Target: 30, Period: PeriodDaily, StartDate: now},
		{ID: uuid.NewString(), Type: GoalCalories, Target: 300, Period: PeriodDaily, StartDate: now},
	}
}
