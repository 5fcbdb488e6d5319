package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
	"github.com/blen-hub/blen-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATS QUERY
// Aggregates the user's activities over a period: today, this week,
// this month or all time.
// ══════════════════════════════════════════════════════════════════════════════

// StatsPeriod selects the aggregation window.
type StatsPeriod string

const (
	PeriodToday     StatsPeriod = "today"
	PeriodThisWeek  StatsPeriod = "week"
	PeriodThisMonth StatsPeriod = "month"
	PeriodAllTime   StatsPeriod = "all"
)

// IsValid reports whether the period is one of the known windows.
func (p StatsPeriod) IsValid() bool {
	switch p {
	case PeriodToday, PeriodThisWeek, PeriodThisMonth, PeriodAllTime:
		return true
	}
	return false
}

// Start returns the inclusive window start for the period.
// The zero time means unbounded.
func (p StatsPeriod) Start(now time.Time) time.Time {
	switch p {
	case PeriodToday:
		return timeutil.StartOfDay(now)
	case PeriodThisWeek:
		return timeutil.StartOfWeek(now)
	case PeriodThisMonth:
		return timeutil.StartOfMonth(now)
	default:
		return time.Time{}
	}
}

// GetStatsQuery contains the stats request parameters.
type GetStatsQuery struct {
	// UserID identifies whose activities to aggregate.
	UserID string

	// Period - today, week, month or all (default all).
	Period StatsPeriod
}

// Validate validates the query parameters.
func (q *GetStatsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	if q.Period == "" {
		q.Period = PeriodAllTime
	}
	if !q.Period.IsValid() {
		return fmt.Errorf("unknown period %q", q.Period)
	}
	return nil
}

// GetStatsResult contains the aggregated stats for the window.
type GetStatsResult struct {
	// UserID - owner of the stats.
	UserID string `json:"user_id"`

	// Period the stats were aggregated over.
	Period string `json:"period"`

	// PeriodStart - inclusive window start, absent for all time.
	PeriodStart *time.Time `json:"period_start,omitempty"`

	// ActivityCount - sessions inside the window.
	ActivityCount int `json:"activity_count"`

	// DistanceKm covered inside the window.
	DistanceKm float64 `json:"distance_km"`

	// DurationSeconds spent active inside the window.
	DurationSeconds float64 `json:"duration_seconds"`

	// Calories burned inside the window.
	Calories int `json:"calories"`

	// ByType - session count per activity type.
	ByType map[string]int `json:"by_type"`

	// WeeklyStreak - current consecutive-day streak.
	WeeklyStreak int `json:"weekly_streak"`

	// TotalPoints - lifetime points, not windowed.
	TotalPoints int `json:"total_points"`

	// Level - current level, not windowed.
	Level int `json:"level"`

	// GoalsCompleted - goals completed in their current window.
	GoalsCompleted int `json:"goals_completed"`

	// GoalsTotal - recurring goals configured.
	GoalsTotal int `json:"goals_total"`

	// GeneratedAt - when the stats were assembled.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetStatsHandler handles stats requests.
type GetStatsHandler struct {
	repo progress.Repository
}

// NewGetStatsHandler creates a new GetStatsHandler.
func NewGetStatsHandler(repo progress.Repository) *GetStatsHandler {
	return &GetStatsHandler{repo: repo}
}

// Handle executes the get stats query.
func (h *GetStatsHandler) Handle(ctx context.Context, query GetStatsQuery) (*GetStatsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetStats", shared.ErrValidation, err.Error(), err)
	}

	now := time.Now().UTC()
	p, err := progress.LoadOrCreate(ctx, h.repo, query.UserID, now)
	if err != nil {
		return nil, shared.WrapError("query", "GetStats", shared.ErrInvalidID, "failed to load progress", err)
	}

	result := &GetStatsResult{
		UserID:       p.UserID,
		Period:       string(query.Period),
		ByType:       make(map[string]int),
		WeeklyStreak: p.WeeklyStreak,
		TotalPoints:  p.TotalPoints,
		Level:        p.Level,
		GoalsTotal:   len(p.Goals),
		GeneratedAt:  now,
	}

	for _, g := range p.Goals {
		if g.IsCompleted {
			result.GoalsCompleted++
		}
	}

	if query.Period == PeriodAllTime {
		// Lifetime totals are maintained on the aggregate itself.
		result.ActivityCount = len(p.Activities)
		result.DistanceKm = p.TotalDistance
		result.DurationSeconds = p.TotalDuration
		result.Calories = p.TotalCalories
		for t, count := range p.ActivityCount {
			result.ByType[t.String()] = count
		}
		return result, nil
	}

	start := query.Period.Start(now)
	result.PeriodStart = &start

	for i := range p.Activities {
		act := &p.Activities[i]
		if act.StartTime.Before(start) {
			continue
		}
		result.ActivityCount++
		result.DistanceKm += act.DistanceKm()
		result.DurationSeconds += act.Duration
		result.Calories += act.Calories
		result.ByType[act.Type.String()]++
	}

	return result, nil
}
