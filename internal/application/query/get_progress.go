// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Returns the user's full progress view: lifetime totals, streak, level,
// goals, challenges, milestones and certificates.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery contains the progress request parameters.
type GetProgressQuery struct {
	// UserID identifies whose progress to read.
	UserID string

	// RecentActivityLimit caps the recent activities list
	// (default 10, maximum 50).
	RecentActivityLimit int
}

// Validate validates the query parameters.
func (q *GetProgressQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	if q.RecentActivityLimit < 0 {
		return errors.New("recent activity limit cannot be negative")
	}
	if q.RecentActivityLimit == 0 {
		q.RecentActivityLimit = 10
	}
	if q.RecentActivityLimit > 50 {
		q.RecentActivityLimit = 50
	}
	return nil
}

// GoalDTO is the read model of a recurring goal.
type GoalDTO struct {
	// ID - goal identifier.
	ID string `json:"id"`

	// Type - the metric tracked.
	Type string `json:"type"`

	// Target value in the unit of Type.
	Target float64 `json:"target"`

	// Period - daily, weekly or monthly.
	Period string `json:"period"`

	// Progress accumulated inside the current window.
	Progress float64 `json:"progress"`

	// Completion as a 0.0 to 1.0 share of the target.
	Completion float64 `json:"completion"`

	// IsCompleted - whether the target was reached this window.
	IsCompleted bool `json:"is_completed"`
}

// ChallengeDTO is the read model of a joined challenge.
type ChallengeDTO struct {
	// ID - challenge identifier.
	ID string `json:"id"`

	// Title - display name.
	Title string `json:"title"`

	// Type - the tracked metric.
	Type string `json:"type"`

	// Target value of the challenge.
	Target float64 `json:"target"`

	// Progress - the user's accumulated value.
	Progress float64 `json:"progress"`

	// Reward - points paid on completion.
	Reward int `json:"reward"`

	// EndDate - when the challenge window closes.
	EndDate time.Time `json:"end_date"`

	// IsCompleted - whether the user reached the target.
	IsCompleted bool `json:"is_completed"`
}

// MilestoneDTO is the read model of a one-time milestone.
type MilestoneDTO struct {
	// ID - milestone identifier.
	ID string `json:"id"`

	// Title - display name.
	Title string `json:"title"`

	// Threshold the watched stat must reach.
	Threshold float64 `json:"threshold"`

	// Reward - points paid on achievement.
	Reward int `json:"reward"`

	// IsAchieved - whether the threshold has been crossed.
	IsAchieved bool `json:"is_achieved"`
}

// ActivitySummaryDTO is a compact read model of one recorded session.
type ActivitySummaryDTO struct {
	// ID - activity identifier.
	ID string `json:"id"`

	// Type - the sport performed.
	Type string `json:"type"`

	// Name - user-facing label.
	Name string `json:"name,omitempty"`

	// StartTime of the session.
	StartTime time.Time `json:"start_time"`

	// Duration in seconds.
	Duration float64 `json:"duration"`

	// DistanceKm covered, zero when untracked.
	DistanceKm float64 `json:"distance_km"`

	// Calories burned.
	Calories int `json:"calories"`
}

// CertificateDTO is the read model of an issued certificate.
type CertificateDTO struct {
	// ID - certificate identifier.
	ID string `json:"id"`

	// CourseID the certificate belongs to.
	CourseID string `json:"course_id"`

	// CourseTitle snapshot at issue time.
	CourseTitle string `json:"course_title"`

	// Grade on the A-F scale.
	Grade string `json:"grade"`

	// IssueDate of the certificate.
	IssueDate time.Time `json:"issue_date"`
}

// GetProgressResult contains the full progress view.
type GetProgressResult struct {
	// UserID - owner of the view.
	UserID string `json:"user_id"`

	// TotalPoints - lifetime points earned.
	TotalPoints int `json:"total_points"`

	// Level derived from total points.
	Level int `json:"level"`

	// WeeklyStreak - consecutive-day activity streak.
	WeeklyStreak int `json:"weekly_streak"`

	// TotalDistance - cumulative kilometers.
	TotalDistance float64 `json:"total_distance"`

	// TotalDuration - cumulative seconds.
	TotalDuration float64 `json:"total_duration"`

	// TotalCalories - cumulative kilocalories.
	TotalCalories int `json:"total_calories"`

	// ActivityTotal - number of recorded sessions.
	ActivityTotal int `json:"activity_total"`

	// RecentActivities - latest sessions, newest first.
	RecentActivities []ActivitySummaryDTO `json:"recent_activities"`

	// Goals - the user's recurring goals.
	Goals []GoalDTO `json:"goals"`

	// ActiveChallenges - joined challenges still in play.
	ActiveChallenges []ChallengeDTO `json:"active_challenges"`

	// CompletedChallenges - challenges that finished.
	CompletedChallenges []ChallengeDTO `json:"completed_challenges"`

	// Milestones - one-time achievements, achieved or not.
	Milestones []MilestoneDTO `json:"milestones"`

	// Certificates issued to the user.
	Certificates []CertificateDTO `json:"certificates"`

	// FavoriteAdventures - adventure ids marked as favorites.
	FavoriteAdventures []string `json:"favorite_adventures"`

	// CompletedAdventures - number of completed adventures.
	CompletedAdventures int `json:"completed_adventures"`

	// CompletedLessons - number of completed lessons.
	CompletedLessons int `json:"completed_lessons"`

	// LastActivityDate - start time of the most recent session.
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`

	// GeneratedAt - when the view was assembled.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetProgressHandler handles progress view requests.
type GetProgressHandler struct {
	repo progress.Repository
}

// NewGetProgressHandler creates a new GetProgressHandler.
func NewGetProgressHandler(repo progress.Repository) *GetProgressHandler {
	return &GetProgressHandler{repo: repo}
}

// Handle executes the get progress query. A user with no stored
// document gets the freshly seeded default view.
func (h *GetProgressHandler) Handle(ctx context.Context, query GetProgressQuery) (*GetProgressResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetProgress", shared.ErrValidation, err.Error(), err)
	}

	p, err := progress.LoadOrCreate(ctx, h.repo, query.UserID, time.Now().UTC())
	if err != nil {
		return nil, shared.WrapError("query", "GetProgress", shared.ErrInvalidID, "failed to load progress", err)
	}

	return h.buildResult(p, query.RecentActivityLimit), nil
}

func (h *GetProgressHandler) buildResult(p *progress.UserProgress, recentLimit int) *GetProgressResult {
	result := &GetProgressResult{
		UserID:              p.UserID,
		TotalPoints:         p.TotalPoints,
		Level:               p.Level,
		WeeklyStreak:        p.WeeklyStreak,
		TotalDistance:       p.TotalDistance,
		TotalDuration:       p.TotalDuration,
		TotalCalories:       p.TotalCalories,
		ActivityTotal:       len(p.Activities),
		RecentActivities:    recentActivities(p, recentLimit),
		Goals:               make([]GoalDTO, 0, len(p.Goals)),
		ActiveChallenges:    make([]ChallengeDTO, 0, len(p.ActiveChallenges)),
		CompletedChallenges: make([]ChallengeDTO, 0, len(p.CompletedChallenges)),
		Milestones:          make([]MilestoneDTO, 0, len(p.Milestones)),
		Certificates:        make([]CertificateDTO, 0, len(p.Certificates)),
		FavoriteAdventures:  make([]string, 0, len(p.FavoriteAdventures)),
		CompletedAdventures: len(p.CompletedAdventures),
		CompletedLessons:    len(p.CompletedLessons),
		LastActivityDate:    p.LastActivityDate,
		GeneratedAt:         time.Now().UTC(),
	}

	for _, g := range p.Goals {
		completion := 0.0
		if g.Target > 0 {
			completion = g.Progress / g.Target
			if completion > 1 {
				completion = 1
			}
		}
		result.Goals = append(result.Goals, GoalDTO{
			ID:          g.ID,
			Type:        string(g.Type),
			Target:      g.Target,
			Period:      string(g.Period),
			Progress:    g.Progress,
			Completion:  completion,
			IsCompleted: g.IsCompleted,
		})
	}

	for i := range p.ActiveChallenges {
		result.ActiveChallenges = append(result.ActiveChallenges, challengeDTO(p, i, false))
	}
	for i := range p.CompletedChallenges {
		result.CompletedChallenges = append(result.CompletedChallenges, challengeDTO(p, i, true))
	}

	for _, m := range p.Milestones {
		result.Milestones = append(result.Milestones, MilestoneDTO{
			ID:         m.ID,
			Title:      m.Title,
			Threshold:  m.Threshold,
			Reward:     m.Reward,
			IsAchieved: m.IsAchieved,
		})
	}

	for _, c := range p.Certificates {
		result.Certificates = append(result.Certificates, CertificateDTO{
			ID:          c.ID,
			CourseID:    c.CourseID,
			CourseTitle: c.CourseTitle,
			Grade:       string(c.Grade),
			IssueDate:   c.IssueDate,
		})
	}

	for id, fav := range p.FavoriteAdventures {
		if fav {
			result.FavoriteAdventures = append(result.FavoriteAdventures, id)
		}
	}

	return result
}

// challengeDTO builds the read model for one joined challenge.
// Progress is taken from the user's own leaderboard entry.
func challengeDTO(p *progress.UserProgress, index int, completed bool) ChallengeDTO {
	ch := &p.ActiveChallenges[index]
	if completed {
		ch = &p.CompletedChallenges[index]
	}

	var userProgress float64
	if entry, err := ch.EntryFor(p.UserID); err == nil {
		userProgress = entry.Progress
	}

	return ChallengeDTO{
		ID:          ch.ID,
		Title:       ch.Title,
		Type:        ch.Type.String(),
		Target:      ch.Target,
		Progress:    userProgress,
		Reward:      ch.Reward,
		EndDate:     ch.EndDate,
		IsCompleted: userProgress >= ch.Target,
	}
}

// recentActivities returns the newest sessions first.
// Activities are append-only, so the tail of the list is the newest.
func recentActivities(p *progress.UserProgress, limit int) []ActivitySummaryDTO {
	n := len(p.Activities)
	if limit > n {
		limit = n
	}

	out := make([]ActivitySummaryDTO, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		act := &p.Activities[i]
		out = append(out, ActivitySummaryDTO{
			ID:         act.ID,
			Type:       act.Type.String(),
			Name:       act.Name,
			StartTime:  act.StartTime,
			Duration:   act.Duration,
			DistanceKm: act.DistanceKm(),
			Calories:   act.Calories,
		})
	}
	return out
}
