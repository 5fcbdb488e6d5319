// Package challenge contains the time-boxed competitive challenge model:
// challenge types, the per-participant leaderboard, and the progress
// rules that complete a challenge.
package challenge

import (
	"errors"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/activity"
	"github.com/blen-hub/blen-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Type identifies the metric a challenge competes on.
type Type string

const (
	// TypeDistance - total kilometers covered.
	TypeDistance Type = "distance"
	// TypeElevation - total meters of elevation gained.
	TypeElevation Type = "elevation"
	// TypeActivities - number of sessions recorded.
	TypeActivities Type = "activities"
	// TypeDuration - total seconds of activity.
	TypeDuration Type = "duration"
)

// IsValid checks that the type is one of the known challenge types.
func (t Type) IsValid() bool {
	switch t {
	case TypeDistance, TypeElevation, TypeActivities, TypeDuration:
		return true
	default:
		return false
	}
}

// String returns the string representation of the type.
func (t Type) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardEntry tracks one participant's progress in a challenge.
type LeaderboardEntry struct {
	// ID - unique identifier of the entry (UUID string).
	ID string `json:"id"`

	// UserID - the participant this entry belongs to.
	UserID string `json:"user_id"`

	// Progress accumulated toward the challenge target.
	Progress float64 `json:"progress"`

	// Rank assigned when the participant joined. It equals the
	// participant count at join time and is not recomputed afterwards.
	Rank int `json:"rank"`
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: CHALLENGE
// ══════════════════════════════════════════════════════════════════════════════

// Challenge is a time-boxed competitive goal with a leaderboard. A
// challenge is active from the moment a user joins and completes
// exactly once, when any leaderboard entry reaches the target.
type Challenge struct {
	// ID - unique identifier (UUID string).
	ID string `json:"id"`

	// Title - display name of the challenge.
	Title string `json:"title"`

	// Description - what the challenge is about.
	Description string `json:"description,omitempty"`

	// Type - the metric the challenge competes on.
	Type Type `json:"type"`

	// Target value in the unit of Type (km, meters, count, seconds).
	Target float64 `json:"target"`

	// StartDate - beginning of the challenge window (inclusive).
	StartDate time.Time `json:"start_date"`

	// EndDate - end of the challenge window (inclusive).
	EndDate time.Time `json:"end_date"`

	// Reward - points awarded when a participant reaches the target.
	Reward int `json:"reward"`

	// Participants - ids of every user who joined.
	Participants []string `json:"participants"`

	// Leaderboard - per-participant progress entries.
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrMissingID - the challenge has no identifier.
	ErrMissingID = errors.New("challenge id is required")

	// ErrInvalidType - unknown challenge type.
	ErrInvalidType = errors.New("invalid challenge type")

	// ErrInvalidTarget - target must be positive.
	ErrInvalidTarget = errors.New("invalid challenge target: must be positive")

	// ErrInvalidWindow - end date must not precede start date.
	ErrInvalidWindow = errors.New("invalid challenge window: end date before start date")

	// ErrNotJoined - the user has no leaderboard entry in this challenge.
	ErrNotJoined = errors.New("user has not joined this challenge")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewParams holds the parameters for creating a challenge.
type NewParams struct {
	ID          string
	Title       string
	Description string
	Type        Type
	Target      float64
	StartDate   time.Time
	EndDate     time.Time
	Reward      int
}

// New creates a validated Challenge with an empty leaderboard.
func New(params NewParams) (*Challenge, error) {
	if params.ID == "" {
		return nil, ErrMissingID
	}
	if !params.Type.IsValid() {
		return nil, ErrInvalidType
	}
	if params.Target <= 0 {
		return nil, ErrInvalidTarget
	}
	if params.EndDate.Before(params.StartDate) {
		return nil, ErrInvalidWindow
	}

	return &Challenge{
		ID:           params.ID,
		Title:        params.Title,
		Description:  params.Description,
		Type:         params.Type,
		Target:       params.Target,
		StartDate:    params.StartDate.UTC(),
		EndDate:      params.EndDate.UTC(),
		Reward:       params.Reward,
		Participants: []string{},
		Leaderboard:  []LeaderboardEntry{},
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// HasParticipant reports whether the user already joined.
func (c *Challenge) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Join adds the user to the participants and creates a fresh
// leaderboard entry. The entry's rank is the participant count at
// join time. Joining twice is a no-op.
func (c *Challenge) Join(entryID, userID string) {
	if c.HasParticipant(userID) {
		return
	}

	c.Participants = append(c.Participants, userID)
	c.Leaderboard = append(c.Leaderboard, LeaderboardEntry{
		ID:       entryID,
		UserID:   userID,
		Progress: 0,
		Rank:     len(c.Participants),
	})
}

// EntryFor returns the leaderboard entry owned by the user.
func (c *Challenge) EntryFor(userID string) (*LeaderboardEntry, error) {
	for i := range c.Leaderboard {
		if c.Leaderboard[i].UserID == userID {
			return &c.Leaderboard[i], nil
		}
	}
	return nil, ErrNotJoined
}

// Contains reports whether the timestamp falls inside the challenge
// window. Both endpoints are inclusive.
func (c *Challenge) Contains(t time.Time) bool {
	return timeutil.InWindow(t, c.StartDate, c.EndDate)
}

// IsExpired reports whether the challenge window has fully passed.
func (c *Challenge) IsExpired(now time.Time) bool {
	return now.After(c.EndDate)
}

// ProgressDelta computes how much a single activity contributes to
// this challenge's metric.
func (c *Challenge) ProgressDelta(act *activity.SportActivity) float64 {
	switch c.Type {
	case TypeDistance:
		return act.DistanceKm()
	case TypeElevation:
		return act.ElevationGain()
	case TypeActivities:
		return 1
	case TypeDuration:
		return act.Duration
	default:
		return 0
	}
}

// ApplyActivity adds the activity's contribution to the user's
// leaderboard entry and reports whether the entry reached the target.
// Activities outside the challenge window contribute nothing.
func (c *Challenge) ApplyActivity(userID string, act *activity.SportActivity) (completed bool, err error) {
	if !c.Contains(act.StartTime) {
		return false, nil
	}

	entry, err := c.EntryFor(userID)
	if err != nil {
		return false, err
	}

	entry.Progress += c.ProgressDelta(act)
	return entry.Progress >= c.Target, nil
}
