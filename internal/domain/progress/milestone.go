package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/blen-hub/blen-progress-hub/internal/domain/activity"
)

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE
// ══════════════════════════════════════════════════════════════════════════════

// MilestoneType identifies which cumulative stat a milestone watches.
type MilestoneType string

const (
	// MilestoneTotalDistance - cumulative kilometers.
	MilestoneTotalDistance MilestoneType = "total_distance"
	// MilestoneTotalDuration - cumulative seconds of activity.
	MilestoneTotalDuration MilestoneType = "total_duration"
	// MilestoneTotalCalories - cumulative kilocalories.
	MilestoneTotalCalories MilestoneType = "total_calories"
	// MilestoneTotalActivities - number of recorded sessions.
	MilestoneTotalActivities MilestoneType = "total_activities"
	// MilestoneSpecificActivity - session count of one activity type.
	MilestoneSpecificActivity MilestoneType = "specific_activity"
)

// IsValid checks that the milestone type is known.
func (m MilestoneType) IsValid() bool {
	switch m {
	case MilestoneTotalDistance, MilestoneTotalDuration, MilestoneTotalCalories,
		MilestoneTotalActivities, MilestoneSpecificActivity:
		return true
	default:
		return false
	}
}

// Milestone is a one-time achievement unlocked when a cumulative stat
// crosses its threshold. Achievement is monotonic: once achieved it
// never reverts, and AchievedDate is stamped exactly once.
type Milestone struct {
	// ID - unique identifier (UUID string).
	ID string `json:"id"`

	// Title - display name of the milestone.
	Title string `json:"title"`

	// Description of what unlocks it.
	Description string `json:"description,omitempty"`

	// Type - which cumulative stat is watched.
	Type MilestoneType `json:"type"`

	// ActivityType - the watched activity type. Only meaningful for
	// specific-activity milestones.
	ActivityType activity.Type `json:"activity_type,omitempty"`

	// Threshold the stat must reach.
	Threshold float64 `json:"threshold"`

	// Reward - points awarded on achievement.
	Reward int `json:"reward"`

	// IsAchieved - whether the threshold has been crossed.
	IsAchieved bool `json:"is_achieved"`

	// AchievedDate - when the milestone was achieved.
	AchievedDate *time.Time `json:"achieved_date,omitempty"`
}

// achieve flips the milestone to achieved and stamps the date.
// A no-op when already achieved.
func (m *Milestone) achieve(at time.Time) bool {
	if m.IsAchieved {
		return false
	}
	m.IsAchieved = true
	achievedAt := at.UTC()
	m.AchievedDate = &achievedAt
	return true
}

// DefaultMilestones returns the milestones seeded for a fresh aggregate.
func DefaultMilestones() []Milestone {
	return []Milestone{
		{
			ID:          uuid.NewString(),
			Title:       "Novice Traveler",
			Description: "Walk 10 km",
			Type:        MilestoneTotalDistance,
			Threshold:   10,
			Reward:      100,
		},
		{
			ID:          uuid.NewString(),
			Title:       "Active Explorer",
			Description: "Spend 5 hours in activities",
			Type:        MilestoneTotalDuration,
			Threshold:   18000,
			Reward:      150,
		},
	}
}
