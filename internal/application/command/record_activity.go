// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/blen-hub/blen-progress-hub/internal/domain/activity"
	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY COMMAND
// Records a completed sport activity and runs the full gamification pass:
// stats, streak, milestones, active challenges, and points.
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityCommand contains the data to record a sport activity.
type RecordActivityCommand struct {
	// UserID identifies whose progress is updated.
	UserID string

	// ActivityID is the client-assigned activity ID (generated when empty).
	ActivityID string

	// Type is the sport activity type.
	Type activity.Type

	// Name is the user-facing activity name.
	Name string

	// StartTime is when the activity started.
	StartTime time.Time

	// Duration is the activity length in seconds.
	Duration float64

	// Distance is the covered distance in kilometers, if tracked.
	Distance *float64

	// Calories burned; estimated from the activity type when zero.
	Calories int

	// Steps taken, if tracked.
	Steps *int

	// HeartRate summary, if tracked.
	HeartRate *activity.HeartRateSummary

	// Route is the recorded GPS track.
	Route []activity.TrackPoint

	// Difficulty of the activity.
	Difficulty shared.Difficulty

	// RelatedAdventureID links the activity to an adventure.
	RelatedAdventureID string

	// RelatedCourseID links the activity to an academy course.
	RelatedCourseID string

	// Notes are free-form user notes.
	Notes string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordActivityCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("record_activity: user_id is required")
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("record_activity: unknown activity type: %s", c.Type)
	}
	if c.Duration <= 0 {
		return errors.New("record_activity: duration must be positive")
	}
	return nil
}

// RecordActivityResult contains the result of recording an activity.
type RecordActivityResult struct {
	// UserID is the user whose progress changed.
	UserID string

	// ActivityID is the stored activity's ID.
	ActivityID string

	// PointsAwarded is the total points from this activity, milestones,
	// and completed challenges.
	PointsAwarded int

	// TotalPoints is the user's lifetime points after the call.
	TotalPoints int

	// Level is the user's level after the call.
	Level int

	// LeveledUp indicates the call crossed a level boundary.
	LeveledUp bool

	// Streak is the current streak after the call.
	Streak int

	// MilestonesAchieved are milestone titles that flipped during this call.
	MilestonesAchieved []string

	// ChallengesCompleted are challenge titles that finished during this call.
	ChallengesCompleted []string

	// RecordedAt is when the activity was recorded.
	RecordedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityHandler handles the RecordActivityCommand.
type RecordActivityHandler struct {
	repo      progress.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewRecordActivityHandler creates a new RecordActivityHandler.
func NewRecordActivityHandler(
	repo progress.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *RecordActivityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordActivityHandler{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the record activity command.
func (h *RecordActivityHandler) Handle(ctx context.Context, cmd RecordActivityCommand) (*RecordActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	activityID := cmd.ActivityID
	if activityID == "" {
		activityID = uuid.NewString()
	}

	act, err := activity.New(activity.NewParams{
		ID:                 activityID,
		Type:               cmd.Type,
		Name:               cmd.Name,
		StartTime:          cmd.StartTime,
		Duration:           cmd.Duration,
		Distance:           cmd.Distance,
		Calories:           cmd.Calories,
		Steps:              cmd.Steps,
		HeartRate:          cmd.HeartRate,
		Route:              cmd.Route,
		Difficulty:         cmd.Difficulty,
		RelatedAdventureID: cmd.RelatedAdventureID,
		RelatedCourseID:    cmd.RelatedCourseID,
		Notes:              cmd.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("record_activity: %w", err)
	}

	p, err := progress.LoadOrCreate(ctx, h.repo, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("record_activity: load progress: %w", err)
	}

	res, err := p.RecordActivity(act, now)
	if err != nil {
		return nil, fmt.Errorf("record_activity: %w", err)
	}

	if err := h.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("record_activity: save progress: %w", err)
	}

	h.publishEvents(cmd, act, p, res)

	result := &RecordActivityResult{
		UserID:        cmd.UserID,
		ActivityID:    act.ID,
		PointsAwarded: res.TotalPointsAwarded(),
		TotalPoints:   p.TotalPoints,
		Level:         p.Level,
		LeveledUp:     res.LevelAfter > res.LevelBefore,
		Streak:        res.StreakAfter,
		RecordedAt:    now,
	}
	for _, m := range res.MilestonesAchieved {
		result.MilestonesAchieved = append(result.MilestonesAchieved, m.Title)
	}
	for _, c := range res.ChallengesCompleted {
		result.ChallengesCompleted = append(result.ChallengesCompleted, c.Title)
	}
	return result, nil
}

// publishEvents emits the domain events of a recorded activity.
// Publishing is best-effort; the aggregate is already saved.
func (h *RecordActivityHandler) publishEvents(
	cmd RecordActivityCommand,
	act *activity.SportActivity,
	p *progress.UserProgress,
	res *progress.RecordActivityResult,
) {
	if h.publisher == nil {
		return
	}

	publish := func(event shared.Event) {
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}

	recorded := shared.NewActivityRecordedEvent(
		cmd.UserID, act.ID, act.Type.String(),
		act.DistanceKm(), act.Duration, act.Calories, res.ActivityPoints,
	)
	if cmd.CorrelationID != "" {
		recorded.BaseEvent = recorded.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	publish(recorded)

	publish(shared.NewPointsAwardedEvent(cmd.UserID, res.TotalPointsAwarded(), p.TotalPoints, "activity"))

	if res.StreakAfter != res.StreakBefore {
		wasReset := res.StreakAfter < res.StreakBefore
		publish(shared.NewStreakUpdatedEvent(cmd.UserID, res.StreakAfter, res.StreakBefore, wasReset))
	}

	if res.LevelAfter > res.LevelBefore {
		publish(shared.NewLevelUpEvent(cmd.UserID, res.LevelBefore, res.LevelAfter))
	}

	for _, m := range res.MilestonesAchieved {
		publish(shared.NewMilestoneReachedEvent(cmd.UserID, m.ID, m.Title, m.Threshold, m.Reward))
	}

	for _, c := range res.ChallengesCompleted {
		publish(shared.NewChallengeCompletedEvent(cmd.UserID, c.ID, c.Title, c.Target, c.Reward))
	}
}
