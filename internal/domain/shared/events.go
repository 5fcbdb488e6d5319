// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Progress events
	EventActivityRecorded EventType = "progress.activity_recorded"
	EventPointsAwarded    EventType = "progress.points_awarded"
	EventLevelUp          EventType = "progress.level_up"
	EventStreakUpdated    EventType = "progress.streak_updated"
	EventMilestoneReached EventType = "progress.milestone_reached"
	EventGoalCompleted    EventType = "progress.goal_completed"

	// Adventure events
	EventAdventureCompleted EventType = "adventure.completed"
	EventFavoriteToggled    EventType = "adventure.favorite_toggled"

	// Academy events
	EventLessonCompleted   EventType = "academy.lesson_completed"
	EventCourseCompleted   EventType = "academy.course_completed"
	EventCertificateIssued EventType = "academy.certificate_issued"

	// Quiz events
	EventQuizSubmitted EventType = "quiz.submitted"
	EventQuizPassed    EventType = "quiz.passed"

	// Challenge events
	EventChallengeJoined    EventType = "challenge.joined"
	EventChallengeCompleted EventType = "challenge.completed"
	EventChallengeExpired   EventType = "challenge.expired"

	// System events
	EventProgressSaved EventType = "system.progress_saved"
	EventGoalsRolled   EventType = "system.goals_rolled"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// ActivityRecordedEvent is emitted when a sport activity is recorded.
type ActivityRecordedEvent struct {
	BaseEvent
	UserID        string  `json:"user_id"`
	ActivityID    string  `json:"activity_id"`
	ActivityType  string  `json:"activity_type"`
	Distance      float64 `json:"distance"`
	Duration      float64 `json:"duration"`
	Calories      int     `json:"calories"`
	PointsAwarded int     `json:"points_awarded"`
}

// Payload implements Event interface.
func (e ActivityRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"activity_id":    e.ActivityID,
		"activity_type":  e.ActivityType,
		"distance":       e.Distance,
		"duration":       e.Duration,
		"calories":       e.Calories,
		"points_awarded": e.PointsAwarded,
	}
}

// NewActivityRecordedEvent creates a new ActivityRecordedEvent.
func NewActivityRecordedEvent(userID, activityID, activityType string, distance, duration float64, calories, points int) ActivityRecordedEvent {
	return ActivityRecordedEvent{
		BaseEvent:     NewBaseEvent(EventActivityRecorded, userID),
		UserID:        userID,
		ActivityID:    activityID,
		ActivityType:  activityType,
		Distance:      distance,
		Duration:      duration,
		Calories:      calories,
		PointsAwarded: points,
	}
}

// PointsAwardedEvent is emitted when the user gains points.
type PointsAwardedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"` // e.g., "activity", "quiz", "milestone"
}

// Payload implements Event interface.
func (e PointsAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"source":    e.Source,
	}
}

// NewPointsAwardedEvent creates a new PointsAwardedEvent.
func NewPointsAwardedEvent(userID string, amount, newTotal int, source string) PointsAwardedEvent {
	return PointsAwardedEvent{
		BaseEvent: NewBaseEvent(EventPointsAwarded, userID),
		UserID:    userID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LevelUpEvent is emitted when the derived level increases.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// StreakUpdatedEvent is emitted when the weekly streak changes.
type StreakUpdatedEvent struct {
	BaseEvent
	UserID         string `json:"user_id"`
	CurrentStreak  int    `json:"current_streak"`
	PreviousStreak int    `json:"previous_streak"`
	WasReset       bool   `json:"was_reset"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"current_streak":  e.CurrentStreak,
		"previous_streak": e.PreviousStreak,
		"was_reset":       e.WasReset,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(userID string, current, previous int, wasReset bool) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent:      NewBaseEvent(EventStreakUpdated, userID),
		UserID:         userID,
		CurrentStreak:  current,
		PreviousStreak: previous,
		WasReset:       wasReset,
	}
}

// MilestoneReachedEvent is emitted when a milestone flips to achieved.
type MilestoneReachedEvent struct {
	BaseEvent
	UserID      string  `json:"user_id"`
	MilestoneID string  `json:"milestone_id"`
	Title       string  `json:"title"`
	Threshold   float64 `json:"threshold"`
	Reward      int     `json:"reward"`
}

// Payload implements Event interface.
func (e MilestoneReachedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"milestone_id": e.MilestoneID,
		"title":        e.Title,
		"threshold":    e.Threshold,
		"reward":       e.Reward,
	}
}

// NewMilestoneReachedEvent creates a new MilestoneReachedEvent.
func NewMilestoneReachedEvent(userID, milestoneID, title string, threshold float64, reward int) MilestoneReachedEvent {
	return MilestoneReachedEvent{
		BaseEvent:   NewBaseEvent(EventMilestoneReached, userID),
		UserID:      userID,
		MilestoneID: milestoneID,
		Title:       title,
		Threshold:   threshold,
		Reward:      reward,
	}
}

// GoalCompletedEvent is emitted when a goal's progress first reaches its target.
type GoalCompletedEvent struct {
	BaseEvent
	UserID   string  `json:"user_id"`
	GoalID   string  `json:"goal_id"`
	GoalType string  `json:"goal_type"`
	Target   float64 `json:"target"`
}

// Payload implements Event interface.
func (e GoalCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"goal_id":   e.GoalID,
		"goal_type": e.GoalType,
		"target":    e.Target,
	}
}

// NewGoalCompletedEvent creates a new GoalCompletedEvent.
func NewGoalCompletedEvent(userID, goalID, goalType string, target float64) GoalCompletedEvent {
	return GoalCompletedEvent{
		BaseEvent: NewBaseEvent(EventGoalCompleted, userID),
		UserID:    userID,
		GoalID:    goalID,
		GoalType:  goalType,
		Target:    target,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Adventure and Academy Events
// ═══════════════════════════════════════════════════════════════════════════

// AdventureCompletedEvent is emitted when an adventure is marked completed.
type AdventureCompletedEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	AdventureID string `json:"adventure_id"`
	Difficulty  string `json:"difficulty"`
	Points      int    `json:"points"`
}

// Payload implements Event interface.
func (e AdventureCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"adventure_id": e.AdventureID,
		"difficulty":   e.Difficulty,
		"points":       e.Points,
	}
}

// NewAdventureCompletedEvent creates a new AdventureCompletedEvent.
func NewAdventureCompletedEvent(userID, adventureID, difficulty string, points int) AdventureCompletedEvent {
	return AdventureCompletedEvent{
		BaseEvent:   NewBaseEvent(EventAdventureCompleted, userID),
		UserID:      userID,
		AdventureID: adventureID,
		Difficulty:  difficulty,
		Points:      points,
	}
}

// FavoriteToggledEvent is emitted when an adventure's favorite flag flips.
type FavoriteToggledEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	AdventureID string `json:"adventure_id"`
	IsFavorite  bool   `json:"is_favorite"`
}

// Payload implements Event interface.
func (e FavoriteToggledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"adventure_id": e.AdventureID,
		"is_favorite":  e.IsFavorite,
	}
}

// NewFavoriteToggledEvent creates a new FavoriteToggledEvent.
func NewFavoriteToggledEvent(userID, adventureID string, isFavorite bool) FavoriteToggledEvent {
	return FavoriteToggledEvent{
		BaseEvent:   NewBaseEvent(EventFavoriteToggled, userID),
		UserID:      userID,
		AdventureID: adventureID,
		IsFavorite:  isFavorite,
	}
}

// LessonCompletedEvent is emitted when a lesson is marked completed.
type LessonCompletedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	LessonID string `json:"lesson_id"`
	Points   int    `json:"points"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"lesson_id": e.LessonID,
		"points":    e.Points,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(userID, lessonID string, points int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent: NewBaseEvent(EventLessonCompleted, userID),
		UserID:    userID,
		LessonID:  lessonID,
		Points:    points,
	}
}

// CourseCompletedEvent is emitted when every lesson of a course is done.
type CourseCompletedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
	Grade    string `json:"grade"`
}

// Payload implements Event interface.
func (e CourseCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"course_id": e.CourseID,
		"grade":     e.Grade,
	}
}

// NewCourseCompletedEvent creates a new CourseCompletedEvent.
func NewCourseCompletedEvent(userID, courseID, grade string) CourseCompletedEvent {
	return CourseCompletedEvent{
		BaseEvent: NewBaseEvent(EventCourseCompleted, userID),
		UserID:    userID,
		CourseID:  courseID,
		Grade:     grade,
	}
}

// CertificateIssuedEvent is emitted when a certificate is appended.
type CertificateIssuedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	CertificateID string `json:"certificate_id"`
	CourseID      string `json:"course_id,omitempty"`
	Grade         string `json:"grade"`
	RelatedToQuiz bool   `json:"related_to_quiz"`
}

// Payload implements Event interface.
func (e CertificateIssuedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"certificate_id":  e.CertificateID,
		"course_id":       e.CourseID,
		"grade":           e.Grade,
		"related_to_quiz": e.RelatedToQuiz,
	}
}

// NewCertificateIssuedEvent creates a new CertificateIssuedEvent.
func NewCertificateIssuedEvent(userID, certificateID, courseID, grade string, relatedToQuiz bool) CertificateIssuedEvent {
	return CertificateIssuedEvent{
		BaseEvent:     NewBaseEvent(EventCertificateIssued, userID),
		UserID:        userID,
		CertificateID: certificateID,
		CourseID:      courseID,
		Grade:         grade,
		RelatedToQuiz: relatedToQuiz,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Quiz and Challenge Events
// ═══════════════════════════════════════════════════════════════════════════

// QuizSubmittedEvent is emitted when a quiz score is recorded.
type QuizSubmittedEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	QuizID     string `json:"quiz_id"`
	Score      int    `json:"score"`
	OutOf      int    `json:"out_of"`
	Passed     bool   `json:"passed"`
	Points     int    `json:"points"`
	Difficulty string `json:"difficulty"`
}

// Payload implements Event interface.
func (e QuizSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"quiz_id":    e.QuizID,
		"score":      e.Score,
		"out_of":     e.OutOf,
		"passed":     e.Passed,
		"points":     e.Points,
		"difficulty": e.Difficulty,
	}
}

// NewQuizSubmittedEvent creates a new QuizSubmittedEvent.
func NewQuizSubmittedEvent(userID, quizID string, score, outOf int, passed bool, points int, difficulty string) QuizSubmittedEvent {
	return QuizSubmittedEvent{
		BaseEvent:  NewBaseEvent(EventQuizSubmitted, userID),
		UserID:     userID,
		QuizID:     quizID,
		Score:      score,
		OutOf:      outOf,
		Passed:     passed,
		Points:     points,
		Difficulty: difficulty,
	}
}

// ChallengeJoinedEvent is emitted when a user joins a challenge.
type ChallengeJoinedEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	ChallengeID string `json:"challenge_id"`
	Rank        int    `json:"rank"`
}

// Payload implements Event interface.
func (e ChallengeJoinedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"challenge_id": e.ChallengeID,
		"rank":         e.Rank,
	}
}

// NewChallengeJoinedEvent creates a new ChallengeJoinedEvent.
func NewChallengeJoinedEvent(userID, challengeID string, rank int) ChallengeJoinedEvent {
	return ChallengeJoinedEvent{
		BaseEvent:   NewBaseEvent(EventChallengeJoined, userID),
		UserID:      userID,
		ChallengeID: challengeID,
		Rank:        rank,
	}
}

// ChallengeCompletedEvent is emitted when a leaderboard entry reaches the target.
type ChallengeCompletedEvent struct {
	BaseEvent
	UserID      string  `json:"user_id"`
	ChallengeID string  `json:"challenge_id"`
	Title       string  `json:"title"`
	Target      float64 `json:"target"`
	Reward      int     `json:"reward"`
}

// Payload implements Event interface.
func (e ChallengeCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"challenge_id": e.ChallengeID,
		"title":        e.Title,
		"target":       e.Target,
		"reward":       e.Reward,
	}
}

// NewChallengeCompletedEvent creates a new ChallengeCompletedEvent.
func NewChallengeCompletedEvent(userID, challengeID, title string, target float64, reward int) ChallengeCompletedEvent {
	return ChallengeCompletedEvent{
		BaseEvent:   NewBaseEvent(EventChallengeCompleted, userID),
		UserID:      userID,
		ChallengeID: challengeID,
		Title:       title,
		Target:      target,
		Reward:      reward,
	}
}

// ChallengeExpiredEvent is emitted by the worker when an active challenge
// passes its end date without being completed.
type ChallengeExpiredEvent struct {
	BaseEvent
	UserID      string    `json:"user_id"`
	ChallengeID string    `json:"challenge_id"`
	EndDate     time.Time `json:"end_date"`
}

// Payload implements Event interface.
func (e ChallengeExpiredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"challenge_id": e.ChallengeID,
		"end_date":     e.EndDate.Format(time.RFC3339),
	}
}

// NewChallengeExpiredEvent creates a new ChallengeExpiredEvent.
func NewChallengeExpiredEvent(userID, challengeID string, endDate time.Time) ChallengeExpiredEvent {
	return ChallengeExpiredEvent{
		BaseEvent:   NewBaseEvent(EventChallengeExpired, userID),
		UserID:      userID,
		ChallengeID: challengeID,
		EndDate:     endDate,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
