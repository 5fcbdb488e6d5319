package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD GOAL COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// AddGoalCommand adds a personal goal to a user's progress.
type AddGoalCommand struct {
	// UserID identifies whose goals change.
	UserID string

	// Type is the goal metric.
	Type progress.GoalType

	// Target is the value to reach within the period.
	Target float64

	// Period is the goal's recurrence window.
	Period progress.GoalPeriod
}

// Validate validates the command.
func (c AddGoalCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("add_goal: user_id is required")
	}
	return nil
}

// AddGoalResult contains the created goal.
type AddGoalResult struct {
	// GoalID is the new goal's ID.
	GoalID string
}

// AddGoalHandler handles the AddGoalCommand.
type AddGoalHandler struct {
	repo   progress.Repository
	logger *slog.Logger
}

// NewAddGoalHandler creates a new AddGoalHandler.
func NewAddGoalHandler(repo progress.Repository, logger *slog.Logger) *AddGoalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddGoalHandler{repo: repo, logger: logger}
}

// Handle executes the add goal command.
func (h *AddGoalHandler) Handle(ctx context.Context, cmd AddGoalCommand) (*AddGoalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	goal, err := progress.NewGoal(cmd.Type, cmd.Target, cmd.Period, now)
	if err != nil {
		return nil, fmt.Errorf("add_goal: %w", err)
	}

	p, err := progress.LoadOrCreate(ctx, h.repo, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("add_goal: load progress: %w", err)
	}

	if err := p.AddGoal(*goal, now); err != nil {
		return nil, fmt.Errorf("add_goal: %w", err)
	}

	if err := h.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("add_goal: save progress: %w", err)
	}

	return &AddGoalResult{GoalID: goal.ID}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE GOAL PROGRESS COMMAND
// Completion awards points once per period; the rollover job re-arms it.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateGoalProgressCommand sets a goal's current progress value.
type UpdateGoalProgressCommand struct {
	// UserID identifies whose goal is updated.
	UserID string

	// GoalID identifies the goal.
	GoalID string

	// Value is the new progress value (absolute, not a delta).
	Value float64

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c UpdateGoalProgressCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("update_goal: user_id is required")
	}
	if c.GoalID == "" {
		return errors.New("update_goal: goal_id is required")
	}
	if c.Value < 0 {
		return errors.New("update_goal: value cannot be negative")
	}
	return nil
}

// UpdateGoalProgressResult contains the result of a goal update.
type UpdateGoalProgressResult struct {
	// Completed indicates the goal finished with this update.
	Completed bool

	// TotalPoints is the user's lifetime points after the call.
	TotalPoints int
}

// UpdateGoalProgressHandler handles the UpdateGoalProgressCommand.
type UpdateGoalProgressHandler struct {
	repo      progress.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewUpdateGoalProgressHandler creates a new UpdateGoalProgressHandler.
func NewUpdateGoalProgressHandler(
	repo progress.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *UpdateGoalProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateGoalProgressHandler{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the update goal progress command.
func (h *UpdateGoalProgressHandler) Handle(ctx context.Context, cmd UpdateGoalProgressCommand) (*UpdateGoalProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	p, err := progress.LoadOrCreate(ctx, h.repo, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("update_goal: load progress: %w", err)
	}

	completed, err := p.UpdateGoalProgress(cmd.GoalID, cmd.Value, now)
	if err != nil {
		return nil, fmt.Errorf("update_goal: %w", err)
	}

	if err := h.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("update_goal: save progress: %w", err)
	}

	if completed && h.publisher != nil {
		var goalType string
		var target float64
		for _, g := range p.Goals {
			if g.ID == cmd.GoalID {
				goalType = string(g.Type)
				target = g.Target
			}
		}
		event := shared.NewGoalCompletedEvent(cmd.UserID, cmd.GoalID, goalType, target)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}

	return &UpdateGoalProgressResult{
		Completed:   completed,
		TotalPoints: p.TotalPoints,
	}, nil
}
