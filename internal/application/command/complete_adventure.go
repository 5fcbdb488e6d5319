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
// COMPLETE ADVENTURE COMMAND
// Marks an adventure completed and awards difficulty-scaled points.
// Completing the same adventure again awards nothing.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteAdventureCommand marks an adventure as completed.
type CompleteAdventureCommand struct {
	// UserID identifies whose progress is updated.
	UserID string

	// AdventureID identifies the completed adventure.
	AdventureID string

	// Difficulty scales the reward.
	Difficulty shared.Difficulty

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteAdventureCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("complete_adventure: user_id is required")
	}
	if c.AdventureID == "" {
		return errors.New("complete_adventure: adventure_id is required")
	}
	if !c.Difficulty.IsValid() {
		return fmt.Errorf("complete_adventure: unknown difficulty: %s", c.Difficulty)
	}
	return nil
}

// CompleteAdventureResult contains the result of completing an adventure.
type CompleteAdventureResult struct {
	// PointsAwarded is zero when the adventure was already completed.
	PointsAwarded int

	// AlreadyCompleted indicates a repeat completion.
	AlreadyCompleted bool

	// TotalPoints is the user's lifetime points after the call.
	TotalPoints int

	// Level is the user's level after the call.
	Level int
}

// CompleteAdventureHandler handles the CompleteAdventureCommand.
type CompleteAdventureHandler struct {
	repo      progress.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewCompleteAdventureHandler creates a new CompleteAdventureHandler.
func NewCompleteAdventureHandler(
	repo progress.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *CompleteAdventureHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompleteAdventureHandler{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the complete adventure command.
func (h *CompleteAdventureHandler) Handle(ctx context.Context, cmd CompleteAdventureCommand) (*CompleteAdventureResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	p, err := progress.LoadOrCreate(ctx, h.repo, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("complete_adventure: load progress: %w", err)
	}

	points, err := p.MarkAdventureCompleted(cmd.AdventureID, cmd.Difficulty, now)
	if err != nil {
		return nil, fmt.Errorf("complete_adventure: %w", err)
	}

	if err := h.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("complete_adventure: save progress: %w", err)
	}

	if points > 0 && h.publisher != nil {
		event := shared.NewAdventureCompletedEvent(cmd.UserID, cmd.AdventureID, cmd.Difficulty.String(), points)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}

	return &CompleteAdventureResult{
		PointsAwarded:    points,
		AlreadyCompleted: points == 0,
		TotalPoints:      p.TotalPoints,
		Level:            p.Level,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TOGGLE FAVORITE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ToggleFavoriteCommand flips an adventure's favorite flag.
type ToggleFavoriteCommand struct {
	// UserID identifies whose favorites change.
	UserID string

	// AdventureID identifies the adventure.
	AdventureID string
}

// Validate validates the command.
func (c ToggleFavoriteCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("toggle_favorite: user_id is required")
	}
	if c.AdventureID == "" {
		return errors.New("toggle_favorite: adventure_id is required")
	}
	return nil
}

// ToggleFavoriteResult contains the new favorite state.
type ToggleFavoriteResult struct {
	// IsFavorite is the state after the toggle.
	IsFavorite bool
}

// ToggleFavoriteHandler handles the ToggleFavoriteCommand.
type ToggleFavoriteHandler struct {
	repo      progress.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewToggleFavoriteHandler creates a new ToggleFavoriteHandler.
func NewToggleFavoriteHandler(repo progress.Repository, publisher shared.EventPublisher, logger *slog.Logger) *ToggleFavoriteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToggleFavoriteHandler{repo: repo, publisher: publisher, logger: logger}
}

// Handle executes the toggle favorite command.
func (h *ToggleFavoriteHandler) Handle(ctx context.Context, cmd ToggleFavoriteCommand) (*ToggleFavoriteResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	p, err := progress.LoadOrCreate(ctx, h.repo, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("toggle_favorite: load progress: %w", err)
	}

	isFavorite := p.ToggleFavorite(cmd.AdventureID, now)

	if err := h.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("toggle_favorite: save progress: %w", err)
	}

	if h.publisher != nil {
		event := shared.NewFavoriteToggledEvent(cmd.UserID, cmd.AdventureID, isFavorite)
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}

	return &ToggleFavoriteResult{IsFavorite: isFavorite}, nil
}
