package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/challenge"
	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOIN CHALLENGE COMMAND
// Adds a user to a challenge from the shared directory. The joined copy
// lives inside the user's aggregate; rank is fixed at join time.
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeSource provides challenge definitions to join.
type ChallengeSource interface {
	GetByID(ctx context.Context, id string) (*challenge.Challenge, error)
}

// JoinChallengeCommand enrolls a user in a challenge.
type JoinChallengeCommand struct {
	// UserID identifies who joins.
	UserID string

	// ChallengeID identifies the challenge in the directory.
	ChallengeID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c JoinChallengeCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("join_challenge: user_id is required")
	}
	if c.ChallengeID == "" {
		return errors.New("join_challenge: challenge_id is required")
	}
	return nil
}

// JoinChallengeResult contains the result of joining a challenge.
type JoinChallengeResult struct {
	// Joined is false when the user already holds this challenge.
	Joined bool

	// Rank is the user's position at join time.
	Rank int

	// Title is the challenge title.
	Title string
}

// JoinChallengeHandler handles the JoinChallengeCommand.
type JoinChallengeHandler struct {
	repo       progress.Repository
	challenges ChallengeSource
	publisher  shared.EventPublisher
	logger     *slog.Logger
}

// NewJoinChallengeHandler creates a new JoinChallengeHandler.
func NewJoinChallengeHandler(
	repo progress.Repository,
	challenges ChallengeSource,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *JoinChallengeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JoinChallengeHandler{
		repo:       repo,
		challenges: challenges,
		publisher:  publisher,
		logger:     logger,
	}
}

// Handle executes the join challenge command.
func (h *JoinChallengeHandler) Handle(ctx context.Context, cmd JoinChallengeCommand) (*JoinChallengeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	ch, err := h.challenges.GetByID(ctx, cmd.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("join_challenge: %w", err)
	}
	if ch.IsExpired(now) {
		return nil, shared.NewDomainError("challenge", "Join", shared.ErrInvalidState, "challenge has ended")
	}

	p, err := progress.LoadOrCreate(ctx, h.repo, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("join_challenge: load progress: %w", err)
	}

	joined := p.JoinChallenge(*ch, now)
	if !joined {
		return &JoinChallengeResult{Joined: false, Title: ch.Title}, nil
	}

	if err := h.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("join_challenge: save progress: %w", err)
	}

	rank := 0
	for i := range p.ActiveChallenges {
		if p.ActiveChallenges[i].ID != cmd.ChallengeID {
			continue
		}
		if entry, err := p.ActiveChallenges[i].EntryFor(cmd.UserID); err == nil {
			rank = entry.Rank
		}
	}

	if h.publisher != nil {
		event := shared.NewChallengeJoinedEvent(cmd.UserID, cmd.ChallengeID, rank)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}

	return &JoinChallengeResult{
		Joined: true,
		Rank:   rank,
		Title:  ch.Title,
	}, nil
}
