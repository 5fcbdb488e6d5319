package handlers

import (
	"context"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/challenge"
	"github.com/blen-hub/blen-progress-hub/internal/domain/quiz"
)

// PendingQuizStore bridges quiz generation and submission: a generated
// quiz is parked with its answer key and taken back exactly once.
type PendingQuizStore interface {
	// Put stores a freshly generated quiz for the user.
	Put(ctx context.Context, userID string, q *quiz.Quiz) error

	// Take returns the stored quiz and removes it.
	Take(ctx context.Context, userID, quizID string) (*quiz.Quiz, error)
}

// ChallengeLister reads the joinable challenge directory.
type ChallengeLister interface {
	// ListOpen returns challenges whose window contains the given time.
	ListOpen(ctx context.Context, now time.Time) ([]*challenge.Challenge, error)
}
