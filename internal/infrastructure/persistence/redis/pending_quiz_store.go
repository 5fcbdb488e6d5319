package redis

import (
	"context"
	"errors"

	"github.com/blen-hub/blen-progress-hub/internal/domain/quiz"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

// PendingQuizStore keeps generated quizzes, answer key included,
// between generation and submission. Entries expire after
// TTLPendingQuiz; an expired quiz simply has to be regenerated.
type PendingQuizStore struct {
	cache *Cache
}

// NewPendingQuizStore creates a PendingQuizStore over an existing
// cache connection.
func NewPendingQuizStore(cache *Cache) *PendingQuizStore {
	return &PendingQuizStore{cache: cache}
}

// Put stores a freshly generated quiz for the user.
func (s *PendingQuizStore) Put(ctx context.Context, userID string, q *quiz.Quiz) error {
	if q == nil {
		return ErrCacheNilValue
	}
	return s.cache.Set(ctx, PendingQuizKey(userID, q.ID), q, TTLPendingQuiz)
}

// Take returns the stored quiz and removes it, so a quiz can only be
// submitted once. Returns shared.ErrNotFound when absent or expired.
func (s *PendingQuizStore) Take(ctx context.Context, userID, quizID string) (*quiz.Quiz, error) {
	key := PendingQuizKey(userID, quizID)

	var q quiz.Quiz
	if err := s.cache.Get(ctx, key, &q); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.NewDomainError("quiz", "Take", shared.ErrNotFound, "quiz not found or expired")
		}
		return nil, err
	}

	// Removal failure only leaves the entry to expire with its TTL.
	_ = s.cache.Delete(ctx, key)

	return &q, nil
}
