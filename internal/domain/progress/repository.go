package progress

import (
	"context"
	"time"
)

// Repository persists UserProgress aggregates as whole documents.
// Implementations store the aggregate as one JSON blob per user.
type Repository interface {
	// Load returns the user's aggregate.
	// Returns shared.ErrProgressNotFound when none exists.
	Load(ctx context.Context, userID string) (*UserProgress, error)

	// Save persists the whole aggregate, replacing any prior state.
	Save(ctx context.Context, progress *UserProgress) error

	// Delete removes the user's aggregate.
	Delete(ctx context.Context, userID string) error

	// ListUserIDs returns every user id with a stored aggregate.
	// Used by the background jobs that sweep all users.
	ListUserIDs(ctx context.Context) ([]string, error)
}

// LoadOrCreate returns the stored aggregate, or a freshly seeded one
// when none exists. A load failure of any kind degrades to a fresh
// aggregate; the first save overwrites whatever was unreadable.
func LoadOrCreate(ctx context.Context, repo Repository, userID string, now time.Time) (*UserProgress, error) {
	stored, err := repo.Load(ctx, userID)
	if err == nil {
		return stored, nil
	}
	return New(userID, now)
}
