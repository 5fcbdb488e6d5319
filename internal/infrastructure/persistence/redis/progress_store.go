package redis

import (
	"context"
	"errors"
	"strings"

	"github.com/blen-hub/blen-progress-hub/internal/domain/progress"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
	"github.com/blen-hub/blen-progress-hub/pkg/retry"
)

// ProgressStore implements progress.Repository on Redis. Each user's
// aggregate is one JSON document under a fixed key, mirroring the
// single-blob persistence model of the mobile clients. Saves run
// through a short retrier so a transient hiccup does not drop a
// mutation.
type ProgressStore struct {
	cache   *Cache
	retrier *retry.Retrier
}

// NewProgressStore creates a ProgressStore over an existing cache
// connection.
func NewProgressStore(cache *Cache) *ProgressStore {
	return &ProgressStore{
		cache:   cache,
		retrier: retry.SaveRetrier(),
	}
}

// Load returns the user's aggregate.
func (s *ProgressStore) Load(ctx context.Context, userID string) (*progress.UserProgress, error) {
	if userID == "" {
		return nil, shared.ErrInvalidUserID
	}

	var p progress.UserProgress
	err := s.cache.Get(ctx, ProgressKey(userID), &p)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrProgressNotFound
		}
		if errors.Is(err, ErrCacheSerialization) {
			// Unreadable document. Callers treat this the same as
			// absent state and reseed.
			return nil, shared.WrapError("progress", "Load", shared.ErrNotFound, "stored progress is unreadable", err)
		}
		return nil, shared.WrapError("progress", "Load", shared.ErrExternalService, "redis load failed", err)
	}

	return &p, nil
}

// Save persists the whole aggregate under the user's key, with no
// expiry.
func (s *ProgressStore) Save(ctx context.Context, p *progress.UserProgress) error {
	if p == nil || p.UserID == "" {
		return shared.ErrInvalidUserID
	}

	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.cache.Set(ctx, ProgressKey(p.UserID), p, 0)
	})
	if err != nil {
		return shared.WrapError("progress", "Save", shared.ErrExternalService, "redis save failed", err)
	}
	return nil
}

// Delete removes the user's aggregate.
func (s *ProgressStore) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return shared.ErrInvalidUserID
	}

	if err := s.cache.Delete(ctx, ProgressKey(userID)); err != nil {
		return shared.WrapError("progress", "Delete", shared.ErrExternalService, "redis delete failed", err)
	}
	return nil
}

// ListUserIDs scans the progress key space and returns the user ids
// with a stored aggregate.
func (s *ProgressStore) ListUserIDs(ctx context.Context) ([]string, error) {
	keys, err := s.cache.ScanKeys(ctx, PrefixProgress+"*")
	if err != nil {
		return nil, shared.WrapError("progress", "ListUserIDs", shared.ErrExternalService, "redis scan failed", err)
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, PrefixProgress))
	}
	return ids, nil
}
