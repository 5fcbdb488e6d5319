package catalog

import (
	"context"
	"log/slog"

	"github.com/blen-hub/blen-progress-hub/internal/domain/quiz"
	cacheredis "github.com/blen-hub/blen-progress-hub/internal/infrastructure/persistence/redis"
)

// CachingSource wraps a quiz.Source with a Redis read-through cache so
// repeated quiz generation does not hammer the catalog. Cache failures
// never surface; the wrapped source is always the fallback.
type CachingSource struct {
	inner  quiz.Source
	cache  *cacheredis.Cache
	logger *slog.Logger
}

// compile-time interface check
var _ quiz.Source = (*CachingSource)(nil)

// NewCachingSource creates a caching layer over a question bank source.
func NewCachingSource(inner quiz.Source, cache *cacheredis.Cache, logger *slog.Logger) *CachingSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingSource{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

// CategoryBank returns the cached bank when present, otherwise fetches
// from the wrapped source and caches the result.
func (s *CachingSource) CategoryBank(ctx context.Context, category quiz.Category) (*quiz.CategoryBank, error) {
	key := cacheredis.QuizBankKey(category.CatalogKey())

	var cached quiz.CategoryBank
	if err := s.cache.Get(ctx, key, &cached); err == nil && len(cached.Questions) > 0 {
		return &cached, nil
	}

	bank, err := s.inner.CategoryBank(ctx, category)
	if err != nil {
		return nil, err
	}

	if bank != nil && len(bank.Questions) > 0 {
		if err := s.cache.Set(ctx, key, bank, cacheredis.TTLQuizBankCache); err != nil {
			s.logger.Warn("failed to cache question bank", "category", category.String(), "error", err)
		}
	}

	return bank, nil
}
