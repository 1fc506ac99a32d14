package app

import (
	"context"
	"time"

	"reviewlens/internal/domain"
)

const (
	keyHistoryAll = "history:all"
	keyStats      = "stats"
)

func keyHistoryCategory(id string) string { return "history:category:" + id }

func readCacheKeys() []string {
	keys := []string{keyHistoryAll, keyStats}
	for _, c := range domain.Categories() {
		keys = append(keys, keyHistoryCategory(c.ID))
	}
	return keys
}

// QueryService serves the read side, through the cache when one is configured.
type QueryService struct {
	history  *History
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(h *History, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{history: h, cache: c, cacheTTL: ttl}
}

func (s *QueryService) ListHistory(ctx context.Context) ([]domain.BusinessAnalysis, error) {
	return cached(ctx, s, keyHistoryAll, func() ([]domain.BusinessAnalysis, bool, error) {
		return s.history.listAll(ctx)
	})
}

func (s *QueryService) ListByCategory(ctx context.Context, categoryID string) ([]domain.BusinessAnalysis, error) {
	return cached(ctx, s, keyHistoryCategory(categoryID), func() ([]domain.BusinessAnalysis, bool, error) {
		return s.history.listByCategory(ctx, categoryID)
	})
}

func (s *QueryService) Stats(ctx context.Context) (map[string]domain.CategoryStats, error) {
	return cached(ctx, s, keyStats, func() (map[string]domain.CategoryStats, bool, error) {
		return s.history.aggregateStats(ctx)
	})
}

// GetByURL is not cached; lookups are rare and keyed by arbitrary URLs.
func (s *QueryService) GetByURL(ctx context.Context, url string) (domain.BusinessAnalysis, error) {
	return s.history.GetByURL(ctx, url)
}

func (s *QueryService) Categories() []domain.Category { return domain.Categories() }

// cached reads key from the cache or fills it from load. Cache errors are
// treated as misses. A degraded load is served but never stored.
func cached[T any](ctx context.Context, s *QueryService, key string, load func() (T, bool, error)) (T, error) {
	var out T
	if s.cache != nil {
		if ok, err := s.cache.Get(ctx, key, &out); ok && err == nil {
			return out, nil
		}
	}
	out, degraded, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	if s.cache != nil && !degraded {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}
