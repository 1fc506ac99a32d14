package domain

import "context"

type AnalysisRepository interface {
	// Write paths
	Upsert(ctx context.Context, a BusinessAnalysis) error
	DeleteByURL(ctx context.Context, url string) (bool, error)
	Clear(ctx context.Context) error

	// Read paths
	List(ctx context.Context) ([]BusinessAnalysis, error)
	ListByCategory(ctx context.Context, categoryID string) ([]BusinessAnalysis, error)
	GetByURL(ctx context.Context, url string) (BusinessAnalysis, error)

	Close(ctx context.Context) error
}

// ScraperClient fetches reviews and preliminary sentiment for a listing URL.
type ScraperClient interface {
	Analyze(ctx context.Context, mapsURL string) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, keys ...string) error
}
