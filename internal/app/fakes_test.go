package app_test

import (
	"context"
	"encoding/json"
	"sync"

	"reviewlens/internal/domain"
)

// ---- fakes ----

// fakeRepo is an in-memory AnalysisRepository. down makes every call report
// the store as unavailable; failWith makes every call fail with that error.
type fakeRepo struct {
	mu       sync.Mutex
	order    []string
	byURL    map[string]domain.BusinessAnalysis
	down     bool
	failWith error
	upserts  int
}

func newFakeRepo() *fakeRepo { return &fakeRepo{byURL: map[string]domain.BusinessAnalysis{}} }

func (f *fakeRepo) check() error {
	if f.down {
		return domain.ErrStoreUnavailable
	}
	return f.failWith
}

func (f *fakeRepo) Upsert(ctx context.Context, a domain.BusinessAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.upserts++
	if _, ok := f.byURL[a.URL]; !ok {
		f.order = append(f.order, a.URL)
	}
	a.Saved = false // never persisted
	f.byURL[a.URL] = a
	return nil
}

func (f *fakeRepo) DeleteByURL(ctx context.Context, url string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return false, err
	}
	if _, ok := f.byURL[url]; !ok {
		return false, nil
	}
	delete(f.byURL, url)
	for i, u := range f.order {
		if u == url {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (f *fakeRepo) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.order = nil
	f.byURL = map[string]domain.BusinessAnalysis{}
	return nil
}

func (f *fakeRepo) List(ctx context.Context) ([]domain.BusinessAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	var out []domain.BusinessAnalysis
	for _, u := range f.order {
		out = append(out, f.byURL[u])
	}
	return out, nil
}

func (f *fakeRepo) ListByCategory(ctx context.Context, categoryID string) ([]domain.BusinessAnalysis, error) {
	all, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.BusinessAnalysis
	for _, a := range all {
		if a.Category.ID == categoryID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetByURL(ctx context.Context, url string) (domain.BusinessAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return domain.BusinessAnalysis{}, err
	}
	a, ok := f.byURL[url]
	if !ok {
		return domain.BusinessAnalysis{}, domain.ErrNotFound
	}
	return a, nil
}

func (f *fakeRepo) Close(ctx context.Context) error { return nil }

// fakeCache stores JSON like the redis adapter does.
type fakeCache struct {
	store   map[string][]byte
	deleted []string
	gets    int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.gets++
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.store, k)
	}
	c.deleted = append(c.deleted, keys...)
	return nil
}

// fakeScraper returns a fresh payload per call (the service may mutate it).
type fakeScraper struct {
	payload func() map[string]any
	err     error
	calls   []string
}

func (s *fakeScraper) Analyze(ctx context.Context, mapsURL string) (map[string]any, error) {
	s.calls = append(s.calls, mapsURL)
	if s.err != nil {
		return nil, s.err
	}
	return s.payload(), nil
}

// clinicaPayload is a decoded upstream answer for a small clinic.
func clinicaPayload() map[string]any {
	return map[string]any{
		"business_name":  "Clinica Feliz",
		"total_reviews":  float64(2),
		"average_rating": 4.5,
		"sentiment_summary": map[string]any{
			"POS": float64(2), "NEU": float64(0), "NEG": float64(0),
		},
		"reviews": []any{
			map[string]any{"username": "Ana", "review_text": "Excelente", "rating": float64(5), "sentiment": "POS", "confidence": 0.7},
			map[string]any{"username": "Luis", "review_text": "Excelente", "rating": float64(5), "sentiment": "POS", "confidence": 0.7},
		},
	}
}
