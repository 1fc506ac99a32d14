// Package file keeps the analysis history in a single JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"reviewlens/internal/domain"
)

type document struct {
	Businesses  []domain.BusinessAnalysis `json:"businesses"`
	LastUpdated *time.Time                `json:"last_updated"`
}

// Store serializes every read-modify-write through mu; the file is replaced
// atomically on each save.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store { return &Store{path: path} }

// load returns an empty document when the file is missing. A file that is not
// valid JSON is renamed to <path>.corrupt-<unix> first so the next save cannot
// overwrite the only copy of its contents.
func (s *Store) load() (document, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return document{}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("%w: read %s: %v", domain.ErrStoreUnavailable, s.path, err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
		if rerr := os.Rename(s.path, aside); rerr != nil {
			return document{}, fmt.Errorf("%w: history file %s is corrupt (%v) and could not be moved aside: %v",
				domain.ErrStoreUnavailable, s.path, err, rerr)
		}
		log.Warn().Err(err).Str("path", s.path).Str("moved_to", aside).Msg("history file is corrupt, starting empty")
		return document{}, nil
	}
	return doc, nil
}

func (s *Store) save(doc document) error {
	now := time.Now().UTC()
	doc.LastUpdated = &now
	if doc.Businesses == nil {
		doc.Businesses = []domain.BusinessAnalysis{}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", domain.ErrStoreUnavailable, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: rename: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, a domain.BusinessAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range doc.Businesses {
		if doc.Businesses[i].URL == a.URL {
			doc.Businesses[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Businesses = append(doc.Businesses, a)
	}
	return s.save(doc)
}

func (s *Store) List(ctx context.Context) ([]domain.BusinessAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Businesses, nil
}

func (s *Store) ListByCategory(ctx context.Context, categoryID string) ([]domain.BusinessAnalysis, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.BusinessAnalysis, 0, len(all))
	for _, a := range all {
		if a.Category.ID == categoryID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) GetByURL(ctx context.Context, url string) (domain.BusinessAnalysis, error) {
	all, err := s.List(ctx)
	if err != nil {
		return domain.BusinessAnalysis{}, err
	}
	for _, a := range all {
		if a.URL == url {
			return a, nil
		}
	}
	return domain.BusinessAnalysis{}, domain.ErrNotFound
}

func (s *Store) DeleteByURL(ctx context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	for i := range doc.Businesses {
		if doc.Businesses[i].URL == url {
			doc.Businesses = append(doc.Businesses[:i], doc.Businesses[i+1:]...)
			return true, s.save(doc)
		}
	}
	return false, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(document{})
}

func (s *Store) Close(ctx context.Context) error { return nil }
