package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"reviewlens/internal/domain"
)

type AnalyzeRequest struct {
	URL          string `json:"url"`
	BusinessName string `json:"business_name,omitempty"`
}

type AnalysisService struct {
	scraper domain.ScraperClient
	history *History
	cache   domain.Cache
}

func NewAnalysisService(s domain.ScraperClient, h *History, cache domain.Cache) *AnalysisService {
	return &AnalysisService{scraper: s, history: h, cache: cache}
}

// Analyze runs one listing URL through scraper -> transform -> classify ->
// persist. Upstream errors come back as the domain sentinels (or
// *domain.UpstreamStatusError) so the caller can map them; nothing is stored
// unless the transform succeeds.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (domain.BusinessAnalysis, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return domain.BusinessAnalysis{}, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}

	payload, err := s.scraper.Analyze(ctx, url)
	if err != nil {
		ev := log.Warn()
		var se *domain.UpstreamStatusError
		if !errors.As(err, &se) && !errors.Is(err, domain.ErrUpstreamTimeout) && !errors.Is(err, domain.ErrUpstreamUnreachable) {
			ev = log.Error()
		}
		ev.Err(err).Str("url", url).Str("stage", "upstream").Msg("scraper call failed")
		return domain.BusinessAnalysis{}, err
	}

	// Fall back to the caller-supplied name only when no name alias carries a
	// value. A malformed upstream name is left for Transform to reject.
	if name := strings.TrimSpace(req.BusinessName); name != "" {
		if v, err := stringAlias(payload, businessAliases, "name"); err == nil && strings.TrimSpace(v) == "" {
			payload["business_name"] = name
		}
	}

	analysis, err := Transform(payload, url)
	if err != nil {
		log.Error().Err(err).Str("url", url).Str("stage", "transform").Msg("upstream payload rejected")
		return domain.BusinessAnalysis{}, err
	}

	analysis.Category = Classify(analysis.Name, url).Ref()

	stored, err := s.history.Upsert(ctx, analysis)
	if err != nil {
		log.Error().Err(err).Str("url", url).Str("stage", "persist").Msg("store analysis failed")
		return domain.BusinessAnalysis{}, err
	}
	s.invalidate(ctx)

	log.Info().
		Str("url", url).
		Str("category", stored.Category.ID).
		Int("reviews", len(stored.Reviews)).
		Bool("saved", stored.Saved).
		Msg("analysis complete")
	return stored, nil
}

func (s *AnalysisService) DeleteByURL(ctx context.Context, url string) (bool, error) {
	if strings.TrimSpace(url) == "" {
		return false, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}
	ok, err := s.history.DeleteByURL(ctx, url)
	if err != nil {
		log.Error().Err(err).Str("url", url).Str("stage", "delete").Msg("delete analysis failed")
		return false, err
	}
	if ok {
		s.invalidate(ctx)
	}
	return ok, nil
}

func (s *AnalysisService) ClearHistory(ctx context.Context) (bool, error) {
	ok, err := s.history.ClearAll(ctx)
	if err != nil {
		log.Error().Err(err).Str("stage", "clear").Msg("clear history failed")
		return false, err
	}
	s.invalidate(ctx)
	return ok, nil
}

// invalidate drops every cached read model; all of them depend on the full set.
func (s *AnalysisService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, readCacheKeys()...); err != nil {
		log.Warn().Err(err).Msg("cache invalidation failed")
	}
}
