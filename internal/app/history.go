package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"reviewlens/internal/domain"
)

// History is the analysis history store. It owns the degrade policy: when the
// backend reports ErrStoreUnavailable, writes come back unsaved and reads come
// back empty instead of failing. Every other backend error is returned.
type History struct {
	repo domain.AnalysisRepository
	now  func() time.Time
}

func NewHistory(r domain.AnalysisRepository) *History {
	return &History{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

func unavailable(err error) bool { return errors.Is(err, domain.ErrStoreUnavailable) }

// Upsert stores a under its URL-derived ID, overwriting any previous record,
// and stamps AnalyzedAt.
func (h *History) Upsert(ctx context.Context, a domain.BusinessAnalysis) (domain.BusinessAnalysis, error) {
	a.ID = domain.AnalysisID(a.URL)
	a.AnalyzedAt = h.now()
	a.Saved = true

	if err := h.repo.Upsert(ctx, a); err != nil {
		if unavailable(err) {
			log.Warn().Err(err).Str("url", a.URL).Str("stage", "persist").Msg("history store unavailable, analysis not saved")
			a.Saved = false
			return a, nil
		}
		return domain.BusinessAnalysis{}, err
	}
	return a, nil
}

func (h *History) ListAll(ctx context.Context) ([]domain.BusinessAnalysis, error) {
	out, _, err := h.listAll(ctx)
	return out, err
}

func (h *History) ListByCategory(ctx context.Context, categoryID string) ([]domain.BusinessAnalysis, error) {
	out, _, err := h.listByCategory(ctx, categoryID)
	return out, err
}

// listAll and listByCategory also report whether the empty result stands in
// for an unavailable store, so callers can avoid caching it.
func (h *History) listAll(ctx context.Context) ([]domain.BusinessAnalysis, bool, error) {
	out, err := h.repo.List(ctx)
	return h.readMany(out, err, "list")
}

func (h *History) listByCategory(ctx context.Context, categoryID string) ([]domain.BusinessAnalysis, bool, error) {
	out, err := h.repo.ListByCategory(ctx, categoryID)
	return h.readMany(out, err, "list_by_category")
}

func (h *History) readMany(out []domain.BusinessAnalysis, err error, stage string) ([]domain.BusinessAnalysis, bool, error) {
	if err != nil {
		if unavailable(err) {
			log.Warn().Err(err).Str("stage", stage).Msg("history store unavailable, returning empty result")
			return []domain.BusinessAnalysis{}, true, nil
		}
		return nil, false, err
	}
	if out == nil {
		out = []domain.BusinessAnalysis{}
	}
	for i := range out {
		out[i].Saved = true
	}
	return out, false, nil
}

// GetByURL returns ErrNotFound when the record is absent or the store is unavailable.
func (h *History) GetByURL(ctx context.Context, url string) (domain.BusinessAnalysis, error) {
	a, err := h.repo.GetByURL(ctx, url)
	if err != nil {
		if unavailable(err) {
			log.Warn().Err(err).Str("url", url).Str("stage", "get").Msg("history store unavailable")
			return domain.BusinessAnalysis{}, domain.ErrNotFound
		}
		return domain.BusinessAnalysis{}, err
	}
	a.Saved = true
	return a, nil
}

func (h *History) DeleteByURL(ctx context.Context, url string) (bool, error) {
	ok, err := h.repo.DeleteByURL(ctx, url)
	if err != nil {
		if unavailable(err) {
			log.Warn().Err(err).Str("url", url).Str("stage", "delete").Msg("history store unavailable")
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// ClearAll is safe to call repeatedly.
func (h *History) ClearAll(ctx context.Context) (bool, error) {
	if err := h.repo.Clear(ctx); err != nil {
		if unavailable(err) {
			log.Warn().Err(err).Str("stage", "clear").Msg("history store unavailable")
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AggregateStats scans every stored analysis and sums it per category id.
func (h *History) AggregateStats(ctx context.Context) (map[string]domain.CategoryStats, error) {
	stats, _, err := h.aggregateStats(ctx)
	return stats, err
}

func (h *History) aggregateStats(ctx context.Context) (map[string]domain.CategoryStats, bool, error) {
	all, degraded, err := h.listAll(ctx)
	if err != nil {
		return nil, false, err
	}
	stats := make(map[string]domain.CategoryStats)
	for _, a := range all {
		ref := a.Category
		if ref.ID == "" {
			ref = domain.DefaultCategory().Ref()
		}
		st, ok := stats[ref.ID]
		if !ok {
			st = domain.CategoryStats{CategoryID: ref.ID, CategoryName: ref.Name, Icon: ref.Icon}
		}
		st.TotalBusinesses++
		st.TotalReviews += a.TotalReviews
		st.SentimentTotals.Positive += a.SentimentSummary.Positive
		st.SentimentTotals.Neutral += a.SentimentSummary.Neutral
		st.SentimentTotals.Negative += a.SentimentSummary.Negative
		st.BotTotals.Real += a.BotStats.Real
		st.BotTotals.Suspicious += a.BotStats.Suspicious
		st.BotTotals.Bot += a.BotStats.Bot
		stats[ref.ID] = st
	}
	return stats, degraded, nil
}
