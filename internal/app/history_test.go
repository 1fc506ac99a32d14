package app_test

import (
	"context"
	"errors"
	"testing"

	"reviewlens/internal/app"
	"reviewlens/internal/domain"
)

func stored(url, category string, total int, sent domain.SentimentSummary, bots domain.BotStats) domain.BusinessAnalysis {
	return domain.BusinessAnalysis{
		Name:             url,
		URL:              url,
		TotalReviews:     total,
		SentimentSummary: sent,
		BotStats:         bots,
		Category:         domain.CategoryRef{ID: category},
		Reviews:          []domain.Review{},
	}
}

func TestHistory_UpsertTwiceKeepsOneRecord(t *testing.T) {
	repo := newFakeRepo()
	h := app.NewHistory(repo)
	ctx := context.Background()

	first, err := h.Upsert(ctx, stored("https://maps/a", "salud", 1, domain.SentimentSummary{}, domain.BotStats{}))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !first.Saved || first.ID != domain.AnalysisID("https://maps/a") || first.AnalyzedAt.IsZero() {
		t.Fatalf("unexpected stored record: %+v", first)
	}
	if _, err := h.Upsert(ctx, stored("https://maps/a", "salud", 7, domain.SentimentSummary{}, domain.BotStats{})); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	all, err := h.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].TotalReviews != 7 {
		t.Fatalf("expected one overwritten record, got %+v", all)
	}
	if !all[0].Saved {
		t.Fatalf("records read back from the store are saved")
	}
}

func TestHistory_DegradesWhenUnavailable(t *testing.T) {
	repo := newFakeRepo()
	repo.down = true
	h := app.NewHistory(repo)
	ctx := context.Background()

	a, err := h.Upsert(ctx, stored("https://maps/a", "salud", 1, domain.SentimentSummary{}, domain.BotStats{}))
	if err != nil {
		t.Fatalf("upsert should degrade, got %v", err)
	}
	if a.Saved {
		t.Fatalf("expected Saved=false when the store is unavailable")
	}
	if a.ID == "" || a.AnalyzedAt.IsZero() {
		t.Fatalf("unsaved analysis still carries id and timestamp: %+v", a)
	}

	all, err := h.ListAll(ctx)
	if err != nil || all == nil || len(all) != 0 {
		t.Fatalf("expected empty list, got %v %v", all, err)
	}
	byCat, err := h.ListByCategory(ctx, "salud")
	if err != nil || byCat == nil || len(byCat) != 0 {
		t.Fatalf("expected empty category list, got %v %v", byCat, err)
	}
	if _, err := h.GetByURL(ctx, "https://maps/a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, err := h.DeleteByURL(ctx, "https://maps/a"); ok || err != nil {
		t.Fatalf("expected false,nil got %v,%v", ok, err)
	}
	if ok, err := h.ClearAll(ctx); ok || err != nil {
		t.Fatalf("expected false,nil got %v,%v", ok, err)
	}
	stats, err := h.AggregateStats(ctx)
	if err != nil || len(stats) != 0 {
		t.Fatalf("expected empty stats, got %v %v", stats, err)
	}
}

func TestHistory_OtherErrorsPropagate(t *testing.T) {
	boom := errors.New("disk on fire")
	repo := newFakeRepo()
	repo.failWith = boom
	h := app.NewHistory(repo)
	ctx := context.Background()

	if _, err := h.Upsert(ctx, stored("u", "salud", 1, domain.SentimentSummary{}, domain.BotStats{})); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := h.ListAll(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := h.ClearAll(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestHistory_ClearIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	h := app.NewHistory(repo)
	ctx := context.Background()

	if _, err := h.Upsert(ctx, stored("u", "salud", 1, domain.SentimentSummary{}, domain.BotStats{})); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	for i := 0; i < 2; i++ {
		ok, err := h.ClearAll(ctx)
		if err != nil || !ok {
			t.Fatalf("clear #%d: %v %v", i, ok, err)
		}
	}
	all, _ := h.ListAll(ctx)
	if len(all) != 0 {
		t.Fatalf("expected empty history, got %d", len(all))
	}
}

func TestHistory_DeleteByURL(t *testing.T) {
	h := app.NewHistory(newFakeRepo())
	ctx := context.Background()

	if _, err := h.Upsert(ctx, stored("u", "salud", 1, domain.SentimentSummary{}, domain.BotStats{})); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if ok, err := h.DeleteByURL(ctx, "u"); !ok || err != nil {
		t.Fatalf("expected delete, got %v %v", ok, err)
	}
	if ok, err := h.DeleteByURL(ctx, "u"); ok || err != nil {
		t.Fatalf("second delete should report false, got %v %v", ok, err)
	}
	if _, err := h.GetByURL(ctx, "u"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistory_AggregateStats(t *testing.T) {
	h := app.NewHistory(newFakeRepo())
	ctx := context.Background()

	salud := domain.CategoryRef{ID: "salud", Name: "Salud", Icon: "🏥"}
	records := []domain.BusinessAnalysis{
		stored("a", "", 10, domain.SentimentSummary{Positive: 6, Neutral: 2, Negative: 2}, domain.BotStats{Real: 8, Suspicious: 1, Bot: 1}),
		stored("b", "", 5, domain.SentimentSummary{Positive: 1, Negative: 4}, domain.BotStats{Real: 2, Bot: 3}),
		stored("c", "", 3, domain.SentimentSummary{Neutral: 3}, domain.BotStats{Suspicious: 3}),
	}
	records[0].Category = salud
	records[1].Category = salud
	// c has no category and lands in the default one
	for _, r := range records {
		if _, err := h.Upsert(ctx, r); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	stats, err := h.AggregateStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 categories, got %v", stats)
	}
	s := stats["salud"]
	if s.CategoryName != "Salud" || s.TotalBusinesses != 2 || s.TotalReviews != 15 {
		t.Fatalf("unexpected salud stats: %+v", s)
	}
	if s.SentimentTotals != (domain.SentimentSummary{Positive: 7, Neutral: 2, Negative: 6}) {
		t.Fatalf("unexpected sentiment totals: %+v", s.SentimentTotals)
	}
	if s.BotTotals != (domain.BotStats{Real: 10, Suspicious: 1, Bot: 4}) {
		t.Fatalf("unexpected bot totals: %+v", s.BotTotals)
	}
	o := stats[domain.DefaultCategoryID]
	if o.TotalBusinesses != 1 || o.CategoryName != domain.DefaultCategory().Name {
		t.Fatalf("unexpected default stats: %+v", o)
	}
}
