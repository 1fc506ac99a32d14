package app

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"reviewlens/internal/domain"
)

/********** alias registries (single source of truth) **********/

var reviewAliases = map[string][]string{
	"author":     {"username", "author", "user.name", "reviewer"},
	"text":       {"review_text", "text", "comment", "body"},
	"rating":     {"rating", "stars", "score"},
	"sentiment":  {"sentiment", "label"},
	"confidence": {"confidence", "score_confidence", "probability"},
}

var businessAliases = map[string][]string{
	"name":        {"business_name", "name", "place.name"},
	"total":       {"total_reviews", "reviews_count"},
	"average":     {"average_rating", "avg_rating"},
	"summary":     {"sentiment_summary"},
	"reviews":     {"reviews"},
	"summary_pos": {"POS", "positive"},
	"summary_neu": {"NEU", "neutral"},
	"summary_neg": {"NEG", "negative"},
}

var sentimentCodes = map[string]domain.Sentiment{
	"POS": domain.SentimentPositive,
	"NEG": domain.SentimentNegative,
	"NEU": domain.SentimentNeutral,
}

const (
	defaultAuthor       = "Anónimo"
	defaultBusinessName = "Negocio"
	defaultRating       = 3
	defaultConfidence   = 0.5
	scorerConfidence    = 1.0
)

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstPresent returns the first non-nil value among the alias paths of key.
func firstPresent(m map[string]any, aliases map[string][]string, key string) (any, string) {
	for _, p := range aliases[key] {
		if v := lookupAny(m, p); v != nil {
			return v, p
		}
	}
	return nil, ""
}

// stringAlias returns the first non-empty string for key. A present value
// that is not a string is an error.
func stringAlias(m map[string]any, aliases map[string][]string, key string) (string, error) {
	for _, p := range aliases[key] {
		switch v := lookupAny(m, p).(type) {
		case nil:
			continue
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return v, nil
			}
		default:
			return "", fmt.Errorf("%s: expected string, got %T", p, v)
		}
	}
	return "", nil
}

// numberAlias reads a number from float64/int/json.Number or a numeric
// string like "4,5". ok is false when no alias is present.
func numberAlias(m map[string]any, aliases map[string][]string, key string) (f float64, ok bool, err error) {
	v, path := firstPresent(m, aliases, key)
	if v == nil {
		return 0, false, nil
	}
	f, err = toFloat(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", path, err)
	}
	return f, true, nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func truncInt(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Trunc(f))
}

// nameFromURL pulls a display name out of a ".../place/<name>/..." maps URL.
func nameFromURL(raw string) string {
	_, after, found := strings.Cut(raw, "place/")
	if !found {
		return ""
	}
	seg, _, _ := strings.Cut(after, "/")
	seg = strings.ReplaceAll(seg, "+", " ")
	if dec, err := url.PathUnescape(seg); err == nil {
		seg = dec
	}
	return strings.TrimSpace(seg)
}

/********** reviews mapper **********/

func mapReview(in any) (domain.Review, error) {
	r, ok := in.(map[string]any)
	if !ok {
		return domain.Review{}, fmt.Errorf("expected object, got %T", in)
	}

	author, err := stringAlias(r, reviewAliases, "author")
	if err != nil {
		return domain.Review{}, err
	}
	if author == "" {
		author = defaultAuthor
	}

	text, err := stringAlias(r, reviewAliases, "text")
	if err != nil {
		return domain.Review{}, err
	}

	rating := defaultRating
	if f, ok, err := numberAlias(r, reviewAliases, "rating"); err != nil {
		return domain.Review{}, err
	} else if ok {
		rating = truncInt(f)
	}

	code, err := stringAlias(r, reviewAliases, "sentiment")
	if err != nil {
		return domain.Review{}, err
	}
	sentiment, known := sentimentCodes[strings.ToUpper(strings.TrimSpace(code))]
	if !known {
		sentiment = domain.SentimentNeutral
	}

	// The scorer treats a missing confidence as fully confident; the stored
	// value falls back to 0.5 for missing or zero.
	rawConf, hasConf, err := numberAlias(r, reviewAliases, "confidence")
	if err != nil {
		return domain.Review{}, err
	}
	scoreConf := scorerConfidence
	if hasConf {
		scoreConf = rawConf
	}
	confidence := defaultConfidence
	if hasConf && rawConf != 0 {
		confidence = rawConf
	}

	score, indicators := ScoreReview(RawReview{Text: text, Rating: rating, Confidence: scoreConf})

	return domain.Review{
		Author:            author,
		Text:              text,
		Rating:            rating,
		Sentiment:         sentiment,
		Confidence:        confidence,
		BotScore:          score,
		BotClassification: ClassifyBotScore(score),
		BotIndicators:     indicators,
	}, nil
}

/********** business mapper **********/

func mapSentimentSummary(payload map[string]any) (domain.SentimentSummary, error) {
	v, _ := firstPresent(payload, businessAliases, "summary")
	if v == nil {
		return domain.SentimentSummary{}, nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return domain.SentimentSummary{}, fmt.Errorf("sentiment_summary: expected object, got %T", v)
	}
	count := func(key string) (int, error) {
		f, _, err := numberAlias(raw, businessAliases, key)
		return truncInt(f), err
	}
	var s domain.SentimentSummary
	var err error
	if s.Positive, err = count("summary_pos"); err != nil {
		return s, err
	}
	if s.Neutral, err = count("summary_neu"); err != nil {
		return s, err
	}
	if s.Negative, err = count("summary_neg"); err != nil {
		return s, err
	}
	return s, nil
}

// Transform normalizes an upstream scraper payload into a BusinessAnalysis.
// Sentiment counts are copied from upstream; bot stats are recounted from
// the transformed reviews. Any malformed field aborts with ErrTransform.
// The category is left empty for the caller to assign.
func Transform(payload map[string]any, sourceURL string) (domain.BusinessAnalysis, error) {
	fail := func(err error) (domain.BusinessAnalysis, error) {
		return domain.BusinessAnalysis{}, fmt.Errorf("%w: %v", domain.ErrTransform, err)
	}
	if payload == nil {
		return fail(fmt.Errorf("empty payload"))
	}

	var rawReviews []any
	if v, _ := firstPresent(payload, businessAliases, "reviews"); v != nil {
		list, ok := v.([]any)
		if !ok {
			return fail(fmt.Errorf("reviews: expected array, got %T", v))
		}
		rawReviews = list
	}

	reviews := make([]domain.Review, 0, len(rawReviews))
	var bots domain.BotStats
	for i, r := range rawReviews {
		rv, err := mapReview(r)
		if err != nil {
			return fail(fmt.Errorf("review %d: %w", i, err))
		}
		bots.Add(rv.BotClassification)
		reviews = append(reviews, rv)
	}

	summary, err := mapSentimentSummary(payload)
	if err != nil {
		return fail(err)
	}

	total := len(reviews)
	if f, ok, err := numberAlias(payload, businessAliases, "total"); err != nil {
		return fail(err)
	} else if ok {
		total = truncInt(f)
	}

	avg, _, err := numberAlias(payload, businessAliases, "average")
	if err != nil {
		return fail(err)
	}

	name, err := stringAlias(payload, businessAliases, "name")
	if err != nil {
		return fail(err)
	}
	if name == "" {
		name = nameFromURL(sourceURL)
	}
	if name == "" {
		name = defaultBusinessName
	}

	return domain.BusinessAnalysis{
		Name:             name,
		URL:              sourceURL,
		TotalReviews:     total,
		AverageRating:    avg,
		SentimentSummary: summary,
		BotStats:         bots,
		Reviews:          reviews,
	}, nil
}
