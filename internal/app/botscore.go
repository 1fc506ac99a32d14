package app

import (
	"strings"
	"unicode/utf8"

	"reviewlens/internal/domain"
)

// RawReview holds the fields the bot heuristic looks at, already defaulted.
type RawReview struct {
	Text       string
	Rating     int
	Confidence float64
}

const (
	shortTextLimit     = 20
	genericWordLimit   = 3
	extremeTextLimit   = 50
	lowConfidenceLimit = 0.6
	maxBotScore        = 100
)

var genericPhrases = map[string]struct{}{
	"excelente": {}, "muy bueno": {}, "recomendado": {}, "bueno": {}, "ok": {}, "malo": {},
}

// ScoreReview sums the triggered heuristics, capped at 100.
// Indicators come back in rule order.
func ScoreReview(r RawReview) (int, []domain.BotIndicator) {
	score := 0
	indicators := []domain.BotIndicator{}
	n := utf8.RuneCountInString(r.Text)

	if n < shortTextLimit {
		score += 25
		indicators = append(indicators, domain.IndicatorShortText)
	}

	_, generic := genericPhrases[strings.ToLower(strings.TrimSpace(r.Text))]
	if generic || len(strings.Fields(r.Text)) <= genericWordLimit {
		score += 25
		indicators = append(indicators, domain.IndicatorGenericPhrases)
	}

	if (r.Rating == 1 || r.Rating == 5) && n < extremeTextLimit {
		score += 15
		indicators = append(indicators, domain.IndicatorExtremeRating)
	}

	if r.Confidence < lowConfidenceLimit {
		score += 20
		indicators = append(indicators, domain.IndicatorLowConfidence)
	}

	if score > maxBotScore {
		score = maxBotScore
	}
	return score, indicators
}

func ClassifyBotScore(score int) domain.BotClassification {
	switch {
	case score <= 30:
		return domain.BotReal
	case score <= 60:
		return domain.BotSuspicious
	default:
		return domain.BotLikely
	}
}
