package domain

import (
	"time"

	"github.com/google/uuid"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

type BotClassification string

const (
	BotReal       BotClassification = "real"
	BotSuspicious BotClassification = "suspicious"
	BotLikely     BotClassification = "bot"
)

type BotIndicator string

const (
	IndicatorShortText      BotIndicator = "short_text"
	IndicatorGenericPhrases BotIndicator = "generic_phrases"
	IndicatorExtremeRating  BotIndicator = "extreme_rating"
	IndicatorLowConfidence  BotIndicator = "low_confidence"
)

// Review is a normalized upstream review. It is never mutated after the
// transformer produces it.
type Review struct {
	Author            string            `json:"author" bson:"author"`
	Text              string            `json:"text" bson:"text"`
	Rating            int               `json:"rating" bson:"rating"`
	Sentiment         Sentiment         `json:"sentiment" bson:"sentiment"`
	Confidence        float64           `json:"confidence" bson:"confidence"`
	BotScore          int               `json:"bot_score" bson:"bot_score"`
	BotClassification BotClassification `json:"bot_classification" bson:"bot_classification"`
	BotIndicators     []BotIndicator    `json:"bot_indicators" bson:"bot_indicators"`
}

type SentimentSummary struct {
	Positive int `json:"positive" bson:"positive"`
	Neutral  int `json:"neutral" bson:"neutral"`
	Negative int `json:"negative" bson:"negative"`
}

func (s SentimentSummary) Total() int { return s.Positive + s.Neutral + s.Negative }

type BotStats struct {
	Real       int `json:"real" bson:"real"`
	Suspicious int `json:"suspicious" bson:"suspicious"`
	Bot        int `json:"bot" bson:"bot"`
}

func (b BotStats) Total() int { return b.Real + b.Suspicious + b.Bot }

// Add counts one review with classification c.
func (b *BotStats) Add(c BotClassification) {
	switch c {
	case BotReal:
		b.Real++
	case BotSuspicious:
		b.Suspicious++
	case BotLikely:
		b.Bot++
	}
}

// CategoryRef is the category as embedded in a stored analysis.
type CategoryRef struct {
	ID   string `json:"category_id" bson:"category_id"`
	Name string `json:"category_name" bson:"category_name"`
	Icon string `json:"icon" bson:"icon"`
}

// BusinessAnalysis is the persisted result of analyzing one listing URL.
// URL is the identity; ID is derived from it.
type BusinessAnalysis struct {
	ID               string           `json:"_id,omitempty" bson:"_id,omitempty"`
	Name             string           `json:"name" bson:"name"`
	URL              string           `json:"url" bson:"url"`
	TotalReviews     int              `json:"total_reviews" bson:"total_reviews"`
	AverageRating    float64          `json:"average_rating" bson:"average_rating"`
	SentimentSummary SentimentSummary `json:"sentiment_summary" bson:"sentiment_summary"`
	BotStats         BotStats         `json:"bot_stats" bson:"bot_stats"`
	Category         CategoryRef      `json:"category" bson:"category"`
	Reviews          []Review         `json:"reviews" bson:"reviews"`
	AnalyzedAt       time.Time        `json:"analyzed_at" bson:"analyzed_at"`
	Saved            bool             `json:"_saved" bson:"-"`
}

// CategoryStats aggregates every stored analysis of one category.
type CategoryStats struct {
	CategoryID      string           `json:"category_id"`
	CategoryName    string           `json:"category_name"`
	Icon            string           `json:"icon"`
	TotalBusinesses int              `json:"total_businesses"`
	TotalReviews    int              `json:"total_reviews"`
	SentimentTotals SentimentSummary `json:"sentiment_totals"`
	BotTotals       BotStats         `json:"bot_totals"`
}

// AnalysisID derives the storage key of an analysis from its source URL
// (UUIDv5 in the URL namespace).
func AnalysisID(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}
