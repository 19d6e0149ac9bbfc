package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeedbackRating is a user's verdict on one displayed correlation.
type FeedbackRating string

const (
	RatingFunny      FeedbackRating = "funny"
	RatingIntriguing FeedbackRating = "intriguing"
	RatingBoring     FeedbackRating = "boring"
)

// Valid reports whether the rating is one of the accepted values.
func (r FeedbackRating) Valid() bool {
	switch r {
	case RatingFunny, RatingIntriguing, RatingBoring:
		return true
	}
	return false
}

// ScoreDelta returns the score adjustment applied to both series of the rated
// pair. Funny boosts hard, intriguing mildly, boring penalizes.
func (r FeedbackRating) ScoreDelta() decimal.Decimal {
	switch r {
	case RatingFunny:
		return decimal.NewFromFloat(1.0)
	case RatingIntriguing:
		return decimal.NewFromFloat(0.3)
	case RatingBoring:
		return decimal.NewFromFloat(-0.5)
	}
	return decimal.Zero
}

// FeedbackEvent is one recorded rating.
type FeedbackEvent struct {
	ID            string         `json:"id" db:"id"`
	CorrelationID string         `json:"correlation_id" db:"correlation_id"`
	Rating        FeedbackRating `json:"rating" db:"rating"`
	SeriesA       string         `json:"series_a" db:"series_a"`
	SeriesB       string         `json:"series_b" db:"series_b"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// DatasetScore is a series name with its accumulated feedback score.
type DatasetScore struct {
	Name  string          `json:"name"`
	Score decimal.Decimal `json:"score"`
}

// FeedbackStats summarizes collected feedback for the stats endpoint.
type FeedbackStats struct {
	Total       int            `json:"total"`
	Funny       int            `json:"funny"`
	Intriguing  int            `json:"intriguing"`
	Boring      int            `json:"boring"`
	FunnyRatio  float64        `json:"funny_ratio"`
	TopDatasets []DatasetScore `json:"top_datasets"`
}
