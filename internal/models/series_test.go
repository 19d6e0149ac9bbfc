package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthlySeries(name string, values []float64) Series {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]SeriesPoint, len(values))
	for i, v := range values {
		points[i] = SeriesPoint{Timestamp: start.AddDate(0, i, 0), Value: v}
	}
	return Series{Name: name, Points: points}
}

func TestSeriesPoint_Missing(t *testing.T) {
	assert.False(t, SeriesPoint{Value: 1.5}.Missing())
	assert.False(t, SeriesPoint{Value: 0}.Missing())
	assert.True(t, SeriesPoint{Value: math.NaN()}.Missing())
	assert.True(t, SeriesPoint{Value: math.Inf(1)}.Missing())
	assert.True(t, SeriesPoint{Value: math.Inf(-1)}.Missing())
}

func TestSeries_Values(t *testing.T) {
	s := monthlySeries("Test Series", []float64{1, 2, 3})

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{1, 2, 3}, s.Values())
}

func TestPool_Names(t *testing.T) {
	pool := Pool{
		monthlySeries("Alpha", []float64{1}),
		monthlySeries("Beta", []float64{2}),
	}

	assert.Equal(t, []string{"Alpha", "Beta"}, pool.Names())
}

func TestPool_ByName(t *testing.T) {
	pool := Pool{
		monthlySeries("Alpha", []float64{1}),
		monthlySeries("Beta", []float64{2}),
	}

	s, ok := pool.ByName("Beta")
	require.True(t, ok)
	assert.Equal(t, "Beta", s.Name)

	_, ok = pool.ByName("Gamma")
	assert.False(t, ok)
}

func TestCorrelationRecord_JSONShape(t *testing.T) {
	rec := CorrelationRecord{
		ID:          "rec-1",
		NameA:       "Cheese Consumption",
		NameB:       "Bedsheet Accidents",
		Coefficient: 0.87,
		PValue:      0.002,
		PointsA:     []SeriesPoint{{Timestamp: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Value: 1.2}},
		PointsB:     []SeriesPoint{{Timestamp: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Value: 0.9}},
		SourceA:     Provenance{Name: "USDA", URL: "https://www.usda.gov"},
		SourceB:     Provenance{Name: "CDC", URL: "https://www.cdc.gov"},
		Method:      "pearson",
		CreatedAt:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, key := range []string{
		"id", "name_a", "name_b", "coefficient", "p_value",
		"points_a", "points_b", "source_a", "source_b",
		"dataset_index_a", "dataset_index_b", "method", "created_at",
	} {
		assert.Contains(t, decoded, key)
	}
	assert.Equal(t, 1, rec.SampleSize())
}

func TestFeedbackRating_Valid(t *testing.T) {
	assert.True(t, RatingFunny.Valid())
	assert.True(t, RatingIntriguing.Valid())
	assert.True(t, RatingBoring.Valid())
	assert.False(t, FeedbackRating("hilarious").Valid())
	assert.False(t, FeedbackRating("").Valid())
}

func TestFeedbackRating_ScoreDelta(t *testing.T) {
	assert.True(t, RatingFunny.ScoreDelta().Equal(decimal.NewFromFloat(1.0)))
	assert.True(t, RatingIntriguing.ScoreDelta().Equal(decimal.NewFromFloat(0.3)))
	assert.True(t, RatingBoring.ScoreDelta().Equal(decimal.NewFromFloat(-0.5)))
	assert.True(t, FeedbackRating("unknown").ScoreDelta().IsZero())
}
