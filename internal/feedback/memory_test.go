package feedback

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spuriolabs/spurio/internal/models"
)

func addRating(t *testing.T, store *MemoryStore, rating models.FeedbackRating, a, b string) {
	t.Helper()
	_, err := store.AddFeedback(context.Background(), Input{
		CorrelationID: "corr",
		Rating:        rating,
		SeriesA:       a,
		SeriesB:       b,
	})
	require.NoError(t, err)
}

func TestMemoryStore_AddFeedback_AccumulatesScores(t *testing.T) {
	store := NewMemoryStore(0.5)

	addRating(t, store, models.RatingFunny, "A", "B")
	addRating(t, store, models.RatingFunny, "B", "A")
	addRating(t, store, models.RatingIntriguing, "B", "C")
	addRating(t, store, models.RatingBoring, "C", "D")

	ctx := context.Background()
	assert.InDelta(t, 2.0, store.PriorityScore(ctx, "A"), 1e-9)
	assert.InDelta(t, 2.3, store.PriorityScore(ctx, "B"), 1e-9)
	assert.InDelta(t, -0.2, store.PriorityScore(ctx, "C"), 1e-9)
	assert.InDelta(t, -0.5, store.PriorityScore(ctx, "D"), 1e-9)
	assert.Zero(t, store.PriorityScore(ctx, "Never Rated"))

	// Both orderings landed on the same pair entry.
	assert.Len(t, store.pairs, 3)
	assert.True(t, store.pairs[pairName{a: "A", b: "B"}].Equal(decimal.NewFromInt(2)))
}

func TestMemoryStore_AddFeedback_UnknownRating(t *testing.T) {
	store := NewMemoryStore(0.5)

	_, err := store.AddFeedback(context.Background(), Input{
		CorrelationID: "corr",
		Rating:        models.FeedbackRating("shrug"),
		SeriesA:       "A",
		SeriesB:       "B",
	})
	assert.ErrorIs(t, err, ErrUnknownRating)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestMemoryStore_ShouldPrioritize(t *testing.T) {
	store := NewMemoryStore(0.5)

	addRating(t, store, models.RatingFunny, "Hit", "Filler")
	addRating(t, store, models.RatingBoring, "Filler", "Dud")

	ctx := context.Background()
	assert.True(t, store.ShouldPrioritize(ctx, "Hit"))
	assert.False(t, store.ShouldPrioritize(ctx, "Filler"))
	assert.False(t, store.ShouldPrioritize(ctx, "Dud"))
}

func TestMemoryStore_Stats(t *testing.T) {
	store := NewMemoryStore(0.5)

	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("Series %d", i)
		addRating(t, store, models.RatingFunny, name, "Anchor")
	}
	addRating(t, store, models.RatingIntriguing, "Series 0", "Anchor")
	addRating(t, store, models.RatingBoring, "Series 1", "Anchor")

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, stats.Total)
	assert.Equal(t, 6, stats.Funny)
	assert.Equal(t, 1, stats.Intriguing)
	assert.Equal(t, 1, stats.Boring)
	assert.InDelta(t, 0.75, stats.FunnyRatio, 1e-9)

	require.Len(t, stats.TopDatasets, 5)
	assert.Equal(t, "Anchor", stats.TopDatasets[0].Name)
	for i := 1; i < len(stats.TopDatasets); i++ {
		assert.True(t, stats.TopDatasets[i-1].Score.GreaterThanOrEqual(stats.TopDatasets[i].Score))
	}
}

func TestMemoryStore_Stats_Empty(t *testing.T) {
	store := NewMemoryStore(0.5)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.FunnyRatio)
	assert.Empty(t, stats.TopDatasets)
}

func TestMemoryStore_PruneEvents(t *testing.T) {
	store := NewMemoryStore(0.5)

	addRating(t, store, models.RatingFunny, "A", "B")
	addRating(t, store, models.RatingBoring, "C", "D")

	// A future cutoff removes everything recorded so far.
	removed, err := store.PruneEvents(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)

	// Scores survive pruning.
	assert.InDelta(t, 1.0, store.PriorityScore(context.Background(), "A"), 1e-9)

	removed, err = store.PruneEvents(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)
}
