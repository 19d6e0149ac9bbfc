package feedback

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spuriolabs/spurio/internal/models"
)

type pairName struct {
	a, b string
}

// MemoryStore is the in-process equivalent of PostgresStore, used when no
// database is configured and in handler tests.
type MemoryStore struct {
	mu        sync.RWMutex
	threshold float64
	events    []models.FeedbackEvent
	datasets  map[string]decimal.Decimal
	pairs     map[pairName]decimal.Decimal
}

// NewMemoryStore creates an empty in-process store. A non-positive threshold
// falls back to the default.
func NewMemoryStore(threshold float64) *MemoryStore {
	if threshold <= 0 {
		threshold = DefaultPriorityThreshold
	}
	return &MemoryStore{
		threshold: threshold,
		datasets:  make(map[string]decimal.Decimal),
		pairs:     make(map[pairName]decimal.Decimal),
	}
}

// AddFeedback records one rating and applies its score delta to both series
// and to the pair.
func (s *MemoryStore) AddFeedback(ctx context.Context, input Input) (*models.FeedbackEvent, error) {
	if !input.Rating.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRating, input.Rating)
	}

	event := models.FeedbackEvent{
		ID:            uuid.New().String(),
		CorrelationID: input.CorrelationID,
		Rating:        input.Rating,
		SeriesA:       input.SeriesA,
		SeriesB:       input.SeriesB,
		CreatedAt:     time.Now().UTC(),
	}
	delta := input.Rating.ScoreDelta()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	s.datasets[input.SeriesA] = s.datasets[input.SeriesA].Add(delta)
	s.datasets[input.SeriesB] = s.datasets[input.SeriesB].Add(delta)

	nameA, nameB := canonicalPair(input.SeriesA, input.SeriesB)
	key := pairName{a: nameA, b: nameB}
	s.pairs[key] = s.pairs[key].Add(delta)

	return &event, nil
}

// PriorityScore returns the accumulated score for a dataset, zero when the
// dataset has never been rated.
func (s *MemoryStore) PriorityScore(ctx context.Context, name string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, _ := s.datasets[name].Float64()
	return value
}

// ShouldPrioritize reports whether a dataset's score clears the threshold.
func (s *MemoryStore) ShouldPrioritize(ctx context.Context, name string) bool {
	return s.PriorityScore(ctx, name) > s.threshold
}

// Stats aggregates event counts and the best-loved datasets.
func (s *MemoryStore) Stats(ctx context.Context) (*models.FeedbackStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.FeedbackStats{Total: len(s.events)}
	for _, e := range s.events {
		switch e.Rating {
		case models.RatingFunny:
			stats.Funny++
		case models.RatingIntriguing:
			stats.Intriguing++
		case models.RatingBoring:
			stats.Boring++
		}
	}
	if stats.Total > 0 {
		stats.FunnyRatio = float64(stats.Funny) / float64(stats.Total)
	}

	top := make([]models.DatasetScore, 0, len(s.datasets))
	for name, score := range s.datasets {
		top = append(top, models.DatasetScore{Name: name, Score: score})
	}
	sort.Slice(top, func(i, j int) bool {
		if !top[i].Score.Equal(top[j].Score) {
			return top[i].Score.GreaterThan(top[j].Score)
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > 5 {
		top = top[:5]
	}
	stats.TopDatasets = top
	return stats, nil
}

// PruneEvents deletes events recorded before the cutoff. Accumulated scores
// survive pruning.
func (s *MemoryStore) PruneEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var removed int64
	for _, e := range s.events {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return removed, nil
}
