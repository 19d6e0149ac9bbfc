package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/spuriolabs/spurio/internal/models"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it,
// which is what the tests substitute.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PostgresStore persists feedback events and accumulated scores.
type PostgresStore struct {
	pool      Pool
	threshold float64
	logger    *logrus.Logger
}

// NewPostgresStore creates a store over an existing pool. A non-positive
// threshold falls back to the default.
func NewPostgresStore(pool Pool, threshold float64, logger *logrus.Logger) *PostgresStore {
	if threshold <= 0 {
		threshold = DefaultPriorityThreshold
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &PostgresStore{pool: pool, threshold: threshold, logger: logger}
}

// EnsureSchema creates the feedback tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS feedback_events (
			id UUID PRIMARY KEY,
			correlation_id TEXT NOT NULL,
			rating TEXT NOT NULL,
			series_a TEXT NOT NULL,
			series_b TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_events_created_at
			ON feedback_events (created_at)`,
		`CREATE TABLE IF NOT EXISTS dataset_scores (
			name TEXT PRIMARY KEY,
			score NUMERIC(12,4) NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS pair_scores (
			name_a TEXT NOT NULL,
			name_b TEXT NOT NULL,
			score NUMERIC(12,4) NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (name_a, name_b)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure feedback schema: %w", err)
		}
	}
	return nil
}

// AddFeedback records one rating and applies its score delta to both series
// and to the pair, all in a single transaction.
func (s *PostgresStore) AddFeedback(ctx context.Context, input Input) (*models.FeedbackEvent, error) {
	if !input.Rating.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRating, input.Rating)
	}

	event := &models.FeedbackEvent{
		ID:            uuid.New().String(),
		CorrelationID: input.CorrelationID,
		Rating:        input.Rating,
		SeriesA:       input.SeriesA,
		SeriesB:       input.SeriesB,
		CreatedAt:     time.Now().UTC(),
	}
	delta := input.Rating.ScoreDelta()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin feedback transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.WithError(rbErr).Warn("Failed to roll back feedback transaction")
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO feedback_events (id, correlation_id, rating, series_a, series_b, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.CorrelationID, string(event.Rating), event.SeriesA, event.SeriesB, event.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert feedback event: %w", err)
	}

	for _, name := range []string{input.SeriesA, input.SeriesB} {
		_, err = tx.Exec(ctx,
			`INSERT INTO dataset_scores (name, score, updated_at)
			 VALUES ($1, $2, CURRENT_TIMESTAMP)
			 ON CONFLICT (name)
			 DO UPDATE SET score = dataset_scores.score + EXCLUDED.score, updated_at = CURRENT_TIMESTAMP`,
			name, delta)
		if err != nil {
			return nil, fmt.Errorf("failed to update dataset score: %w", err)
		}
	}

	nameA, nameB := canonicalPair(input.SeriesA, input.SeriesB)
	_, err = tx.Exec(ctx,
		`INSERT INTO pair_scores (name_a, name_b, score, updated_at)
		 VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		 ON CONFLICT (name_a, name_b)
		 DO UPDATE SET score = pair_scores.score + EXCLUDED.score, updated_at = CURRENT_TIMESTAMP`,
		nameA, nameB, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to update pair score: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit feedback transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"correlation_id": event.CorrelationID,
		"rating":         event.Rating,
	}).Debug("Recorded feedback")
	return event, nil
}

// PriorityScore returns the accumulated score for a dataset. Unknown names
// score zero; store errors are logged and also score zero, because scoring
// must never block generation.
func (s *PostgresStore) PriorityScore(ctx context.Context, name string) float64 {
	var score decimal.Decimal
	err := s.pool.QueryRow(ctx,
		`SELECT score FROM dataset_scores WHERE name = $1`, name).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0
	}
	if err != nil {
		s.logger.WithError(err).WithField("dataset", name).Warn("Failed to read dataset score, treating as zero")
		return 0
	}
	value, _ := score.Float64()
	return value
}

// ShouldPrioritize reports whether a dataset's score clears the threshold.
func (s *PostgresStore) ShouldPrioritize(ctx context.Context, name string) bool {
	return s.PriorityScore(ctx, name) > s.threshold
}

// Stats aggregates event counts and the best-loved datasets.
func (s *PostgresStore) Stats(ctx context.Context) (*models.FeedbackStats, error) {
	stats := &models.FeedbackStats{}
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE rating = 'funny'),
		        COUNT(*) FILTER (WHERE rating = 'intriguing'),
		        COUNT(*) FILTER (WHERE rating = 'boring')
		 FROM feedback_events`).Scan(&stats.Total, &stats.Funny, &stats.Intriguing, &stats.Boring)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate feedback events: %w", err)
	}
	if stats.Total > 0 {
		stats.FunnyRatio = float64(stats.Funny) / float64(stats.Total)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT name, score FROM dataset_scores ORDER BY score DESC LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("failed to query top datasets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ds models.DatasetScore
		if err := rows.Scan(&ds.Name, &ds.Score); err != nil {
			return nil, fmt.Errorf("failed to scan dataset score: %w", err)
		}
		stats.TopDatasets = append(stats.TopDatasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read top datasets: %w", err)
	}
	return stats, nil
}

// PruneEvents deletes events recorded before the cutoff. Accumulated scores
// survive pruning.
func (s *PostgresStore) PruneEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM feedback_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old feedback events: %w", err)
	}
	return tag.RowsAffected(), nil
}
