// Package cache stores displayed correlation records for later retrieval by
// id. Records live until TTL eviction; after that the chart and feedback
// endpoints treat them as gone.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/spuriolabs/spurio/internal/models"
)

// ErrNotFound is returned when a record id is unknown or already evicted.
var ErrNotFound = errors.New("correlation record not found")

// DefaultTTL bounds record lifetime when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// Stats holds counters for one record store.
type Stats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Stored  int64 `json:"stored"`
}

// RecordStore is the contract shared by the Redis and in-memory stores.
type RecordStore interface {
	// Put stores a record under its id for the configured TTL.
	Put(ctx context.Context, record *models.CorrelationRecord) error
	// Get returns a stored record, or ErrNotFound once it is evicted.
	Get(ctx context.Context, id string) (*models.CorrelationRecord, error)
	// Clear drops all stored records and reports how many were removed.
	Clear(ctx context.Context) (int64, error)
	// Stats returns current counters.
	Stats(ctx context.Context) Stats
	// Close releases any background resources.
	Close() error
}
