package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spuriolabs/spurio/internal/models"
)

// DatasetProvider supplies named series pools. Implementations must tolerate
// being asked for more series than they can produce and return what they have.
type DatasetProvider interface {
	Fetch(ctx context.Context, count int) (models.Pool, error)
}

// DatasetCache is a time-boxed pool over the provider. A pool stays usable
// while it is younger than the TTL and still large enough to sample from
// (poolMultiple times the requested size); otherwise a fresh, oversized pool
// (fetchMultiple times the requested size) replaces it.
//
// Like the tracker, the cache relies on the engine for serialization.
type DatasetCache struct {
	provider      DatasetProvider
	ttl           time.Duration
	poolMultiple  int
	fetchMultiple int
	logger        *logrus.Logger

	pool        models.Pool
	refreshedAt time.Time
	now         func() time.Time
}

// NewDatasetCache creates a cache over the provider. Non-positive arguments
// fall back to a 60s TTL, pool multiple 3 and fetch multiple 8.
func NewDatasetCache(provider DatasetProvider, ttl time.Duration, poolMultiple, fetchMultiple int, logger *logrus.Logger) *DatasetCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if poolMultiple <= 0 {
		poolMultiple = 3
	}
	if fetchMultiple <= 0 {
		fetchMultiple = 8
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &DatasetCache{
		provider:      provider,
		ttl:           ttl,
		poolMultiple:  poolMultiple,
		fetchMultiple: fetchMultiple,
		logger:        logger,
		now:           time.Now,
	}
}

// Get returns a uniform random sample of n series, refreshing the pool first
// when it is stale or too small. A provider that delivers fewer than n series
// results in a short sample, not an error.
func (dc *DatasetCache) Get(ctx context.Context, n int, rng *rand.Rand) (models.Pool, error) {
	if dc.fresh(n) {
		return dc.sample(n, rng), nil
	}

	if err := dc.Refresh(ctx, n); err != nil {
		return nil, err
	}
	return dc.sample(n, rng), nil
}

// Refresh fetches a new oversized pool for sample size n and resets the age.
func (dc *DatasetCache) Refresh(ctx context.Context, n int) error {
	want := n * dc.fetchMultiple
	fetched, err := dc.provider.Fetch(ctx, want)
	if err != nil {
		return fmt.Errorf("failed to fetch dataset pool: %w", err)
	}

	dc.logger.WithFields(logrus.Fields{
		"requested": want,
		"received":  len(fetched),
	}).Debug("Dataset pool refreshed")

	dc.pool = fetched
	dc.refreshedAt = dc.now()
	return nil
}

// Size returns the current pool size.
func (dc *DatasetCache) Size() int {
	return len(dc.pool)
}

// Age returns how old the current pool is.
func (dc *DatasetCache) Age() time.Duration {
	if dc.refreshedAt.IsZero() {
		return 0
	}
	return dc.now().Sub(dc.refreshedAt)
}

func (dc *DatasetCache) fresh(n int) bool {
	if dc.pool == nil || dc.refreshedAt.IsZero() {
		return false
	}
	return dc.now().Sub(dc.refreshedAt) < dc.ttl && len(dc.pool) >= n*dc.poolMultiple
}

// sample draws min(n, pool size) series uniformly without replacement. The
// sample order is random; record indices refer to positions in the sample.
func (dc *DatasetCache) sample(n int, rng *rand.Rand) models.Pool {
	k := n
	if len(dc.pool) < k {
		k = len(dc.pool)
	}
	if k == 0 {
		return models.Pool{}
	}

	picked := rng.Perm(len(dc.pool))[:k]
	sample := make(models.Pool, k)
	for i, idx := range picked {
		sample[i] = dc.pool[idx]
	}
	return sample
}
