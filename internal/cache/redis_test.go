package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spuriolabs/spurio/internal/models"
)

func cacheLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

func storedRecord(id string) *models.CorrelationRecord {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	points := func(scale float64) []models.SeriesPoint {
		pts := make([]models.SeriesPoint, 12)
		for i := range pts {
			pts[i] = models.SeriesPoint{Timestamp: base.AddDate(0, i, 0), Value: scale * float64(i+1)}
		}
		return pts
	}
	return &models.CorrelationRecord{
		ID:          id,
		NameA:       "Fog Machine Rentals",
		NameB:       "Library Fines Collected",
		Coefficient: 0.81,
		PValue:      0.004,
		PointsA:     points(1),
		PointsB:     points(10),
		SourceA:     models.Provenance{Name: "Synthetic Data"},
		SourceB:     models.Provenance{Name: "Synthetic Data"},
		Method:      "pearson",
		CreatedAt:   base,
	}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl, "correlation", cacheLogger()), mr
}

func TestRedisStore_PutAndGet(t *testing.T) {
	store, _ := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storedRecord("rec-1")))

	got, err := store.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", got.ID)
	assert.Equal(t, "Fog Machine Rentals", got.NameA)
	assert.InDelta(t, 0.81, got.Coefficient, 1e-9)
	assert.Len(t, got.PointsA, 12)
	assert.True(t, got.CreatedAt.Equal(storedRecord("rec-1").CreatedAt))

	stats := store.Stats(ctx)
	assert.Equal(t, int64(1), stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Stored)
}

func TestRedisStore_Get_MissingRecord(t *testing.T) {
	store, _ := newRedisStore(t, time.Minute)

	_, err := store.Get(context.Background(), "never-stored")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(1), store.Stats(context.Background()).Misses)
}

func TestRedisStore_Get_ExpiredRecord(t *testing.T) {
	store, mr := newRedisStore(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, storedRecord("rec-1")))
	mr.FastForward(31 * time.Second)

	_, err := store.Get(ctx, "rec-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, store.Stats(ctx).Entries)
}

func TestRedisStore_Clear(t *testing.T) {
	store, _ := newRedisStore(t, time.Minute)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Put(ctx, storedRecord(id)))
	}

	removed, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.Zero(t, store.Stats(ctx).Entries)

	removed, err = store.Clear(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRedisStore_UnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, time.Minute, "correlation", cacheLogger())
	ctx := context.Background()

	err := store.Put(ctx, storedRecord("rec-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store correlation record")

	_, err = store.Get(ctx, "rec-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Defaults(t *testing.T) {
	store := NewRedisStore(nil, 0, "", nil)

	assert.Equal(t, DefaultTTL, store.ttl)
	assert.Equal(t, "correlation", store.prefix)
	assert.NotNil(t, store.logger)
}
