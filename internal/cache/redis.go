package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/spuriolabs/spurio/internal/models"
)

// RedisStore keeps records as JSON values under a shared prefix, leaving
// eviction to Redis key expiry.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *logrus.Logger

	mu     sync.Mutex
	hits   int64
	misses int64
	stored int64
}

// NewRedisStore creates a store over an existing Redis client. Non-positive
// TTLs and empty prefixes fall back to defaults.
func NewRedisStore(client redis.Cmdable, ttl time.Duration, prefix string, logger *logrus.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "correlation"
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisStore{client: client, ttl: ttl, prefix: prefix, logger: logger}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

// Put stores a record under its id for the configured TTL.
func (s *RedisStore) Put(ctx context.Context, record *models.CorrelationRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal correlation record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(record.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store correlation record: %w", err)
	}

	s.mu.Lock()
	s.stored++
	s.mu.Unlock()
	return nil
}

// Get returns a stored record, or ErrNotFound once Redis has expired it.
func (s *RedisStore) Get(ctx context.Context, id string) (*models.CorrelationRecord, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		s.mu.Lock()
		s.misses++
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read correlation record: %w", err)
	}

	var record models.CorrelationRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal correlation record: %w", err)
	}

	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
	return &record, nil
}

// Clear drops all records under the prefix.
func (s *RedisStore) Clear(ctx context.Context) (int64, error) {
	keys, err := s.client.Keys(ctx, s.prefix+":*").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list correlation records: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to clear correlation records: %w", err)
	}
	return removed, nil
}

// Stats returns counters plus the live key count under the prefix.
func (s *RedisStore) Stats(ctx context.Context) Stats {
	s.mu.Lock()
	stats := Stats{Hits: s.hits, Misses: s.misses, Stored: s.stored}
	s.mu.Unlock()

	keys, err := s.client.Keys(ctx, s.prefix+":*").Result()
	if err != nil {
		s.logger.WithError(err).Debug("Failed to count correlation record keys")
		return stats
	}
	stats.Entries = int64(len(keys))
	return stats
}

// Close is a no-op; the Redis client is owned by the caller.
func (s *RedisStore) Close() error {
	return nil
}
