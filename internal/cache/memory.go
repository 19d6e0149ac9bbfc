package cache

import (
	"context"
	"sync"
	"time"

	"github.com/spuriolabs/spurio/internal/models"
)

type memoryEntry struct {
	record    *models.CorrelationRecord
	expiresAt time.Time
}

// MemoryStore is the in-process fallback used when Redis is unavailable and
// in handler tests. A janitor goroutine sweeps expired entries; reads also
// evict lazily so a stopped janitor never serves stale records.
type MemoryStore struct {
	ttl    time.Duration
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]memoryEntry
	hits    int64
	misses  int64
	stored  int64
}

// NewMemoryStore creates a store with its janitor running. A non-positive
// TTL falls back to the default; a non-positive sweep interval sweeps once a
// minute.
func NewMemoryStore(ttl, sweepInterval time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	store := &MemoryStore{
		ttl:     ttl,
		cancel:  cancel,
		entries: make(map[string]memoryEntry),
	}
	go store.janitor(ctx, sweepInterval)
	return store
}

func (s *MemoryStore) janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Put stores a record under its id for the configured TTL.
func (s *MemoryStore) Put(ctx context.Context, record *models.CorrelationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[record.ID] = memoryEntry{record: record, expiresAt: time.Now().Add(s.ttl)}
	s.stored++
	return nil
}

// Get returns a stored record, or ErrNotFound once it has expired.
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.CorrelationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		s.misses++
		return nil, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, id)
		s.misses++
		return nil, ErrNotFound
	}
	s.hits++
	return entry.record, nil
}

// Clear drops all stored records.
func (s *MemoryStore) Clear(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := int64(len(s.entries))
	s.entries = make(map[string]memoryEntry)
	return removed, nil
}

// Stats returns current counters.
func (s *MemoryStore) Stats(ctx context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Entries: int64(len(s.entries)),
		Hits:    s.hits,
		Misses:  s.misses,
		Stored:  s.stored,
	}
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	s.cancel()
	return nil
}
