package cache

import (
	"context"
	"sync"
	"time"

	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// Store is the backing store for cached query results.
type Store interface {
	// Get returns the cached result for key, or found=false on miss.
	// An expired entry is treated as absent.
	Get(ctx context.Context, key string) (result shape.ObjectResult, found bool, err error)

	// Set stores a result under key with the given time-to-live.
	Set(ctx context.Context, key string, result shape.ObjectResult, ttl time.Duration) error

	// Sweep removes expired entries. Stores with server-side expiry may no-op.
	Sweep(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

type memoryEntry struct {
	result     shape.ObjectResult
	insertedAt time.Time
	ttl        time.Duration
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.After(e.insertedAt.Add(e.ttl))
}

// MemoryStore is an in-process TTL store. Reads expire lazily; the periodic
// sweep reclaims memory. Safe for concurrent use; duplicate concurrent writes
// for the same key are last-write-wins by design of the pipeline contract.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (shape.ObjectResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[key]
	if !exists {
		return nil, false, nil
	}
	// Lazy expiry: leave deletion to the sweep.
	if entry.expired(time.Now()) {
		return nil, false, nil
	}
	return entry.result, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, result shape.ObjectResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &memoryEntry{
		result:     result,
		insertedAt: time.Now(),
		ttl:        ttl,
	}
	return nil
}

func (s *MemoryStore) Sweep(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for key, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Len reports the number of entries currently held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
