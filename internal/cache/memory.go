// internal/cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-memory cache with TTL support. Expired
// entries are treated as misses immediately and reclaimed by a background
// janitor.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates an in-memory store and starts its janitor.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*Entry),
		stop:    make(chan struct{}),
	}
	go s.janitor(10 * time.Minute)
	return s
}

// Get returns the entry for key, counting the hit. Absent or expired keys
// report ErrMiss.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.Expired(time.Now()) {
		return nil, ErrMiss
	}

	entry.Hits++
	// Copy so callers cannot mutate the stored entry.
	out := *entry
	return &out, nil
}

// Set stores a payload under key, replacing any prior entry.
func (s *MemoryStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)

	now := time.Now()
	s.mu.Lock()
	s.entries[key] = &Entry{
		Key:       key,
		Payload:   buf,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	s.mu.Unlock()
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor and drops all entries.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	s.mu.Lock()
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()
	return nil
}

// Len returns the current number of entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// janitor periodically reclaims expired entries.
func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.entries {
				if entry.Expired(now) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
