package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local revocation set for single-instance
// deployments and tests. Expired entries are evicted lazily on lookup and
// in bulk by PurgeExpired.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> expiry; zero time means no expiry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	if !expiresAt.IsZero() && !expiresAt.After(s.now()) {
		// Already-expired tokens are pinned without expiry too; the caller
		// asked for a revocation and must not see it lapse.
		expiresAt = time.Time{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Never shorten an existing entry's lifetime.
	if existing, ok := s.entries[jti]; ok {
		if existing.IsZero() || (!expiresAt.IsZero() && existing.After(expiresAt)) {
			return nil
		}
	}
	s.entries[jti] = expiresAt
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	expiresAt, ok := s.entries[jti]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if !expiresAt.IsZero() && !expiresAt.After(s.now()) {
		// Lazy eviction; the token is expired anyway so the entry is moot.
		s.mu.Lock()
		if e, ok := s.entries[jti]; ok && !e.IsZero() && !e.After(s.now()) {
			delete(s.entries, jti)
		}
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// PurgeExpired removes entries whose expiry has passed and reports how many
// were dropped. Safe to call from a background sweeper.
func (s *MemoryStore) PurgeExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for jti, expiresAt := range s.entries {
		if !expiresAt.IsZero() && !expiresAt.After(now) {
			delete(s.entries, jti)
			purged++
		}
	}
	return purged
}

// Len reports the current entry count, for metrics and tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error { return nil }
