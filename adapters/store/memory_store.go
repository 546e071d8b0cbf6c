package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/taskchain/ports"
)

// MemoryStore keeps revoked session ids in memory until their tokens would expire anyway
type MemoryStore struct {
	revoked map[string]time.Time
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() ports.Store {
	return newMemoryStore(time.Now)
}

func newMemoryStore(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		revoked: make(map[string]time.Time),
		now:     now,
	}
}

// InvalidateToken marks a session token as revoked for the given duration
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	until := now.Add(expiry)
	// Keep the later deadline when a token is revoked twice
	if current, exists := s.revoked[tokenID]; exists && current.After(until) {
		return nil
	}
	s.revoked[tokenID] = until

	return nil
}

// IsTokenInvalidated checks if a session token is revoked
func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	until, exists := s.revoked[tokenID]
	if !exists {
		return false, nil
	}

	return s.now().Before(until), nil
}

// sweep drops entries whose revocation window has passed, caller holds the lock
func (s *MemoryStore) sweep(now time.Time) {
	for id, until := range s.revoked {
		if !now.Before(until) {
			delete(s.revoked, id)
		}
	}
}
