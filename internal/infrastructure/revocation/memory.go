package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps active tokens in process. Entries past their expiry are
// dropped on lookup.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryStore) Register(_ context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	s.entries[token] = expiresAt
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) IsActive(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	exp, ok := s.entries[token]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !exp.IsZero() && !s.now().Before(exp) {
		s.mu.Lock()
		if cur, still := s.entries[token]; still && cur.Equal(exp) {
			delete(s.entries, token)
		}
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Len reports the number of tracked tokens.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
