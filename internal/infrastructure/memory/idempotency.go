package memory

import (
	"context"
	"sync"
	"time"
)

// IdempotencyStore is the in-process fallback for purchase replay protection.
// Entries expire lazily on access.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Reserve claims the key. It returns false when the key was already claimed
// and has not expired yet.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (bool, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if deadline, ok := s.entries[key]; ok && now.Before(deadline) {
		return false, nil
	}
	s.entries[key] = now.Add(s.ttl)
	return true, nil
}

// Release frees the key so it can be reserved again.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
