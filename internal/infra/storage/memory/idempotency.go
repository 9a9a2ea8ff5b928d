package memory

import (
	"context"
	"sync"
	"time"

	"rentme-pricing/internal/app/middleware"
)

type idempotencyEntry struct {
	rec       middleware.IdempotencyRecord
	expiresAt time.Time
}

// IdempotencyStore stores command outcomes in memory until TTL passes.
// A zero TTL keeps records forever.
type IdempotencyStore struct {
	TTL time.Duration
	Now func() time.Time

	mu    sync.Mutex
	items map[string]idempotencyEntry
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{TTL: ttl, items: make(map[string]idempotencyEntry)}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[key]
	if !ok {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.items, key)
		return middleware.IdempotencyRecord{}, false, nil
	}
	return entry.rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := idempotencyEntry{rec: rec}
	if s.TTL > 0 {
		entry.expiresAt = s.now().Add(s.TTL)
	}
	s.items[rec.Key] = entry
	return nil
}

func (s *IdempotencyStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
