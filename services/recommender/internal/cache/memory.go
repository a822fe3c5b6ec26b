package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type item struct {
	val       []byte
	expiresAt time.Time
}

// TTLStore is an in-memory Store with per-entry expiry, used in development
// and tests when Redis is not configured.
type TTLStore struct {
	mu    sync.RWMutex
	items map[string]item
}

func NewTTLStore() *TTLStore {
	return &TTLStore{items: make(map[string]item)}
}

func (s *TTLStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(it.expiresAt) {
		s.mu.Lock()
		if cur, ok2 := s.items[key]; ok2 && time.Now().After(cur.expiresAt) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return it.val, true, nil
}

func (s *TTLStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	s.mu.Lock()
	s.items[key] = item{val: value, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *TTLStore) DeleteByPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			delete(s.items, k)
		}
	}
	return nil
}
