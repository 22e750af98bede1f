package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryBackend keeps values in process memory. It only works for a
// single instance; use Redis or the database behind a load balancer.
type MemoryBackend struct {
	mu    sync.Mutex
	items *cache.Cache
	ttl   time.Duration
}

// NewMemoryBackend expires values ttl after their latest Set. Expired
// values are never returned; a janitor sweeps them every ttl.
func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryBackend{items: cache.New(ttl, ttl), ttl: ttl}
}

// Set stores value under key, replacing both the value and its expiry.
func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items.Set(key, value, m.ttl)
	return nil
}

// GetDel reads and clears key. An expired value reads as absent.
func (m *MemoryBackend) GetDel(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items.Get(key)
	m.items.Delete(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}
