package storage

import (
	"fmt"
	"sync"
	"sync/atomic"

	ristretto "github.com/dgraph-io/ristretto/v2"
)

// CachedBackend serves reads of a slower backend from a ristretto cache.
// Writes go to the backend and invalidate the cached entry.
//
// A miss fills the cache under a read lock and writes take the write lock,
// so a fill that read the backend before a write can never land after the
// write's invalidation.
type CachedBackend struct {
	Backend
	mu     sync.RWMutex
	cache  *ristretto.Cache[string, string]
	closed atomic.Bool
}

func NewCachedBackend(backend Backend, cacheSize int) (*CachedBackend, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: int64(cacheSize) * 10,
		MaxCost:     int64(cacheSize),
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &CachedBackend{Backend: backend, cache: cache}, nil
}

func (c *CachedBackend) Get(key string) (string, bool, error) {
	if c.closed.Load() {
		return "", false, ErrClosed
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.cache.Get(key); ok {
		return v, true, nil
	}

	value, ok, err := c.Backend.Get(key)
	if err != nil || !ok {
		return value, ok, err
	}
	c.cache.Set(key, value, 1)
	c.cache.Wait()
	return value, true, nil
}

func (c *CachedBackend) Set(key, value string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Backend.Set(key, value); err != nil {
		return err
	}
	c.cache.Del(key)
	return nil
}

func (c *CachedBackend) Delete(key string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Backend.Delete(key); err != nil {
		return err
	}
	c.cache.Del(key)
	return nil
}

func (c *CachedBackend) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.mu.Lock()
	c.cache.Close()
	c.mu.Unlock()
	return c.Backend.Close()
}
