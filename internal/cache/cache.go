// SPDX-License-Identifier: MIT

// Package cache stores the bytes behind temporary references with TTL support.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a key is missing or expired.
var ErrNotFound = errors.New("cache entry not found")

// Item is a cached binary object tagged with its MIME type.
type Item struct {
	MimeType string
	Data     []byte
}

// BlobCache provides thread-safe blob storage with expiration.
type BlobCache interface {
	// Put stores item under key. A non-positive ttl keeps it until deleted.
	Put(ctx context.Context, key string, item Item, ttl time.Duration) error
	// Get returns ErrNotFound if the key is missing or expired.
	Get(ctx context.Context, key string) (Item, error)
	Delete(ctx context.Context, key string) error
	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error
	Stats(ctx context.Context) Stats
	Close() error
}

// Stats holds cache performance metrics.
type Stats struct {
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of failed Get operations (not found or expired)
	Puts        int64
	Evictions   int64 // Number of expired entries cleaned up
	CurrentSize int   // Current number of cached entries
}

type entry struct {
	item       Item
	expiration time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}

// MemoryCache is an in-memory BlobCache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	stats   Stats
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithNow replaces time.Now for expiry checks.
func WithNow(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

// NewMemoryCache creates an in-memory cache. A positive cleanupInterval
// starts a janitor goroutine that removes expired entries until Close.
func NewMemoryCache(cleanupInterval time.Duration, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*entry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	} else {
		close(c.done)
	}
	return c
}

func (c *MemoryCache) Put(_ context.Context, key string, item Item, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry{item: Item{MimeType: item.MimeType, Data: append([]byte(nil), item.Data...)}}
	if ttl > 0 {
		e.expiration = c.now().Add(ttl)
	}
	c.entries[key] = e
	c.stats.Puts++
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) (Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found || e.expired(c.now()) {
		c.stats.Misses++
		return Item{}, ErrNotFound
	}
	c.stats.Hits++
	return e.item, nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	return nil
}

func (c *MemoryCache) Stats(context.Context) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

// deleteExpired removes all expired entries and returns how many were removed.
func (c *MemoryCache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			count++
		}
	}
	c.stats.Evictions += int64(count)
	return count
}

// Close stops the janitor and waits for it to exit. It is idempotent.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}

func (c *MemoryCache) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}
