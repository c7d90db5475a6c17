package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Cache entry
type CacheEntry struct {
	Data      any
	ExpiresAt time.Time
}

const (
	listCacheTTL   = 5 * time.Minute
	detailCacheTTL = 10 * time.Minute

	listCachePrefix = "books:"
)

func detailCacheKey(bookID int) string {
	return fmt.Sprintf("book:%d", bookID)
}

// ListingCache keeps computed book listings and details for a short while.
// Anything that can change a book's availability or rating invalidates it.
// Every invalidation bumps the generation; a result computed under an older
// generation is never stored.
type ListingCache struct {
	entries    map[string]*CacheEntry
	generation uint64
	mutex      sync.RWMutex
	now        func() time.Time
}

func NewListingCache() *ListingCache {
	return &ListingCache{
		entries: make(map[string]*CacheEntry),
		now:     time.Now,
	}
}

// snapshot returns the current generation; take it before reading the database
func (c *ListingCache) snapshot() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.generation
}

// setIfCurrent stores data only when nothing was invalidated since the snapshot
func (c *ListingCache) setIfCurrent(key string, data any, duration time.Duration, generation uint64) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.generation != generation {
		return false
	}
	c.entries[key] = &CacheEntry{
		Data:      data,
		ExpiresAt: c.now().Add(duration),
	}
	return true
}

func (c *ListingCache) get(key string) (any, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[key]
	if !exists || c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Data, true
}

func (c *ListingCache) invalidatePrefix(prefix string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.generation++
	c.deletePrefix(prefix)
}

func (c *ListingCache) deletePrefix(prefix string) {
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// InvalidateBookCache drops the book's detail and every listing
func (c *ListingCache) InvalidateBookCache(bookID int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.generation++
	delete(c.entries, detailCacheKey(bookID))
	c.deletePrefix(listCachePrefix)
}

// CleanupExpired removes expired entries and returns how many were dropped
func (c *ListingCache) CleanupExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Schedule registers the cleanup on the scheduler, every 30 minutes
func (c *ListingCache) Schedule(scheduler *cron.Cron) (cron.EntryID, error) {
	return scheduler.AddFunc("@every 30m", func() { c.CleanupExpired() })
}
