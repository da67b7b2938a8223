package cache

import (
	"sync"
	"time"

	"github.com/use-agent/brandscrape/models"
)

// Run is a finished run retained for download.
type Run struct {
	ID      string
	Records []models.ScrapedRecord
	CSV     []byte
}

// entry holds a retained run with its creation timestamp.
type entry struct {
	run       *Run
	createdAt time.Time
}

// Cache is an in-memory store of finished runs keyed by run ID.
// It is safe for concurrent use. Nothing survives a restart.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// New creates a Cache holding at most maxEntries runs, each for ttl.
// A background goroutine evicts expired runs every ttl/4 (at least once
// a minute).
func New(maxEntries int, ttl time.Duration) *Cache {
	c := newCache(maxEntries, ttl)
	go c.cleanupLoop()
	return c
}

func newCache(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the run stored under id if it has not expired.
func (c *Cache) Get(id string) (*Run, bool) {
	c.mu.RLock()
	e, ok := c.store[id]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.createdAt) > c.ttl {
		return nil, false
	}
	return e.run, true
}

// Set stores a run. If the cache is at capacity the oldest run is evicted.
func (c *Cache) Set(run *Run) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[run.ID]; !exists && len(c.store) >= c.maxEntries {
		c.evictOldestLocked()
	}

	c.store[run.ID] = &entry{
		run:       run,
		createdAt: c.now(),
	}
}

// Len reports the number of retained runs, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *Cache) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range c.store {
		if oldestID == "" || e.createdAt.Before(oldest) {
			oldestID, oldest = id, e.createdAt
		}
	}
	delete(c.store, oldestID)
}

// purgeExpired removes every run older than the TTL.
func (c *Cache) purgeExpired() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) cleanupLoop() {
	interval := c.ttl / 4
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		c.purgeExpired()
	}
}
