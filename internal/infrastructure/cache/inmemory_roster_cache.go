package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	appPayment "github.com/schoolmgmt/backend/internal/application/payment"
)

// rosterEntry represents a cached roster with expiration
type rosterEntry struct {
	statuses  []appPayment.StudentRosterStatus
	expiresAt time.Time
}

// InMemoryRosterCache implements RosterStatusCache using an in-memory map.
// Suitable for single-instance deployments and testing. It does not share
// state across processes, so invalidation from another instance is invisible.
type InMemoryRosterCache struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]rosterEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRosterCache creates a new in-memory roster cache.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryRosterCache(ttl time.Duration) *InMemoryRosterCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	cache := &InMemoryRosterCache{
		entries:  make(map[uuid.UUID]rosterEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// Get returns the cached roster for a group, or a miss
func (c *InMemoryRosterCache) Get(_ context.Context, groupID uuid.UUID) ([]appPayment.StudentRosterStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[groupID]
	if !exists {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.statuses, true
}

// Set stores the roster for a group with the configured TTL
func (c *InMemoryRosterCache) Set(_ context.Context, groupID uuid.UUID, statuses []appPayment.StudentRosterStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[groupID] = rosterEntry{
		statuses:  statuses,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate drops the cached roster for a group
func (c *InMemoryRosterCache) Invalidate(_ context.Context, groupID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, groupID)
}

// Close stops the cleanup goroutine
func (c *InMemoryRosterCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryRosterCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopChan:
			return
		}
	}
}

// cleanup removes all expired entries
func (c *InMemoryRosterCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for groupID, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, groupID)
		}
	}
}

var _ appPayment.RosterStatusCache = (*InMemoryRosterCache)(nil)
