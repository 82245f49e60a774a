package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemorySummaryCache implements SummaryCache with a process-local map.
// Suitable for single-instance deployments and tests.
type InMemorySummaryCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]inMemoryEntry
}

type inMemoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewInMemorySummaryCache creates an empty in-memory cache
func NewInMemorySummaryCache() *InMemorySummaryCache {
	return &InMemorySummaryCache{
		entries: make(map[uuid.UUID]inMemoryEntry),
	}
}

// Get returns the cached payload and whether the key was present
func (c *InMemorySummaryCache) Get(_ context.Context, obligationID uuid.UUID) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[obligationID]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, obligationID)
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.payload, true, nil
}

// Set stores the payload with a TTL
func (c *InMemorySummaryCache) Set(_ context.Context, obligationID uuid.UUID, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[obligationID] = inMemoryEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Invalidate drops the key
func (c *InMemorySummaryCache) Invalidate(_ context.Context, obligationID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, obligationID)
	return nil
}

var _ SummaryCache = (*InMemorySummaryCache)(nil)
