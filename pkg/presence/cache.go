package presence

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/collabboard/collabboard/pkg/models"
)

// Staleness parameters for remote cursors. With a 5s sweep tick over a
// 10s threshold, a dead cursor can linger for up to ~15s; that
// imprecision is accepted for an ephemeral presence indicator.
const (
	CursorTTL     = 10 * time.Second
	SweepInterval = 5 * time.Second
)

// Cache holds the last-known cursor per remote user. Entries are
// last-write-wins by userId: each user's messages originate from a
// single peer, so no ordering beyond "last received" is needed.
type Cache struct {
	ttl time.Duration
	log zerolog.Logger

	mu      sync.RWMutex
	cursors map[string]models.CursorPosition
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the staleness threshold.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithCacheLogger sets the cache logger.
func WithCacheLogger(log zerolog.Logger) CacheOption {
	return func(c *Cache) { c.log = log }
}

// NewCache creates an empty cursor cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		ttl:     CursorTTL,
		log:     zerolog.Nop(),
		cursors: make(map[string]models.CursorPosition),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Update upserts the cursor for its userId.
func (c *Cache) Update(cur models.CursorPosition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursors[cur.UserID] = cur
}

// Remove deletes the cursor for userID, if present.
func (c *Cache) Remove(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cursors, userID)
}

// Get returns the last-known cursor for userID.
func (c *Cache) Get(userID string) (models.CursorPosition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cur, ok := c.cursors[userID]
	return cur, ok
}

// Cursors returns a snapshot of all remote cursors.
func (c *Cache) Cursors() []models.CursorPosition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.CursorPosition, 0, len(c.cursors))
	for _, cur := range c.cursors {
		out = append(out, cur)
	}
	return out
}

// Sweep evicts every cursor older than the staleness threshold as seen
// at now, returning the number evicted.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for userID, cur := range c.cursors {
		if cur.Age(now) > c.ttl {
			delete(c.cursors, userID)
			evicted++
		}
	}
	if evicted > 0 {
		c.log.Debug().Int("evicted", evicted).Msg("swept stale cursors")
	}
	return evicted
}

// Run sweeps on a periodic tick until ctx is canceled.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(time.Now())
		}
	}
}
