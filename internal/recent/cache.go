package recent

import (
	"sync/atomic"
	"time"

	"github.com/woofdog7/woof-site/internal/core"
)

type snapshot struct {
	storedAt time.Time
	posts    []core.PostSummary
}

// Cache is a single-slot, time-based cache of the recent post list. Each Set
// swaps in a new immutable snapshot, so readers see either the old list with
// its timestamp or the new one, never a mix.
type Cache struct {
	ttl  time.Duration
	slot atomic.Pointer[snapshot]
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// Get returns the cached list when it is non-empty and younger than the TTL at now.
func (c *Cache) Get(now time.Time) ([]core.PostSummary, bool) {
	s := c.slot.Load()
	if s == nil || len(s.posts) == 0 {
		return nil, false
	}
	if now.Sub(s.storedAt) >= c.ttl {
		return nil, false
	}
	return s.posts, true
}

// Set replaces the whole cached list. The slice is copied.
func (c *Cache) Set(now time.Time, posts []core.PostSummary) {
	stored := make([]core.PostSummary, len(posts))
	copy(stored, posts)
	c.slot.Store(&snapshot{storedAt: now, posts: stored})
}

// Last returns the most recently stored list regardless of age.
func (c *Cache) Last() ([]core.PostSummary, time.Time, bool) {
	s := c.slot.Load()
	if s == nil {
		return nil, time.Time{}, false
	}
	return s.posts, s.storedAt, true
}
