package autopick

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// suppressWindow is how recently an auto-pick must have been recorded for
	// the same (draft, actor) before another attempt is skipped.
	suppressWindow = 5 * time.Second
	// pruneAfter is when stale entries are dropped, opportunistically on
	// every cache access.
	pruneAfter = 10 * time.Second
)

// dedupeCache suppresses duplicate auto-picks when several concurrent
// callers hit the same expiry window. It is per-process and purely a
// contention optimization; correctness comes from the (draft_id, pick_number)
// uniqueness constraint in storage.
type dedupeCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	clock   clockwork.Clock
}

func newDedupeCache(clock clockwork.Clock) *dedupeCache {
	return &dedupeCache{
		entries: make(map[string]time.Time),
		clock:   clock,
	}
}

// claim records an auto-pick attempt for the key and reports whether the
// caller may proceed. A second claim within suppressWindow is refused.
func (c *dedupeCache) claim(draftID int64, actorID string) bool {
	key := fmt.Sprintf("%d:%s", draftID, actorID)
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, at := range c.entries {
		if now.Sub(at) > pruneAfter {
			delete(c.entries, k)
		}
	}

	if at, ok := c.entries[key]; ok && now.Sub(at) < suppressWindow {
		return false
	}
	c.entries[key] = now
	return true
}
