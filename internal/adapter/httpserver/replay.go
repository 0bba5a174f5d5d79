package httpserver

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const replayTTL = 10 * time.Minute

// ReplayCache remembers recently seen EventSub message ids. Twitch retries
// deliveries it considers failed, so duplicate ids are expected and must not
// produce duplicate records.
type ReplayCache struct {
	mu    sync.Mutex
	clock clockwork.Clock
	ttl   time.Duration
	seen  map[string]time.Time
}

// NewReplayCache creates the webhook deduplication cache.
func NewReplayCache(clock clockwork.Clock) *ReplayCache {
	return &ReplayCache{
		clock: clock,
		ttl:   replayTTL,
		seen:  map[string]time.Time{},
	}
}

// Seen records the message id and reports whether it was already present.
// Expired entries are pruned on every call; the id space is bounded by the
// EventSub delivery rate over the TTL window.
func (r *ReplayCache) Seen(messageID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	for id, at := range r.seen {
		if now.Sub(at) > r.ttl {
			delete(r.seen, id)
		}
	}

	if _, ok := r.seen[messageID]; ok {
		return true
	}
	r.seen[messageID] = now
	return false
}
