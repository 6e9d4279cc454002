package pipeline

import (
	"sync"
	"time"
)

// Deduper suppresses repeated webhook deliveries for the same lot at the
// same price within a TTL window. It is in-process only: state does not
// survive a restart, and exactly-once delivery is explicitly not promised.
type Deduper struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewDeduper creates a deduper with the given suppression window.
func NewDeduper(ttl time.Duration) *Deduper {
	return &Deduper{
		ttl:  ttl,
		now:  time.Now,
		seen: make(map[string]time.Time),
	}
}

// Seen reports whether the key was already observed within the TTL, and
// records it either way. Expired entries are pruned opportunistically.
func (d *Deduper) Seen(key string) bool {
	if d == nil || d.ttl <= 0 {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, t := range d.seen {
		if now.Sub(t) > d.ttl {
			delete(d.seen, k)
		}
	}

	if t, ok := d.seen[key]; ok && now.Sub(t) <= d.ttl {
		return true
	}
	d.seen[key] = now
	return false
}
