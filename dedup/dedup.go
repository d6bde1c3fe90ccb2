// Package dedup tracks message content hashes so byte-identical duplicates
// can be skipped within a single conversion run.
package dedup

import "sync"

type Snapshot struct {
	Distinct int
}

// Tracker is an in-memory set of message hashes. A conversion run is
// one-shot, so nothing persists between runs.
type Tracker struct {
	mu   sync.RWMutex
	seen map[string]string
}

func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]string)}
}

// Seen reports whether hash was recorded before.
func (t *Tracker) Seen(hash string) bool {
	if hash == "" {
		return false
	}

	t.mu.RLock()
	_, ok := t.seen[hash]
	t.mu.RUnlock()
	return ok
}

// Record marks hash as seen by messageID. When the hash was already
// recorded it reports the message that claimed it first. Empty hashes are
// never duplicates.
func (t *Tracker) Record(hash, messageID string) (firstID string, duplicate bool) {
	if hash == "" {
		return "", false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if first, ok := t.seen[hash]; ok {
		return first, true
	}
	t.seen[hash] = messageID
	return "", false
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	count := len(t.seen)
	t.mu.RUnlock()
	return Snapshot{Distinct: count}
}
