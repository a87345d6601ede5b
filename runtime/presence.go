package runtime

import (
	"sync"
	"time"

	"talkboard/contract"
)

type presenceEntry struct {
	conn     contract.Connection
	joinedAt time.Time
}

// Presence maps a user identity to its single active connection. A second
// announce for the same identity replaces the entry; the prior connection
// becomes stale but is not closed.
type Presence struct {
	mu     sync.RWMutex
	byUser map[string]presenceEntry
}

func NewPresence() *Presence {
	return &Presence{byUser: make(map[string]presenceEntry)}
}

func (p *Presence) Announce(userID string, conn contract.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byUser[userID] = presenceEntry{conn: conn, joinedAt: time.Now().UTC()}
}

func (p *Presence) Resolve(userID string) (contract.Connection, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.byUser[userID]
	if !ok {
		return nil, false
	}
	return entry.conn, true
}

// Remove deletes the entry only when conn is still the active connection
// for userID. A stale connection disconnecting late therefore cannot evict
// a newer announce.
func (p *Presence) Remove(userID string, conn contract.Connection) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.byUser[userID]
	if !ok || entry.conn.ID() != conn.ID() {
		return false
	}
	delete(p.byUser, userID)
	return true
}

func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byUser)
}
