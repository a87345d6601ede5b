package runtime

import (
	"log/slog"
	"sync"

	"talkboard/contract"
	"talkboard/domain/event"
)

// Router fans events out to topics, a single user's connection, or every
// live connection. It performs a two-step lookup: topic membership resolves
// to connection ids, and ids resolve to actual connection handles, so a
// connection joined to many topics is still managed in one place.
type Router struct {
	mu       sync.RWMutex
	log      *slog.Logger
	presence contract.IPresence
	conns    map[string]contract.Connection
	topics   map[string]map[string]struct{}
	byConn   map[string]map[string]struct{}
}

func NewRouter(log *slog.Logger, presence contract.IPresence) *Router {
	return &Router{
		log:      log,
		presence: presence,
		conns:    make(map[string]contract.Connection),
		topics:   make(map[string]map[string]struct{}),
		byConn:   make(map[string]map[string]struct{}),
	}
}

func (r *Router) Register(conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = conn
}

// Unregister drops the connection and every topic membership it holds.
// Cleanup is unconditional and safe to call more than once.
func (r *Router) Unregister(conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, conn.ID())
	for topic := range r.byConn[conn.ID()] {
		r.dropMember(topic, conn.ID())
	}
	delete(r.byConn, conn.ID())
}

// JoinTopic creates the topic implicitly on first join.
func (r *Router) JoinTopic(conn contract.Connection, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.ID()]; !ok {
		// Unknown connections don't get topic memberships; a disconnect
		// may have raced the join.
		return
	}
	if _, ok := r.topics[topic]; !ok {
		r.topics[topic] = make(map[string]struct{})
	}
	r.topics[topic][conn.ID()] = struct{}{}

	if _, ok := r.byConn[conn.ID()]; !ok {
		r.byConn[conn.ID()] = make(map[string]struct{})
	}
	r.byConn[conn.ID()][topic] = struct{}{}
}

func (r *Router) LeaveTopic(conn contract.Connection, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropMember(topic, conn.ID())
	if memberships, ok := r.byConn[conn.ID()]; ok {
		delete(memberships, topic)
	}
}

// dropMember removes a connection from a topic and deletes the topic when
// nobody is left, so empty sets don't pile up. Caller holds the lock.
func (r *Router) dropMember(topic, connID string) {
	members, ok := r.topics[topic]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.topics, topic)
	}
}

// Publish delivers e to every connection joined to topic at call time.
// Delivery is best-effort: a dead or saturated connection is skipped and
// logged, never failing the publish.
func (r *Router) Publish(topic string, e event.Envelope) {
	for _, conn := range r.snapshotTopic(topic) {
		if !conn.Deliver(e) {
			r.log.Debug("Dropped event for connection", "event", e.Name, "conn", conn.ID())
		}
	}
}

// PublishToUser resolves the recipient through the presence table. An
// offline recipient is a silent no-op.
func (r *Router) PublishToUser(userID string, e event.Envelope) {
	conn, ok := r.presence.Resolve(userID)
	if !ok {
		return
	}
	if !conn.Deliver(e) {
		r.log.Debug("Dropped event for user", "event", e.Name, "user", userID)
	}
}

func (r *Router) PublishGlobal(e event.Envelope) {
	r.mu.RLock()
	all := make([]contract.Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		all = append(all, conn)
	}
	r.mu.RUnlock()

	for _, conn := range all {
		if !conn.Deliver(e) {
			r.log.Debug("Dropped global event", "event", e.Name, "conn", conn.ID())
		}
	}
}

// snapshotTopic resolves the topic's members to live handles under the read
// lock, then releases it so delivery never holds up membership changes.
func (r *Router) snapshotTopic(topic string) []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.topics[topic]
	if !ok {
		return nil
	}
	conns := make([]contract.Connection, 0, len(members))
	for id := range members {
		if conn, live := r.conns[id]; live {
			conns = append(conns, conn)
		}
	}
	return conns
}
