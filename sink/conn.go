package sink

import (
	"sync/atomic"

	"github.com/google/uuid"

	"talkboard/domain/event"
)

// Conn is the handle for one live client connection. Events are delivered
// through a buffered channel consumed by the transport loop that owns the
// connection. Delivery is best-effort: a full buffer or a closed connection
// drops the event rather than blocking the publisher.
type Conn struct {
	id     string
	events chan event.Envelope
	closed atomic.Bool
}

func New(bufferSize int) *Conn {
	return &Conn{
		id:     uuid.NewString(),
		events: make(chan event.Envelope, bufferSize),
	}
}

func (c *Conn) ID() string { return c.id }

// Events is read by the transport loop pushing frames to the client.
func (c *Conn) Events() <-chan event.Envelope { return c.events }

// Deliver enqueues an event for the client. It reports false when the event
// was dropped (connection closed or buffer full).
func (c *Conn) Deliver(e event.Envelope) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.events <- e:
		return true
	default:
		return false
	}
}

// Close marks the connection dead. The events channel is left open so a
// publisher racing with Close never panics; it just stops delivering.
func (c *Conn) Close() {
	c.closed.Store(true)
}
