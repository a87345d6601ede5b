//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"talkboard/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself. It runs until its context is cancelled or
// its input closes; supervision and restarts live elsewhere.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Connection is a live client connection handle: events delivered to it are
// pushed on its buffered channel, best-effort.
type Connection interface {
	ID() string
	Deliver(e event.Envelope) bool
}

// IPresence tracks which user identity currently owns which connection.
type IPresence interface {
	Announce(userID string, conn Connection)
	Resolve(userID string) (Connection, bool)
	Remove(userID string, conn Connection) bool
	Count() int
}

// IRouter fans events out to topics, single users, or every connection.
type IRouter interface {
	Register(conn Connection)
	Unregister(conn Connection)
	JoinTopic(conn Connection, topic string)
	LeaveTopic(conn Connection, topic string)
	Publish(topic string, e event.Envelope)
	PublishToUser(userID string, e event.Envelope)
	PublishGlobal(e event.Envelope)
}

// Store is the durable snapshot backend: one opaque blob per named
// collection. A missing collection loads as nil with no error.
type Store interface {
	Load(collection string) ([]byte, error)
	Save(collection string, data []byte) error
}
