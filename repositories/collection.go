// Package repositories is the typed layer over the snapshot store: every
// collection is materialized whole, mutated locally, and written back whole.
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"talkboard/contract"
	"talkboard/errors"
)

const (
	saveAttempts   = 3
	saveRetryDelay = 50 * time.Millisecond
)

// Collection owns the load→mutate→save cycle for one named collection.
// The mutex is the collection's exclusion domain: concurrent mutators
// serialize here, so no completed append can be overwritten by a stale
// snapshot. Reads degrade to an empty snapshot instead of failing.
type Collection[T any] struct {
	name  string
	store contract.Store
	log   *slog.Logger
	mu    sync.RWMutex
}

func NewCollection[T any](name string, store contract.Store, log *slog.Logger) *Collection[T] {
	return &Collection[T]{name: name, store: store, log: log}
}

// Load returns the current snapshot. Backend failures are logged and come
// back as an empty slice so read paths never crash.
func (c *Collection[T]) Load() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records, err := c.load()
	if err != nil {
		c.log.Warn("Snapshot load failed, serving empty collection",
			"collection", c.name, "error", err)
		return nil
	}
	return records
}

// Update applies fn to the current snapshot and persists the result. The
// lock spans the whole cycle. A failed load, transform, or save fails the
// operation; nothing is written and the durable copy is untouched.
func (c *Collection[T]) Update(fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return err
	}
	next, err := fn(records)
	if err != nil {
		return err
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", c.name, err)
	}
	if err = c.save(data); err != nil {
		return fmt.Errorf("persisting %s: %w", c.name, err)
	}
	return nil
}

// save retries transient backend failures a bounded number of times before
// giving up. Retries stay inside the lock so no other mutator can interleave.
func (c *Collection[T]) save(data []byte) error {
	var err error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(saveRetryDelay)
			c.log.Warn("Retrying snapshot save",
				"collection", c.name, "attempt", attempt+1, "error", err)
		}
		if err = c.store.Save(c.name, data); err == nil {
			return nil
		}
	}
	return err
}

func (c *Collection[T]) load() ([]T, error) {
	data, err := c.store.Load(c.name)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []T
	if err = json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, errors.ErrCorruptedRecords)
	}
	return records, nil
}
