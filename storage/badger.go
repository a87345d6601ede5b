package storage

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

const recordPrefix = "records:"

// BadgerStore keeps each collection snapshot as a single BadgerDB value.
// Snapshot-per-key keeps the last-write-wins contract identical to the flat
// file backend while gaining crash safety from the value log.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Load(collection string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recordPrefix + collection))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *BadgerStore) Save(collection string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(recordPrefix+collection), data)
	})
}
