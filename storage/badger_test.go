package storage

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_BadgerStore_RoundTrip(t *testing.T) {
	req := require.New(t)
	store := NewBadgerStore(openTestDB(t))

	snapshot := []byte(`[{"id":"a1","status":"active"}]`)
	req.NoError(store.Save("emergency_alerts", snapshot))

	loaded, err := store.Load("emergency_alerts")
	req.NoError(err)
	req.Equal(snapshot, loaded)
}

func Test_BadgerStore_MissingCollectionLoadsEmpty(t *testing.T) {
	req := require.New(t)
	store := NewBadgerStore(openTestDB(t))

	loaded, err := store.Load("never_written")
	req.NoError(err)
	req.Nil(loaded)
}

func Test_BadgerStore_CollectionsAreIsolated(t *testing.T) {
	req := require.New(t)
	store := NewBadgerStore(openTestDB(t))

	req.NoError(store.Save("users", []byte(`[{"id":"u1"}]`)))
	req.NoError(store.Save("groups", []byte(`[{"id":"g1"}]`)))

	users, err := store.Load("users")
	req.NoError(err)
	req.Equal([]byte(`[{"id":"u1"}]`), users)

	groups, err := store.Load("groups")
	req.NoError(err)
	req.Equal([]byte(`[{"id":"g1"}]`), groups)
}
