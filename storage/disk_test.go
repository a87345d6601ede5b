package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_DiskStore_RoundTrip(t *testing.T) {
	req := require.New(t)
	store, err := NewDiskStore(t.TempDir())
	req.NoError(err)

	snapshot := []byte(`[{"id":"m1"},{"id":"m2"}]`)
	req.NoError(store.Save("messages", snapshot))

	loaded, err := store.Load("messages")
	req.NoError(err)
	req.Equal(snapshot, loaded)
}

func Test_DiskStore_MissingCollectionLoadsEmpty(t *testing.T) {
	req := require.New(t)
	store, err := NewDiskStore(t.TempDir())
	req.NoError(err)

	loaded, err := store.Load("never_written")
	req.NoError(err)
	req.Nil(loaded)
}

func Test_DiskStore_SaveReplacesWholeSnapshot(t *testing.T) {
	req := require.New(t)
	store, err := NewDiskStore(t.TempDir())
	req.NoError(err)

	req.NoError(store.Save("groups", []byte(`[{"id":"g1"}]`)))
	req.NoError(store.Save("groups", []byte(`[{"id":"g2"}]`)))

	loaded, err := store.Load("groups")
	req.NoError(err)
	req.Equal([]byte(`[{"id":"g2"}]`), loaded)
}
