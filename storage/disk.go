// Package storage provides the durable snapshot backends: one opaque blob
// per named collection, swapped whole on every save.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiskStore keeps each collection as a flat JSON file under dir. Saves go
// through a temp file and rename so a crash mid-write never leaves a torn
// snapshot behind.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// Load returns the raw snapshot, or nil when the collection has never been
// written.
func (s *DiskStore) Load(collection string) ([]byte, error) {
	data, err := os.ReadFile(s.path(collection))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", collection, err)
	}
	return data, nil
}

func (s *DiskStore) Save(collection string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, collection+"-*.tmp")
	if err != nil {
		return fmt.Errorf("saving %s: %w", collection, err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("saving %s: %w", collection, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("saving %s: %w", collection, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("saving %s: %w", collection, err)
	}
	if err = os.Rename(tmp.Name(), s.path(collection)); err != nil {
		return fmt.Errorf("saving %s: %w", collection, err)
	}
	return nil
}
