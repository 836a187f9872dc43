package storage

import (
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

// PebbleStore persists cart state in a local PebbleDB directory. This
// is the durable-local option, analogous to browser storage in the
// hosted storefront.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func (p *PebbleStore) Put(key string, value []byte) error {
	// Sync: a crash right after a cart mutation must not lose the write.
	return p.db.Set([]byte(key), value, pebble.Sync)
}

func (p *PebbleStore) Get(key string) ([]byte, bool, error) {
	v, closer, err := p.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	if err := closer.Close(); err != nil {
		return nil, false, err
	}
	return cp, true, nil
}

func (p *PebbleStore) Delete(key string) error {
	return p.db.Delete([]byte(key), pebble.Sync)
}

func (p *PebbleStore) Close() error { return p.db.Close() }
