// Package catalogstore backs the catalog's optional debug
// serialization (§4.3, §12 "Catalog debug snapshot") with an embedded
// badger KV store, the same embedded-storage idiom the teacher reaches
// for wherever it needs a local persistent cache. It is a debugging
// convenience only, never a durability layer: losing the underlying
// directory loses nothing the catalog couldn't rebuild by
// re-registering its source artifacts.
package catalogstore

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
)

const snapshotKey = "catalog/snapshot"

// DebugStore wraps a badger.DB holding at most one key: the most
// recently flushed catalog snapshot.
type DebugStore struct {
	db *badger.DB
}

// Open opens (creating if absent) a badger store rooted at dir.
func Open(dir string) (*DebugStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open catalog debug store at %q: %w", dir, err)
	}
	return &DebugStore{db: db}, nil
}

func (d *DebugStore) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("close catalog debug store: %w", err)
	}
	return nil
}

// Flush encodes the store's current snapshot and writes it under a
// single key.
func (d *DebugStore) Flush(s *catalog.Store) error {
	payload, err := json.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode catalog snapshot: %w", err)
	}
	err = d.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(snapshotKey), payload)
	})
	if err != nil {
		return fmt.Errorf("flush catalog snapshot: %w", err)
	}
	return nil
}

// Load reads the most recently flushed snapshot back into s, replacing
// its contents entirely.
func (d *DebugStore) Load(s *catalog.Store) error {
	var payload []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKey))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("load catalog snapshot: %w", err)
	}

	var snap catalog.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("decode catalog snapshot: %w", err)
	}
	s.RestoreSnapshot(snap)
	return nil
}
