package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/civicseal/civicledger/core"
)

// ErrNoSnapshot is returned by Load when no chain has been saved yet, e.g.
// on first boot. Callers treat it as a normal outcome.
var ErrNoSnapshot = errors.New("no chain snapshot stored")

var snapshotKey = []byte("chain:snapshot")

// SnapshotStore persists the serialized chain in LevelDB. The ledger engine
// never sees this type; the intake service calls Save after every append
// and Load once at startup.
type SnapshotStore struct {
	db *leveldb.DB
}

// OpenSnapshotStore opens (or creates) the LevelDB at path.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %v", err)
	}
	return &SnapshotStore{db: db}, nil
}

// Close releases the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save overwrites the stored snapshot with the given chain.
func (s *SnapshotStore) Save(blocks []*core.Block) error {
	enc, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("failed to marshal chain: %v", err)
	}
	if err := s.db.Put(snapshotKey, enc, nil); err != nil {
		return fmt.Errorf("failed to store chain snapshot: %v", err)
	}
	return nil
}

// Load restores the last saved chain. Validation is not this layer's job:
// the caller must gate the result through Ledger.LoadAndValidate.
func (s *SnapshotStore) Load() ([]*core.Block, error) {
	enc, err := s.db.Get(snapshotKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chain snapshot: %v", err)
	}
	var blocks []*core.Block
	if err := json.Unmarshal(enc, &blocks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chain snapshot: %v", err)
	}
	return blocks, nil
}
