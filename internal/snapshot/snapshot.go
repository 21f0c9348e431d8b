// Package snapshot keeps JSON documents in a local LevelDB so the store can
// hydrate its last known state on start. It is a cache, never the system of
// record.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

type Store struct {
	db *leveldb.DB
}

// Open opens or creates the database at path, recovering it if corrupted.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if lerrors.IsCorrupted(err) {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory returns a store that lives only as long as the process.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Put(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	return s.db.Put([]byte(key), b, nil)
}

// Get decodes the document at key into v and reports whether it existed.
func (s *Store) Get(key string, v any) (bool, error) {
	b, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Delete(key string) error {
	return s.db.Delete([]byte(key), nil)
}

func (s *Store) Close() error {
	return s.db.Close()
}
