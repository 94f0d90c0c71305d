// Package cache is the client-local snapshot cache of backend
// collections. It is the single shared mutable resource in the
// application: each completed mutation or batch invalidates its key
// exactly once, and invalidating an already stale key is a no-op.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketSnapshots = []byte("snapshots")

// Key identifies one cached collection.
type Key string

const (
	KeyContacts Key = "contacts"
	KeyMessages Key = "messages"
)

// Store holds JSON snapshots in a bbolt file. Freshness is tracked in
// memory only; a restart serves persisted snapshots as stale fallback
// data until the first refetch.
type Store struct {
	db *bolt.DB

	mu    sync.Mutex
	fresh map[Key]bool
}

// Open creates or opens the cache file at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &Store{
		db:    db,
		fresh: make(map[Key]bool),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get unmarshals the snapshot for key into dest and reports whether a
// fresh snapshot was found.
func (s *Store) Get(key Key, dest any) (bool, error) {
	s.mu.Lock()
	fresh := s.fresh[key]
	s.mu.Unlock()

	if !fresh {
		return false, nil
	}
	return s.load(key, dest)
}

// Snapshot unmarshals the persisted snapshot for key into dest
// regardless of freshness. Callers use it as fallback data when the
// backend is unreachable.
func (s *Store) Snapshot(key Key, dest any) (bool, error) {
	return s.load(key, dest)
}

func (s *Store) load(key Key, dest any) (bool, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSnapshots).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode snapshot %q: %w", key, err)
	}
	return true, nil
}

// Put stores a fresh snapshot for key.
func (s *Store) Put(key Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %q: %w", key, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	s.mu.Lock()
	s.fresh[key] = true
	s.mu.Unlock()
	return nil
}

// Invalidate marks key stale so the next Get misses and the caller
// refetches. Idempotent: invalidating stale or absent data changes
// nothing.
func (s *Store) Invalidate(key Key) {
	s.mu.Lock()
	delete(s.fresh, key)
	s.mu.Unlock()
}
