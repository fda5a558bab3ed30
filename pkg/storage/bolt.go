package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when a key is absent from its bucket.
var ErrNotFound = errors.New("storage: key not found")

// ErrClosed is returned by operations on a store after Close.
var ErrClosed = errors.New("storage: store closed")

const defaultLockTimeout = 2 * time.Second

// BoltStore keeps JSON encoded values in named bbolt buckets.
//
// The file is opened per operation and closed again before returning, so the
// bbolt file lock is only held for the length of one transaction. Several
// processes can share the same file; a writer waits up to the lock timeout.
type BoltStore struct {
	path    string
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

// OpenBolt creates the database file at path when needed and ensures the given
// buckets exist. No handle stays open after it returns.
func OpenBolt(path string, buckets ...string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	s := &BoltStore{path: path, timeout: defaultLockTimeout}
	err := s.update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close rejects further operations. The file itself is never held open.
func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *BoltStore) with(readOnly bool, fn func(db *bbolt.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	db, err := bbolt.Open(s.path, 0o600, &bbolt.Options{Timeout: s.timeout, ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("open bolt store: %w", err)
	}
	if err := fn(db); err != nil {
		_ = db.Close()
		return err
	}
	return db.Close()
}

func (s *BoltStore) update(fn func(tx *bbolt.Tx) error) error {
	return s.with(false, func(db *bbolt.DB) error { return db.Update(fn) })
}

func (s *BoltStore) view(fn func(tx *bbolt.Tx) error) error {
	return s.with(true, func(db *bbolt.DB) error { return db.View(fn) })
}

// Put stores value under key.
func (s *BoltStore) Put(bucket, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", bucket, key, err)
	}
	return s.update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// Get decodes the value under key into out.
func (s *BoltStore) Get(bucket, key string, out interface{}) error {
	return s.view(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(v, out); err != nil {
			return fmt.Errorf("decode %s/%s: %w", bucket, key, err)
		}
		return nil
	})
}

// Delete removes key. Missing keys are ignored.
func (s *BoltStore) Delete(bucket, key string) error {
	return s.update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// Keys lists keys in bucket that start with prefix, in byte order.
func (s *BoltStore) Keys(bucket, prefix string) ([]string, error) {
	keys := make([]string, 0)
	err := s.view(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}
