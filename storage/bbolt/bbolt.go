// Package bbolt provides a BBolt-backed session store.
package bbolt

import (
	"errors"
	"fmt"

	"github.com/jmcleod/boardhand/storage"
	"go.etcd.io/bbolt"
)

// DefaultBucket is the bucket used when none is configured.
const DefaultBucket = "session"

// Store implements storage.Store backed by a BBolt database.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

var _ storage.Store = (*Store)(nil)

// NewStore returns a Store that keeps its keys in the named bucket of db.
// An empty bucket name selects DefaultBucket.
func NewStore(db *bbolt.DB, bucket string) *Store {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &Store{db: db, bucket: []byte(bucket)}
}

// NewStoreFromFile opens a BBolt database at the given path and returns a new Store.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewStore(db, DefaultBucket), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
		}
		// data is only valid for the life of the transaction.
		value = string(data)
		return nil
	})
	if err != nil {
		return "", wrapClosed(err)
	}
	return value, nil
}

func (s *Store) Set(key, value string) error {
	return wrapClosed(s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(value))
	}))
}

func (s *Store) Delete(key string) error {
	return wrapClosed(s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	}))
}

// Keys returns every key currently held in the bucket.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, wrapClosed(err)
}

func wrapClosed(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return fmt.Errorf("%w: %w", storage.ErrClosed, err)
	}
	return err
}
