// Package storage provides the durable key/value layer that the session
// holder mirrors its state into.
package storage

import "errors"

var (
	// ErrNotFound is returned by Get when the key has no stored value.
	ErrNotFound = errors.New("key not found")
	// ErrClosed is returned when the backing store has already been closed.
	ErrClosed = errors.New("store closed")
)

// Store is a string key/value store that survives process restarts.
//
// Delete of a missing key is not an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Noop is a Store that keeps nothing. It stands in for durable storage in
// contexts that have none, so callers never branch on its presence.
type Noop struct{}

var _ Store = Noop{}

func (Noop) Get(string) (string, error) { return "", ErrNotFound }
func (Noop) Set(string, string) error   { return nil }
func (Noop) Delete(string) error        { return nil }
