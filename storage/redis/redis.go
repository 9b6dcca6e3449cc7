// Package redis provides a Redis-backed session store for hosts that keep
// client state in a shared Redis instance.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jmcleod/boardhand/storage"
)

// DefaultPrefix namespaces every key written by Store.
const DefaultPrefix = "boardhand:session:"

// Store implements storage.Store on top of a Redis client.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

var _ storage.Store = (*Store)(nil)

// NewStore wraps an existing Redis client. An empty prefix selects DefaultPrefix.
func NewStore(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// NewStoreFromAddr dials addr and verifies the connection with PING.
func NewStoreFromAddr(ctx context.Context, addr, prefix string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return NewStore(client, prefix), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(key string) (string, error) {
	v, err := s.client.Get(context.Background(), s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return "", wrapClosed(err)
	}
	return v, nil
}

func (s *Store) Set(key, value string) error {
	return wrapClosed(s.client.Set(context.Background(), s.prefix+key, value, 0).Err())
}

func (s *Store) Delete(key string) error {
	return wrapClosed(s.client.Del(context.Background(), s.prefix+key).Err())
}

func wrapClosed(err error) error {
	if errors.Is(err, goredis.ErrClosed) {
		return fmt.Errorf("%w: %w", storage.ErrClosed, err)
	}
	return err
}
