package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/boardhand/storage"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewStoreFromAddr(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStore_SetGetDelete(t *testing.T) {
	s, mr := newTestStore(t)

	require.NoError(t, s.Set("accessToken", "tok-1"))
	got, err := s.Get("accessToken")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	// Keys are namespaced.
	raw, err := mr.Get(DefaultPrefix + "accessToken")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", raw)

	require.NoError(t, s.Delete("accessToken"))
	_, err = s.Get("accessToken")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.False(t, mr.Exists(DefaultPrefix+"accessToken"))

	assert.NoError(t, s.Delete("accessToken"), "deleting a missing key is not an error")
}

func TestRedisStore_CustomPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s := NewStore(client, "tenant-a:")
	defer s.Close()

	require.NoError(t, s.Set("username", "alice"))
	assert.True(t, mr.Exists("tenant-a:username"))
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewStoreFromAddr(context.Background(), addr, "")
	assert.Error(t, err)
}

func TestRedisStore_Closed(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Close())

	err := s.Set("k", "v")
	assert.ErrorIs(t, err, storage.ErrClosed)
}
