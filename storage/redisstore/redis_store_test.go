package redisstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-guard-companion/storage"
	"github.com/jrsteele09/go-guard-companion/storage/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redisstore.New(rdb, "gate-7"), mr
}

func TestSetGetRemove(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, storage.KeyAuthToken)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, storage.KeyAuthToken, "tok-1"))
	v, ok, err := store.Get(ctx, storage.KeyAuthToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "tok-1", v)
	require.Equal(t, "tok-1", mr.HGet("gate-7:storage", storage.KeyAuthToken))

	require.NoError(t, store.Remove(ctx, storage.KeyAuthToken))
	require.NoError(t, store.Remove(ctx, storage.KeyAuthToken))
	_, ok, err = store.Get(ctx, storage.KeyAuthToken)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUnavailableRedisReturnsError(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, _, err := store.Get(context.Background(), storage.KeyUser)
	require.Error(t, err)
	require.Error(t, store.Set(context.Background(), storage.KeyUser, "{}"))
}
