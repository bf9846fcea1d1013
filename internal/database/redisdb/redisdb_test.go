package redisdb_test

import (
	"context"
	"testing"
	"time"

	databaseerrors "cartstore/internal/database"
	"cartstore/internal/database/redisdb"
	"cartstore/pkg/lib/logger/slogdiscard"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, ttl time.Duration) (*redisdb.Storage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	storage := redisdb.NewWithParams(slogdiscard.NewDiscardLogger(), client, ttl)
	t.Cleanup(func() { _ = storage.Close() })

	return storage, mr
}

func TestStorage_GetMissing(t *testing.T) {
	storage, _ := newTestStorage(t, 0)

	_, err := storage.Get(context.Background(), "cart")
	assert.ErrorIs(t, err, databaseerrors.ErrNotFound)
}

func TestStorage_SetGet(t *testing.T) {
	storage, mr := newTestStorage(t, 0)
	ctx := context.Background()

	value := []byte(`[{"id":"a","name":"A","price":1.5,"image":"a.png","quantity":2}]`)
	require.NoError(t, storage.Set(ctx, "cart:abc", value))

	got, err := storage.Get(ctx, "cart:abc")
	require.NoError(t, err)
	assert.Equal(t, value, got)

	raw, err := mr.Get("cart:abc")
	require.NoError(t, err)
	assert.Equal(t, string(value), raw)
	assert.Zero(t, mr.TTL("cart:abc"))
}

func TestStorage_TTL(t *testing.T) {
	storage, mr := newTestStorage(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, "cart", []byte(`[]`)))
	assert.Equal(t, time.Hour, mr.TTL("cart"))

	mr.FastForward(2 * time.Hour)

	_, err := storage.Get(ctx, "cart")
	assert.ErrorIs(t, err, databaseerrors.ErrNotFound)
}

func TestStorage_ServerDown(t *testing.T) {
	storage, mr := newTestStorage(t, 0)
	mr.SetError("ERR server down")

	_, err := storage.Get(context.Background(), "cart")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, databaseerrors.ErrNotFound)

	assert.Error(t, storage.Set(context.Background(), "cart", []byte(`[]`)))
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	log := slogdiscard.NewDiscardLogger()

	for _, addr := range []string{mr.Addr(), "redis://" + mr.Addr() + "/0"} {
		storage, err := redisdb.Connect(context.Background(), log, addr, 0)
		require.NoError(t, err, addr)
		require.NoError(t, storage.Set(context.Background(), "cart", []byte(`[]`)))
		require.NoError(t, storage.Close())
	}

	_, err = redisdb.Connect(context.Background(), log, "redis://%zz", 0)
	assert.Error(t, err)
}
