package kvstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/veilnet/confighub/internal/config"
)

func setupTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	addr := strings.TrimPrefix(uri, "redis://")

	store, err := NewRedis(ctx, config.RedisConnection{
		AddressRedis: addr,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		TimeoutRedis: 3 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestRedisStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	store := setupTestRedis(t)

	t.Run("put get delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "country:de", `{"id":"de"}`, 0))

		val, found, err := store.Get(ctx, "country:de")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `{"id":"de"}`, val)

		require.NoError(t, store.Delete(ctx, "country:de"))
		_, found, err = store.Get(ctx, "country:de")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("ttl expiry", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "otp:42", "hash", time.Second))

		_, found, err := store.Get(ctx, "otp:42")
		require.NoError(t, err)
		assert.True(t, found)

		time.Sleep(1500 * time.Millisecond)
		_, found, err = store.Get(ctx, "otp:42")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("list by prefix", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "country:nl", "nl", 0))
		require.NoError(t, store.Put(ctx, "country:fr", "fr", 0))
		require.NoError(t, store.Put(ctx, "session:user:abc", "sess", 0))

		entries, err := store.ListPrefix(ctx, "country:")
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}
