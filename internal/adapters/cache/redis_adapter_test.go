package cache

import (
	"context"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/vaccinefinder/backend/internal/infrastructure/clients/redis"
)

func newTestRedis(t *testing.T) *redisclient.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return redisclient.NewFromClient(rdb)
}

func TestRedisAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter := NewRedisAdapter(newTestRedis(t), "test:vaccinefinder:")

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), 30))
	t.Cleanup(func() { _ = adapter.Delete(ctx, "k") })

	value, err := adapter.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)

	exists, err := adapter.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisAdapter_MissIsErrCacheMiss(t *testing.T) {
	adapter := NewRedisAdapter(newTestRedis(t), "test:vaccinefinder:")

	_, err := adapter.Get(context.Background(), "definitely-absent")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}
