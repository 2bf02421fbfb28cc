package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping redis test: TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

// TestRedisTagStore_ImmediateInvalidate 零延迟档位删除标签下的全部键
func TestRedisTagStore_ImmediateInvalidate(t *testing.T) {
	client := testRedisClient(t)
	ctx := context.Background()

	store := NewRedisTagStore(client).(*RedisTagStore)

	require.NoError(t, client.Set(ctx, "page:home", "html", 0).Err())
	require.NoError(t, client.Set(ctx, "page:post-1", "html", 0).Err())
	require.NoError(t, store.Register(ctx, TagHomepage, "page:home", 0))
	require.NoError(t, store.Register(ctx, TagHomepage, "page:post-1", 0))

	require.NoError(t, store.Invalidate(ctx, TagHomepage, Immediate))

	assert.Equal(t, int64(0), client.Exists(ctx, "page:home", "page:post-1").Val())
	assert.Equal(t, int64(0), client.Exists(ctx, "cache:tag:"+TagHomepage).Val())
}

// TestRedisTagStore_WindowedInvalidate 带窗口档位只改写TTL
func TestRedisTagStore_WindowedInvalidate(t *testing.T) {
	client := testRedisClient(t)
	ctx := context.Background()

	store := NewRedisTagStore(client).(*RedisTagStore)

	require.NoError(t, client.Set(ctx, "page:about", "html", 0).Err())
	require.NoError(t, store.Register(ctx, "item:page:about", "page:about", 0))

	require.NoError(t, store.Invalidate(ctx, "item:page:about", EditProfile(10*time.Minute)))

	// 键还在，但带上了失效窗口
	assert.Equal(t, int64(1), client.Exists(ctx, "page:about").Val())
	ttl := client.TTL(ctx, "page:about").Val()
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 10*time.Minute)
}

// TestRedisTagStore_EmptyTag 空标签是空操作
func TestRedisTagStore_EmptyTag(t *testing.T) {
	client := testRedisClient(t)

	store := NewRedisTagStore(client)
	assert.NoError(t, store.Invalidate(context.Background(), "item:post:missing", Immediate))
}
