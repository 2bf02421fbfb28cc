package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tagSetKey 标签到缓存键集合的索引。缓存写入方负责把键
// SADD进对应标签集合，这里只做按标签的批量失效。
func tagSetKey(tag string) string {
	return "cache:tag:" + tag
}

// RedisTagStore 基于Redis集合的标签失效实现
type RedisTagStore struct {
	client *redis.Client
}

func NewRedisTagStore(client *redis.Client) TagStore {
	return &RedisTagStore{client: client}
}

// Invalidate 失效一个标签下的全部缓存键。
// 零延迟档位直接删除；带窗口的档位改写TTL，窗口内旧值可继续服务，
// 到期后由读路径回源重建。
func (s *RedisTagStore) Invalidate(ctx context.Context, tag string, profile Profile) error {
	if s.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	setKey := tagSetKey(tag)
	keys, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read tag set %s: %w", setKey, err)
	}
	if len(keys) == 0 {
		return nil
	}

	if profile.Window <= 0 {
		pipe := s.client.TxPipeline()
		pipe.Del(ctx, keys...)
		pipe.Del(ctx, setKey)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete keys for tag %s: %w", tag, err)
		}
		return nil
	}

	pipe := s.client.TxPipeline()
	for _, key := range keys {
		pipe.Expire(ctx, key, profile.Window)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to expire keys for tag %s: %w", tag, err)
	}
	return nil
}

// Register 把缓存键挂到标签下（缓存写入方调用）
func (s *RedisTagStore) Register(ctx context.Context, tag, key string, ttl time.Duration) error {
	if s.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, tagSetKey(tag), key)
	if ttl > 0 {
		pipe.Expire(ctx, tagSetKey(tag), ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
