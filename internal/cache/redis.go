package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oggyb/roomate/internal/config"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is applied to every cached entry and refreshed on access.
const DefaultTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForProfile generates the Redis key for a user's cached profile.
func (c *RedisCache) KeyForProfile(userID string) string {
	return fmt.Sprintf("profile:%s", userID)
}

// KeyForSeenUser generates the Redis key marking an identity as registered.
func (c *RedisCache) KeyForSeenUser(userID string) string {
	return fmt.Sprintf("user:seen:%s", userID)
}

// SetJSON stores v as JSON under key with the given TTL.
func (c *RedisCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return c.Client.Set(ctx, key, b, ttl).Err()
}

// GetJSON loads key into dst. A miss returns (false, nil).
// Hits refresh the TTL so active users stay warm.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil // cache miss
	} else if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		// corrupt entry; drop it and report a miss
		_ = c.Client.Del(ctx, key).Err()
		return false, nil
	}
	_ = c.Client.Expire(ctx, key, DefaultTTL).Err()
	return true, nil
}

// MarkSeen records userID as seen for ttl. It returns true only for the
// caller that created the marker.
func (c *RedisCache) MarkSeen(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	return c.Client.SetNX(ctx, c.KeyForSeenUser(userID), 1, ttl).Result()
}
