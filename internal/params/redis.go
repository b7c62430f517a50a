package params

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"hdcn-access/internal/metadata"
)

// RedisCache keeps the last good override in Redis without expiry, so a
// restart during a source outage still serves the admin's table.
type RedisCache struct {
	client *redis.Client
	key    string
}

// NewRedisCache connects to url and checks the connection.
func NewRedisCache(ctx context.Context, url, prefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisCacheFromClient(client, prefix), nil
}

func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, key: prefix + Key}
}

func (c *RedisCache) Get(ctx context.Context) (metadata.FunctionPermissions, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	table, err := DecodeTable(data)
	if err != nil {
		// corrupt entry
		c.client.Del(ctx, c.key)
		return nil, err
	}
	return table, nil
}

func (c *RedisCache) Set(ctx context.Context, table metadata.FunctionPermissions) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", Key, err)
	}
	return c.client.Set(ctx, c.key, data, 0).Err()
}

func (c *RedisCache) Delete(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
