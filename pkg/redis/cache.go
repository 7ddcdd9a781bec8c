package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Cache stores JSON values under a fixed key prefix with one TTL.
type Cache struct {
	rdb    goredis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewCache(rdb goredis.Cmdable, prefix string, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *Cache) Key(id string) string {
	return c.prefix + id
}

// Get decodes the value stored for id into dst. It reports false on a miss.
func (c *Cache) Get(ctx context.Context, id string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, c.Key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", c.Key(id), err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", c.Key(id), err)
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", c.Key(id), err)
	}
	if err := c.rdb.Set(ctx, c.Key(id), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", c.Key(id), err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, c.Key(id)).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", c.Key(id), err)
	}
	return nil
}
