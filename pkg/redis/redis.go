package redis

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/formora_backend/config"
)

var ErrNoAddr = errors.New("redis: addr is empty")

// Options maps the config section onto go-redis options. Zero pool and
// timeout values get the defaults the sessions and limiter were tuned for.
func Options(c config.RedisConfig) *goredis.Options {
	secs := func(n, def int) time.Duration { return time.Duration(cmp.Or(n, def)) * time.Second }
	return &goredis.Options{
		Addr:         c.Addr,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     cmp.Or(c.PoolSize, 10),
		MinIdleConns: cmp.Or(c.MinIdleConns, 2),
		DialTimeout:  secs(c.DialTimeoutSeconds, 5),
		ReadTimeout:  secs(c.ReadTimeoutSeconds, 3),
		WriteTimeout: secs(c.WriteTimeoutSeconds, 3),
	}
}

// Connect opens a client and pings it once so a bad address fails at boot.
func Connect(ctx context.Context, c config.RedisConfig) (*goredis.Client, error) {
	if c.Addr == "" {
		return nil, ErrNoAddr
	}
	rdb := goredis.NewClient(Options(c))
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", c.Addr, err)
	}
	return rdb, nil
}
