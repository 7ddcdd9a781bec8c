package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/formora_backend/config"
)

func TestOptions_Defaults(t *testing.T) {
	o := Options(config.RedisConfig{Addr: "r:6379", PoolSize: 50, ReadTimeoutSeconds: 9})
	assert.Equal(t, "r:6379", o.Addr)
	assert.Equal(t, 50, o.PoolSize)
	assert.Equal(t, 2, o.MinIdleConns)
	assert.Equal(t, 5*time.Second, o.DialTimeout)
	assert.Equal(t, 9*time.Second, o.ReadTimeout)
}

func TestConnect(t *testing.T) {
	ctx := context.Background()
	_, err := Connect(ctx, config.RedisConfig{})
	assert.ErrorIs(t, err, ErrNoAddr)

	mr := miniredis.RunT(t)
	rdb, err := Connect(ctx, config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer rdb.Close()

	mr.Close()
	_, err = Connect(ctx, config.RedisConfig{Addr: mr.Addr(), DialTimeoutSeconds: 1})
	assert.Error(t, err)
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb, err := Connect(ctx, config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)

	c := NewCache(rdb, "analytics:", time.Minute)

	var got map[string]int
	hit, err := c.Get(ctx, "f1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "f1", map[string]int{"total": 3}))
	assert.True(t, mr.Exists("analytics:f1"))

	hit, err = c.Get(ctx, "f1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, got["total"])

	mr.FastForward(2 * time.Minute)
	hit, err = c.Get(ctx, "f1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "f1", 1))
	require.NoError(t, c.Delete(ctx, "f1"))
	assert.False(t, mr.Exists("analytics:f1"))
}
