package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartspace/backend/internal/infrastructure/config"
)

type payload struct {
	Value int `json:"value"`
}

func TestInMemoryCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	defer c.Close()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	raw, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), raw)

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok, _ = c.Get(ctx, "short")
	assert.False(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
}

func TestInMemoryCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, Key("a", "dashboard"), []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, Key("a", "metrics"), []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, Key("b", "dashboard"), []byte("3"), time.Minute))

	require.NoError(t, Invalidate(ctx, c, "a"))

	_, ok, _ := c.Get(ctx, Key("a", "dashboard"))
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, Key("a", "metrics"))
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, Key("b", "dashboard"))
	assert.True(t, ok)
}

func TestGetOrCompute(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	defer c.Close()

	calls := 0
	compute := func(context.Context) (payload, error) {
		calls++
		return payload{Value: 7}, nil
	}

	v, err := GetOrCompute(ctx, c, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 7, v.Value)

	v, err = GetOrCompute(ctx, c, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 7, v.Value)
	assert.Equal(t, 1, calls)

	t.Run("nil cache always computes", func(t *testing.T) {
		v, err := GetOrCompute(ctx, nil, "k", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, 7, v.Value)
		assert.Equal(t, 2, calls)
	})

	t.Run("compute error is returned and not cached", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := GetOrCompute(ctx, c, "err", time.Minute, func(context.Context) (payload, error) {
			return payload{}, boom
		})
		assert.ErrorIs(t, err, boom)
		_, ok, _ := c.Get(ctx, "err")
		assert.False(t, ok)
	})
}

func TestFactory_DisabledRedisUsesMemory(t *testing.T) {
	c, client, err := NewFactory(config.RedisConfig{Enabled: false}).Create()
	require.NoError(t, err)
	defer c.Close()
	assert.Nil(t, client)
	assert.IsType(t, &InMemoryCache{}, c)
}

func TestFactory_UnreachableRedis(t *testing.T) {
	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	c, _, err := NewFactory(cfg).Create()
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, &InMemoryCache{}, c)

	_, _, err = NewFactory(cfg, WithInMemoryFallback(false)).Create()
	assert.Error(t, err)
}
