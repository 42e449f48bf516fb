package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/infrastructure/config"
)

// BreakerSettings tunes the circuit breaker guarding Redis
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerSettings returns the production breaker settings
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// RedisCache stores analytics payloads in Redis. Calls go through a circuit
// breaker so a struggling Redis degrades to recomputation instead of adding
// latency to every request.
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisCache wraps an existing client
func NewRedisCache(client redis.UniversalClient, settings BreakerSettings, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &RedisCache{
		client:    client,
		keyPrefix: "smartspace:",
		logger:    logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-analytics-cache",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

func (c *RedisCache) execute(fn func() (interface{}, error)) (interface{}, error) {
	v, err := c.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, err
}

// Get implements Cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.execute(func() (interface{}, error) {
		raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return []byte(nil), nil
		}
		return raw, err
	})
	if err != nil {
		c.logger.Debug("analytics cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false, err
	}
	raw := v.([]byte)
	return raw, raw != nil, nil
}

// Set implements Cache
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	_, err := c.execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.keyPrefix+key, value, ttl).Err()
	})
	return err
}

// DeletePrefix implements Cache using SCAN so Redis is never blocked
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := c.execute(func() (interface{}, error) {
		iter := c.client.Scan(ctx, 0, c.keyPrefix+prefix+"*", 200).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, nil
		}
		return nil, c.client.Del(ctx, keys...).Err()
	})
	return err
}

// State reports the breaker state for health output
func (c *RedisCache) State() string {
	return c.breaker.State().String()
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
