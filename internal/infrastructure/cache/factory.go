package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/infrastructure/config"
)

// Factory creates the analytics cache based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	breaker               BreakerSettings
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to memory when Redis is unavailable
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithBreakerSettings overrides the circuit breaker settings
func WithBreakerSettings(s BreakerSettings) FactoryOption {
	return func(f *Factory) {
		f.breaker = s
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		breaker:               DefaultBreakerSettings(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the cache and, when Redis is in use, its client so other
// components (token blacklist) can share the connection.
func (f *Factory) Create() (Cache, *redis.Client, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("redis disabled, using in-memory analytics cache")
		return NewInMemoryCache(), nil, nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis analytics cache",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port))
		return NewRedisCache(client, f.breaker, f.logger), client, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory analytics cache. "+
		"Cached views are not shared across instances.",
		zap.Error(err))
	return NewInMemoryCache(), nil, nil
}
