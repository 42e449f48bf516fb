// Package cache holds the analytics result cache. Dashboard and real-time
// analytics are expensive to assemble, so handlers read through a short-lived
// cache keyed by company and view.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned when the backing store cannot be reached
var ErrUnavailable = errors.New("cache unavailable")

// Cache stores serialized analytics payloads
type Cache interface {
	// Get returns the raw value and whether it was found
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix drops every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Key builds a company scoped cache key
func Key(companyID, view string) string {
	return "analytics:" + companyID + ":" + view
}

// CompanyPrefix matches every key of a company
func CompanyPrefix(companyID string) string {
	return "analytics:" + companyID + ":"
}

// GetOrCompute reads key from c and falls back to compute on a miss or a
// cache error. Cache errors never fail the request.
func GetOrCompute[T any](ctx context.Context, c Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return compute(ctx)
	}

	if raw, ok, err := c.Get(ctx, key); err == nil && ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
	}

	v, err := compute(ctx)
	if err != nil {
		return zero, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	_ = c.Set(ctx, key, raw, ttl)
	return v, nil
}

// Invalidate removes every cached view of a company
func Invalidate(ctx context.Context, c Cache, companyID string) error {
	if c == nil {
		return nil
	}
	if err := c.DeletePrefix(ctx, CompanyPrefix(companyID)); err != nil {
		return fmt.Errorf("failed to invalidate analytics cache: %w", err)
	}
	return nil
}
