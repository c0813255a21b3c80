// Package cache defines the port interface for caching.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is the port interface for key-value caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Typed stores JSON-encoded values of type T under a key prefix.
type Typed[T any] struct {
	c      Cache
	prefix string
	ttl    time.Duration
}

// NewTyped returns a Typed cache writing keys as prefix + ":" + key.
func NewTyped[T any](c Cache, prefix string, ttl time.Duration) *Typed[T] {
	return &Typed[T]{c: c, prefix: prefix, ttl: ttl}
}

// Key returns the backend key for k.
func (t *Typed[T]) Key(k string) string { return t.prefix + ":" + k }

// Get decodes the cached value for k. A value that no longer decodes is
// treated as a miss.
func (t *Typed[T]) Get(ctx context.Context, k string) (T, bool, error) {
	var zero T
	data, ok, err := t.c.Get(ctx, t.Key(k))
	if err != nil || !ok {
		return zero, false, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		_ = t.c.Delete(ctx, t.Key(k))
		return zero, false, nil
	}
	return v, true, nil
}

// Set encodes v and stores it under k.
func (t *Typed[T]) Set(ctx context.Context, k string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", t.Key(k), err)
	}
	return t.c.Set(ctx, t.Key(k), data, t.ttl)
}

// Delete removes k.
func (t *Typed[T]) Delete(ctx context.Context, k string) error {
	return t.c.Delete(ctx, t.Key(k))
}
