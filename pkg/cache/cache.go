// Package cache stores JSON-encoded values by key. The Redis implementation
// backs the available-items listing; Nop is used when no Redis is configured.
package cache

import (
	"context"
	"time"
)

// Cache is a JSON value cache. Get reports a hit; errors are misses.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Nop never hits and never stores.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) bool                 { return false }
func (Nop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Nop) Del(context.Context, ...string) error                          { return nil }
