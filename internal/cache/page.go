// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed response cache keyed by site path.
// Public API responses are stored under the frontend path they back, so
// revalidation can drop exactly the paths a content change affects.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pathKeyPrefix is the Valkey key prefix for cached responses.
	pathKeyPrefix = "path:"

	// DefaultTTL is how long a cached response stays fresh without an
	// explicit invalidation. Invalidation is the primary mechanism; the
	// TTL is the backstop for paths no dispatch ever names.
	DefaultTTL = 5 * time.Minute
)

// PathCache manages cached response bodies in Valkey, one entry per site
// path.
type PathCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPathCache creates a new path cache backed by the given Valkey client.
func NewPathCache(client *redis.Client, ttl time.Duration) *PathCache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &PathCache{client: client, ttl: ttl}
}

// Get retrieves the cached body for a path. Returns false on miss.
func (pc *PathCache) Get(ctx context.Context, path string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pathKeyPrefix+path).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("path cache get error", "path", path, "error", err)
		return nil, false
	}
	slog.Debug("path cache hit", "path", path)
	return val, true
}

// Set stores a response body for a path with the configured TTL.
func (pc *PathCache) Set(ctx context.Context, path string, body []byte) {
	if err := pc.client.Set(ctx, pathKeyPrefix+path, body, pc.ttl).Err(); err != nil {
		slog.Warn("path cache set error", "path", path, "error", err)
	}
}

// InvalidatePaths removes the cached entries for the given paths. Missing
// keys are fine — invalidating a path that was never cached is a no-op.
func (pc *PathCache) InvalidatePaths(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = pathKeyPrefix + p
	}
	if err := pc.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("path cache invalidate error", "paths", paths, "error", err)
		return err
	}
	slog.Debug("path cache invalidated", "paths", paths)
	return nil
}

// InvalidateAll removes every cached response by scanning for the prefix.
// Used by the full counter resync, since any listing could be affected.
func (pc *PathCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pathKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("path cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("path cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("path cache fully cleared", "deleted", deleted)
	}
}
