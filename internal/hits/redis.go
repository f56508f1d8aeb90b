package hits

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/inkbin/inkbin/internal/cache"
)

// RedisCounter implements Counter with an expiring per-viewer marker and an
// aggregate counter per paste.
type RedisCounter struct {
	client *redis.Client
	window time.Duration
}

// NewRedisCounter creates a counter with the given dedup window; zero means
// DefaultWindow.
func NewRedisCounter(client *redis.Client, window time.Duration) *RedisCounter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisCounter{client: client, window: window}
}

// RecordHit marks the viewer and bumps the aggregate on first sight within the
// window. SETNX settles racing first-views: only the winner increments.
func (c *RedisCounter) RecordHit(ctx context.Context, pasteID int64, viewerKey string) (int64, error) {
	marker := cache.KeyHitMarker(pasteID, viewerKey)
	firstSeen, err := c.client.SetNX(ctx, marker, "1", c.window).Result()
	if err != nil {
		return 0, fmt.Errorf("hit marker: %w", err)
	}
	if firstSeen {
		n, err := c.client.Incr(ctx, cache.KeyHitCount(pasteID)).Result()
		if err != nil {
			return 0, fmt.Errorf("hit incr: %w", err)
		}
		return n, nil
	}
	return c.Count(ctx, pasteID)
}

// Count returns the aggregate unique-viewer count.
func (c *RedisCounter) Count(ctx context.Context, pasteID int64) (int64, error) {
	val, err := c.client.Get(ctx, cache.KeyHitCount(pasteID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("hit count: %w", err)
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("hit count parse: %w", err)
	}
	return n, nil
}

var _ Counter = (*RedisCounter)(nil)
