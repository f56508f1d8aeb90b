//go:build integration

package hits

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newRedisCounter(t *testing.T, window time.Duration) (*RedisCounter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return NewRedisCounter(redis.NewClient(&redis.Options{Addr: mr.Addr()}), window), mr
}

func TestRedisCounter_DedupWithinWindow(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCounter(t, time.Hour)
	if n, err := c.RecordHit(ctx, 1, "alice"); err != nil || n != 1 {
		t.Fatalf("first hit: %d %v", n, err)
	}
	if n, _ := c.RecordHit(ctx, 1, "alice"); n != 1 {
		t.Fatalf("repeat within window must not count: %d", n)
	}
	if n, _ := c.RecordHit(ctx, 1, "bob"); n != 2 {
		t.Fatalf("distinct viewer should count: %d", n)
	}
	if n, _ := c.Count(ctx, 1); n != 2 {
		t.Fatalf("aggregate mismatch: %d", n)
	}
}

func TestRedisCounter_MarkerExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCounter(t, 2*time.Second)
	if n, _ := c.RecordHit(ctx, 1, "alice"); n != 1 {
		t.Fatalf("first hit: %d", n)
	}
	mr.FastForward(3 * time.Second)
	if n, _ := c.RecordHit(ctx, 1, "alice"); n != 2 {
		t.Fatalf("marker expired, hit should count: %d", n)
	}
}

func TestRedisCounter_CountUnknownPaste(t *testing.T) {
	c, _ := newRedisCounter(t, time.Hour)
	if n, err := c.Count(context.Background(), 404); err != nil || n != 0 {
		t.Fatalf("unknown paste: %d %v", n, err)
	}
}
