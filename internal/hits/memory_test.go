package hits

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCounter_DedupWithinWindow(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCounter(time.Hour)
	if n, err := c.RecordHit(ctx, 1, "alice"); err != nil || n != 1 {
		t.Fatalf("first hit: %d %v", n, err)
	}
	if n, _ := c.RecordHit(ctx, 1, "alice"); n != 1 {
		t.Fatalf("repeat within window must not count: %d", n)
	}
	if n, _ := c.RecordHit(ctx, 1, "bob"); n != 2 {
		t.Fatalf("distinct viewer should count: %d", n)
	}
	if n, _ := c.RecordHit(ctx, 2, "alice"); n != 1 {
		t.Fatalf("counts are per paste: %d", n)
	}
	if n, _ := c.Count(ctx, 1); n != 2 {
		t.Fatalf("aggregate mismatch: %d", n)
	}
	if n, _ := c.Count(ctx, 99); n != 0 {
		t.Fatalf("unknown paste should count zero: %d", n)
	}
}

func TestMemoryCounter_WindowReopens(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCounter(time.Hour, WithNow(func() time.Time { return now }))
	if n, _ := c.RecordHit(ctx, 1, "alice"); n != 1 {
		t.Fatalf("first hit: %d", n)
	}
	now = now.Add(59 * time.Minute)
	if n, _ := c.RecordHit(ctx, 1, "alice"); n != 1 {
		t.Fatalf("still inside window: %d", n)
	}
	now = now.Add(2 * time.Minute)
	if n, _ := c.RecordHit(ctx, 1, "alice"); n != 2 {
		t.Fatalf("window elapsed, hit should count: %d", n)
	}
}

func TestMemoryCounter_ZeroWindowDefaults(t *testing.T) {
	c := NewMemoryCounter(0)
	if c.window != DefaultWindow {
		t.Fatalf("zero window should default to %v, got %v", DefaultWindow, c.window)
	}
}
