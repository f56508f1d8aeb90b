package hits

import (
	"context"
	"sync"
	"time"
)

type markerKey struct {
	pasteID int64
	viewer  string
}

// MemoryCounter is a process-local Counter for tests and setups without Redis.
type MemoryCounter struct {
	mu      sync.Mutex
	window  time.Duration
	now     func() time.Time
	seen    map[markerKey]time.Time
	total   map[int64]int64
}

// MemoryOption configures a MemoryCounter.
type MemoryOption func(*MemoryCounter)

// WithNow overrides the time source used for window expiry.
func WithNow(f func() time.Time) MemoryOption {
	return func(c *MemoryCounter) { c.now = f }
}

// NewMemoryCounter creates a counter with the given dedup window; zero means
// DefaultWindow.
func NewMemoryCounter(window time.Duration, opts ...MemoryOption) *MemoryCounter {
	if window <= 0 {
		window = DefaultWindow
	}
	c := &MemoryCounter{
		window: window,
		now:    time.Now,
		seen:   map[markerKey]time.Time{},
		total:  map[int64]int64{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCounter) RecordHit(_ context.Context, pasteID int64, viewerKey string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	k := markerKey{pasteID, viewerKey}
	if seenAt, ok := c.seen[k]; ok && now.Sub(seenAt) < c.window {
		return c.total[pasteID], nil
	}
	c.seen[k] = now
	c.total[pasteID]++
	return c.total[pasteID], nil
}

func (c *MemoryCounter) Count(_ context.Context, pasteID int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total[pasteID], nil
}

var _ Counter = (*MemoryCounter)(nil)
