//go:build integration

package sampler

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newRedisSampler(t *testing.T) *RedisSampler {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return NewRedisSampler(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestRedisSampler_AddRemoveSample(t *testing.T) {
	ctx := context.Background()
	s := newRedisSampler(t)
	if id, err := s.Sample(ctx); err != nil || id != "" {
		t.Fatalf("empty set should sample to empty string: %q %v", id, err)
	}
	if err := s.Add(ctx, "abc12345"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if id, _ := s.Sample(ctx); id != "abc12345" {
		t.Fatalf("want only member, got %q", id)
	}
	if err := s.Remove(ctx, "abc12345"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if id, _ := s.Sample(ctx); id != "" {
		t.Fatalf("removed member still sampleable: %q", id)
	}
}

func TestRedisSampler_RebuildReplacesMembership(t *testing.T) {
	ctx := context.Background()
	s := newRedisSampler(t)
	if err := s.Add(ctx, "stale001"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Rebuild(ctx, []string{"fresh001", "fresh002", "fresh003"}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	n, err := s.Size(ctx)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if n != 3 {
		t.Fatalf("want size 3 after rebuild, got %d", n)
	}
	for i := 0; i < 50; i++ {
		if id, _ := s.Sample(ctx); id == "stale001" {
			t.Fatalf("stale member survived rebuild")
		}
	}
}

func TestRedisSampler_RebuildChunksLargeSets(t *testing.T) {
	ctx := context.Background()
	s := newRedisSampler(t)
	ids := make([]string, rebuildChunk+37)
	for i := range ids {
		ids[i] = fmt.Sprintf("id%06d", i)
	}
	if err := s.Rebuild(ctx, ids); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	n, err := s.Size(ctx)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if n != int64(len(ids)) {
		t.Fatalf("want size %d, got %d", len(ids), n)
	}
}

func TestRedisSampler_RebuildToEmpty(t *testing.T) {
	ctx := context.Background()
	s := newRedisSampler(t)
	if err := s.Add(ctx, "member01"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Rebuild(ctx, nil); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if n, _ := s.Size(ctx); n != 0 {
		t.Fatalf("want empty set, got %d", n)
	}
}
