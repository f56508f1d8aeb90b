package sampler

import (
	"context"
	"testing"
)

func TestMemorySampler_AddRemoveSample(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySampler()
	if id, err := s.Sample(ctx); err != nil || id != "" {
		t.Fatalf("empty set should sample to empty string: %q %v", id, err)
	}
	if err := s.Add(ctx, "only1234"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if id, _ := s.Sample(ctx); id != "only1234" {
		t.Fatalf("want only member, got %q", id)
	}
	// adding twice is idempotent
	_ = s.Add(ctx, "only1234")
	if n, _ := s.Size(ctx); n != 1 {
		t.Fatalf("want size 1, got %d", n)
	}
	if err := s.Remove(ctx, "only1234"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if id, _ := s.Sample(ctx); id != "" {
		t.Fatalf("removed member still sampleable: %q", id)
	}
}

func TestMemorySampler_SampleCoversAllMembers(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySampler()
	members := []string{"aaaa0001", "aaaa0002", "aaaa0003"}
	for _, m := range members {
		if err := s.Add(ctx, m); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id, err := s.Sample(ctx)
		if err != nil {
			t.Fatalf("sample: %v", err)
		}
		seen[id] = true
	}
	for _, m := range members {
		if !seen[m] {
			t.Fatalf("member %s never sampled", m)
		}
	}
}

func TestMemorySampler_RebuildReplacesMembership(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySampler()
	_ = s.Add(ctx, "stale001")
	if err := s.Rebuild(ctx, []string{"fresh001", "fresh002"}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if n, _ := s.Size(ctx); n != 2 {
		t.Fatalf("want size 2 after rebuild, got %d", n)
	}
	for i := 0; i < 50; i++ {
		if id, _ := s.Sample(ctx); id == "stale001" {
			t.Fatalf("stale member survived rebuild")
		}
	}
}
