package sampler

import (
	"context"
	"math/rand"
	"sync"
)

// MemorySampler is a process-local Sampler for tests and single-node setups
// without Redis.
type MemorySampler struct {
	mu      sync.Mutex
	members map[string]struct{}
}

// NewMemorySampler creates an empty in-process sampler.
func NewMemorySampler() *MemorySampler {
	return &MemorySampler{members: map[string]struct{}{}}
}

func (s *MemorySampler) Add(_ context.Context, shortID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[shortID] = struct{}{}
	return nil
}

func (s *MemorySampler) Remove(_ context.Context, shortID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, shortID)
	return nil
}

func (s *MemorySampler) Sample(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.members) == 0 {
		return "", nil
	}
	// map iteration order is already unspecified, but skipping a random number
	// of members keeps the selection uniform rather than implementation-defined
	n := rand.Intn(len(s.members))
	for id := range s.members {
		if n == 0 {
			return id, nil
		}
		n--
	}
	return "", nil
}

func (s *MemorySampler) Rebuild(_ context.Context, shortIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = make(map[string]struct{}, len(shortIDs))
	for _, id := range shortIDs {
		s.members[id] = struct{}{}
	}
	return nil
}

func (s *MemorySampler) Size(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.members)), nil
}

var _ Sampler = (*MemorySampler)(nil)
