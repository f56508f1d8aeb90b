package sampler

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/inkbin/inkbin/internal/cache"
)

// rebuildChunk bounds how many members one SADD carries during a rebuild.
const rebuildChunk = 500

// RedisSampler implements Sampler on a Redis set, giving O(1) SRANDMEMBER
// selection instead of an ORDER BY random() table scan.
type RedisSampler struct {
	client *redis.Client
	key    string
}

// NewRedisSampler creates a sampler over the shared public-paste set key.
func NewRedisSampler(client *redis.Client) *RedisSampler {
	return &RedisSampler{client: client, key: cache.KeyPublicSet}
}

func (s *RedisSampler) Add(ctx context.Context, shortID string) error {
	if err := s.client.SAdd(ctx, s.key, shortID).Err(); err != nil {
		return fmt.Errorf("sampler add: %w", err)
	}
	return nil
}

func (s *RedisSampler) Remove(ctx context.Context, shortID string) error {
	if err := s.client.SRem(ctx, s.key, shortID).Err(); err != nil {
		return fmt.Errorf("sampler remove: %w", err)
	}
	return nil
}

func (s *RedisSampler) Sample(ctx context.Context) (string, error) {
	member, err := s.client.SRandMember(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("sampler sample: %w", err)
	}
	return member, nil
}

// Rebuild atomically replaces the membership set. The delete and the inserts
// run in one pipeline so a concurrent Sample sees either the old set or the
// new one, never a half-filled set observed as empty.
func (s *RedisSampler) Rebuild(ctx context.Context, shortIDs []string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key)
	for start := 0; start < len(shortIDs); start += rebuildChunk {
		end := start + rebuildChunk
		if end > len(shortIDs) {
			end = len(shortIDs)
		}
		members := make([]interface{}, 0, end-start)
		for _, id := range shortIDs[start:end] {
			members = append(members, id)
		}
		pipe.SAdd(ctx, s.key, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("sampler rebuild: %w", err)
	}
	return nil
}

func (s *RedisSampler) Size(ctx context.Context) (int64, error) {
	n, err := s.client.SCard(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("sampler size: %w", err)
	}
	return n, nil
}

var _ Sampler = (*RedisSampler)(nil)
