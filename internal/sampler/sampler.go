// Package sampler maintains the membership set behind "random public paste".
// The set is an index, not a source of truth: it is rebuilt from the paste
// table whenever it turns up empty, and a briefly stale member is acceptable.
package sampler

import "context"

// Sampler holds the short IDs of pastes eligible for random selection and
// hands back an arbitrary member in O(1).
type Sampler interface {
	Add(ctx context.Context, shortID string) error
	Remove(ctx context.Context, shortID string) error
	// Sample returns a random member, or "" when the set is empty.
	Sample(ctx context.Context) (string, error)
	// Rebuild replaces the whole set with the given membership.
	Rebuild(ctx context.Context, shortIDs []string) error
	Size(ctx context.Context) (int64, error)
}
