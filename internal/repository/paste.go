// Package repository defines the data-access contracts for pastes, their
// version history, and content-addressed text storage.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/inkbin/inkbin/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// PasteUpdate carries the fields an edit may change. The repository bumps the
// version counter and appends the matching history row in the same
// transaction.
type PasteUpdate struct {
	Title      string
	Format     string
	Hash       string
	Visibility domain.Visibility
	Encrypted  bool
	Note       string
}

// PasteRepository persists paste envelopes. All multi-step mutations run in a
// single transaction: an edit is never visible without its version row, and a
// purge never leaves content behind that nothing references.
type PasteRepository interface {
	// Insert persists a new paste together with its version-1 history row and
	// content entries. The returned paste carries the assigned internal ID.
	Insert(ctx context.Context, p domain.Paste, note string, entries []domain.ContentEntry) (domain.Paste, error)
	// Update locks the paste row, increments current_version, appends the
	// version row with the same number, and upserts the new content entries.
	// Returns domain.ErrConcurrentModification when the row lock is held by
	// another writer.
	Update(ctx context.Context, pasteID int64, upd PasteUpdate, entries []domain.ContentEntry, now time.Time) (domain.Paste, error)
	// SetRemoval hides a paste reversibly. Content and history are retained.
	SetRemoval(ctx context.Context, pasteID int64, state domain.RemovalState, reason string, now time.Time) (domain.Paste, error)
	// Purge marks the paste deleted, drops its version rows, and removes all
	// content entries for its hash that no live paste or surviving version
	// still references.
	Purge(ctx context.Context, pasteID int64, state domain.RemovalState, reason string, now time.Time) (domain.Paste, error)
	FindByID(ctx context.Context, id int64) (domain.Paste, error)
	FindByShortID(ctx context.Context, shortID string) (domain.Paste, error)
	ShortIDExists(ctx context.Context, shortID string) (bool, error)
	// ListLatest returns currently visible public pastes, newest first.
	ListLatest(ctx context.Context, page, limit int, now time.Time) ([]domain.Paste, error)
	// ListEligibleShortIDs returns the short IDs qualifying for random
	// sampling: active, public, not hidden, not encrypted, non-expiring.
	ListEligibleShortIDs(ctx context.Context) ([]string, error)
}

// VersionRepository reads the append-only history of a paste.
type VersionRepository interface {
	Find(ctx context.Context, pasteID int64, version int) (domain.PasteVersion, error)
	// List returns versions newest first, paginated.
	List(ctx context.Context, pasteID int64, page, limit int) ([]domain.PasteVersion, error)
	Count(ctx context.Context, pasteID int64) (int, error)
}

// ContentRepository stores deduplicated paste text keyed by (hash, format).
type ContentRepository interface {
	// Upsert inserts the entry unless (hash, format) already exists. Racing
	// writers are resolved by the store's unique constraint, not by
	// check-then-act.
	Upsert(ctx context.Context, entry domain.ContentEntry) error
	Find(ctx context.Context, hash, format string) (domain.ContentEntry, error)
	// DeleteIfUnreferenced removes every entry for the hash when no live paste
	// or version row references it. Returns whether anything was deleted.
	DeleteIfUnreferenced(ctx context.Context, hash string) (bool, error)
}
