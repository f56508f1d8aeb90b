// Package fake provides in-memory fakes for repository interfaces for testing.
package fake

import (
	"context"
	"sort"
	"time"

	"github.com/inkbin/inkbin/internal/domain"
	"github.com/inkbin/inkbin/internal/repository"
)

type contentKey struct {
	hash   string
	format string
}

// PasteRepository is an in-memory fake implementing the paste, version, and
// content repository interfaces together, mirroring the transactional
// semantics of the real store. It's intentionally simple and not
// concurrency-safe (tests typically run single-threaded).
type PasteRepository struct {
	nextID   int64
	byID     map[int64]domain.Paste
	byShort  map[string]int64
	versions map[int64][]domain.PasteVersion
	contents map[contentKey]domain.ContentEntry

	// FailLock simulates a held row lock on the given paste IDs.
	FailLock map[int64]bool
}

// Option configures the fake repository.
type Option func(*PasteRepository)

// WithPastes seeds the repository with the provided pastes (by ID and short ID).
func WithPastes(items ...domain.Paste) Option {
	return func(r *PasteRepository) {
		for _, p := range items {
			r.byID[p.ID] = p
			r.byShort[p.ShortID] = p.ID
			if p.ID >= r.nextID {
				r.nextID = p.ID + 1
			}
		}
	}
}

// NewPasteRepository creates a new in-memory fake repo.
func NewPasteRepository(opts ...Option) *PasteRepository {
	r := &PasteRepository{
		nextID:   1,
		byID:     map[int64]domain.Paste{},
		byShort:  map[string]int64{},
		versions: map[int64][]domain.PasteVersion{},
		contents: map[contentKey]domain.ContentEntry{},
		FailLock: map[int64]bool{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ContentCount returns how many entries exist for a (hash, format) pair.
// Either zero or one by construction; tests assert the dedup invariant with it.
func (r *PasteRepository) ContentCount(hash, format string) int {
	if _, ok := r.contents[contentKey{hash, format}]; ok {
		return 1
	}
	return 0
}

func (r *PasteRepository) putContents(entries []domain.ContentEntry) {
	for _, e := range entries {
		k := contentKey{e.Hash, e.Format}
		if _, ok := r.contents[k]; !ok {
			r.contents[k] = e
		}
	}
}

func (r *PasteRepository) Insert(_ context.Context, p domain.Paste, note string, entries []domain.ContentEntry) (domain.Paste, error) {
	if _, taken := r.byShort[p.ShortID]; taken {
		return domain.Paste{}, domain.ErrDuplicateShortID
	}
	p.ID = r.nextID
	r.nextID++
	p.CurrentVersion = 1
	p.RemovalState = domain.RemovalActive
	p.UpdatedAt = p.SubmittedAt
	r.byID[p.ID] = p
	r.byShort[p.ShortID] = p.ID
	r.putContents(entries)
	r.versions[p.ID] = []domain.PasteVersion{{
		PasteID: p.ID, Version: 1, Note: note, Title: p.Title,
		Hash: p.Hash, Format: p.Format, SubmittedAt: p.SubmittedAt,
	}}
	return p, nil
}

func (r *PasteRepository) locked(pasteID int64) (domain.Paste, error) {
	if r.FailLock[pasteID] {
		return domain.Paste{}, domain.ErrConcurrentModification
	}
	p, ok := r.byID[pasteID]
	if !ok || p.Deleted {
		return domain.Paste{}, repository.ErrNotFound
	}
	return p, nil
}

func (r *PasteRepository) Update(_ context.Context, pasteID int64, upd repository.PasteUpdate, entries []domain.ContentEntry, now time.Time) (domain.Paste, error) {
	p, err := r.locked(pasteID)
	if err != nil {
		return domain.Paste{}, err
	}
	p.CurrentVersion++
	p.Title = upd.Title
	p.Format = upd.Format
	p.Hash = upd.Hash
	p.Visibility = upd.Visibility
	p.Encrypted = upd.Encrypted
	p.UpdatedAt = now
	r.byID[pasteID] = p
	r.putContents(entries)
	r.versions[pasteID] = append(r.versions[pasteID], domain.PasteVersion{
		PasteID: pasteID, Version: p.CurrentVersion, Note: upd.Note, Title: upd.Title,
		Hash: upd.Hash, Format: upd.Format, SubmittedAt: now,
	})
	return p, nil
}

func (r *PasteRepository) SetRemoval(_ context.Context, pasteID int64, state domain.RemovalState, reason string, now time.Time) (domain.Paste, error) {
	p, err := r.locked(pasteID)
	if err != nil {
		return domain.Paste{}, err
	}
	p.RemovalState = state
	p.RemovalReason = reason
	p.UpdatedAt = now
	r.byID[pasteID] = p
	return p, nil
}

func (r *PasteRepository) Purge(_ context.Context, pasteID int64, state domain.RemovalState, reason string, now time.Time) (domain.Paste, error) {
	p, err := r.locked(pasteID)
	if err != nil {
		return domain.Paste{}, err
	}
	p.RemovalState = state
	p.RemovalReason = reason
	p.Deleted = true
	p.UpdatedAt = now
	r.byID[pasteID] = p

	hashes := map[string]struct{}{p.Hash: {}}
	for _, v := range r.versions[pasteID] {
		hashes[v.Hash] = struct{}{}
	}
	delete(r.versions, pasteID)
	for h := range hashes {
		if !r.hashReferenced(h) {
			for k := range r.contents {
				if k.hash == h {
					delete(r.contents, k)
				}
			}
		}
	}
	return p, nil
}

func (r *PasteRepository) hashReferenced(hash string) bool {
	for _, p := range r.byID {
		if !p.Deleted && p.Hash == hash {
			return true
		}
	}
	for _, vs := range r.versions {
		for _, v := range vs {
			if v.Hash == hash {
				return true
			}
		}
	}
	return false
}

func (r *PasteRepository) FindByID(_ context.Context, id int64) (domain.Paste, error) {
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	return domain.Paste{}, repository.ErrNotFound
}

func (r *PasteRepository) FindByShortID(_ context.Context, shortID string) (domain.Paste, error) {
	if id, ok := r.byShort[shortID]; ok {
		return r.byID[id], nil
	}
	return domain.Paste{}, repository.ErrNotFound
}

func (r *PasteRepository) ShortIDExists(_ context.Context, shortID string) (bool, error) {
	_, ok := r.byShort[shortID]
	return ok, nil
}

func (r *PasteRepository) ListLatest(_ context.Context, page, limit int, now time.Time) ([]domain.Paste, error) {
	items := make([]domain.Paste, 0, len(r.byID))
	for _, p := range r.byID {
		if p.Deleted || p.RemovalState != domain.RemovalActive || p.Visibility == domain.VisibilityHidden {
			continue
		}
		if p.ExpiresAfter() && !now.Before(p.ExpiresAt) {
			continue
		}
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SubmittedAt.After(items[j].SubmittedAt) })
	return paginate(items, page, limit), nil
}

func (r *PasteRepository) ListEligibleShortIDs(_ context.Context) ([]string, error) {
	var ids []string
	for _, p := range r.byID {
		if p.Deleted || p.RemovalState != domain.RemovalActive ||
			p.Visibility == domain.VisibilityHidden || p.Encrypted || p.ExpiresAfter() {
			continue
		}
		ids = append(ids, p.ShortID)
	}
	sort.Strings(ids)
	return ids, nil
}

// Find implements repository.VersionRepository.
func (r *PasteRepository) Find(_ context.Context, pasteID int64, version int) (domain.PasteVersion, error) {
	for _, v := range r.versions[pasteID] {
		if v.Version == version {
			return v, nil
		}
	}
	return domain.PasteVersion{}, repository.ErrNotFound
}

// List implements repository.VersionRepository, newest first.
func (r *PasteRepository) List(_ context.Context, pasteID int64, page, limit int) ([]domain.PasteVersion, error) {
	vs := append([]domain.PasteVersion(nil), r.versions[pasteID]...)
	sort.Slice(vs, func(i, j int) bool { return vs[i].Version > vs[j].Version })
	return paginate(vs, page, limit), nil
}

// Count implements repository.VersionRepository.
func (r *PasteRepository) Count(_ context.Context, pasteID int64) (int, error) {
	return len(r.versions[pasteID]), nil
}

// Contents returns a view of this fake implementing
// repository.ContentRepository. A separate view is needed because the version
// and content interfaces both name a Find method.
func (r *PasteRepository) Contents() repository.ContentRepository {
	return contentView{r}
}

type contentView struct{ r *PasteRepository }

func (c contentView) Upsert(_ context.Context, e domain.ContentEntry) error {
	c.r.putContents([]domain.ContentEntry{e})
	return nil
}

func (c contentView) Find(_ context.Context, hash, format string) (domain.ContentEntry, error) {
	if e, ok := c.r.contents[contentKey{hash, format}]; ok {
		return e, nil
	}
	return domain.ContentEntry{}, repository.ErrNotFound
}

func (c contentView) DeleteIfUnreferenced(_ context.Context, hash string) (bool, error) {
	if c.r.hashReferenced(hash) {
		return false, nil
	}
	deleted := false
	for k := range c.r.contents {
		if k.hash == hash {
			delete(c.r.contents, k)
			deleted = true
		}
	}
	return deleted, nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

var _ repository.PasteRepository = (*PasteRepository)(nil)
var _ repository.VersionRepository = (*PasteRepository)(nil)
var _ repository.ContentRepository = contentView{}
