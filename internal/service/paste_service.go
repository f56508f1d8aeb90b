// Package service contains business logic for the application.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/inkbin/inkbin/internal/cache"
	"github.com/inkbin/inkbin/internal/domain"
	"github.com/inkbin/inkbin/internal/highlight"
	"github.com/inkbin/inkbin/internal/hits"
	"github.com/inkbin/inkbin/internal/metrics"
	"github.com/inkbin/inkbin/internal/repository"
	"github.com/inkbin/inkbin/internal/sampler"
	"github.com/inkbin/inkbin/pkg/logger"
	"github.com/inkbin/inkbin/pkg/shortid"
)

// maxShortIDAttempts bounds collision retries during short ID generation. The
// 62^8 space makes even one collision rare; repeated collisions mean the
// generator is broken and the operation escalates instead of looping.
const maxShortIDAttempts = 5

// Pagination bounds shared by history and latest-paste listings.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Deps bundles the collaborators a Service needs.
type Deps struct {
	Pastes   repository.PasteRepository
	Versions repository.VersionRepository
	Contents repository.ContentRepository
	Cache    cache.Cache
	Sampler  sampler.Sampler
	Hits     hits.Counter
	Renderer highlight.Renderer
	Clock    Clock
}

// Service orchestrates the paste lifecycle. It is the only component that
// mutates paste envelopes; everything else collaborates through it.
type Service struct {
	pastes   repository.PasteRepository
	versions repository.VersionRepository
	contents repository.ContentRepository
	cache    cache.Cache
	sampler  sampler.Sampler
	hits     hits.Counter
	renderer highlight.Renderer
	clock    Clock

	genID     func() (string, error)
	cacheTTL  time.Duration
	group     singleflight.Group
	listeners []RemovalListener
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator overrides the short ID source. Used in tests.
func WithIDGenerator(f func() (string, error)) Option {
	return func(s *Service) { s.genID = f }
}

// WithCacheTTL bounds how long read-path entries stay cached.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Service) { s.cacheTTL = d }
}

// NewService creates a Service with the given dependencies.
func NewService(d Deps, opts ...Option) *Service {
	gen := shortid.New()
	s := &Service{
		pastes:   d.Pastes,
		versions: d.Versions,
		contents: d.Contents,
		cache:    d.Cache,
		sampler:  d.Sampler,
		hits:     d.Hits,
		renderer: d.Renderer,
		clock:    d.Clock,
		genID:    gen.Generate,
		cacheTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheStatus is a typed cache status string.
type CacheStatus string

const (
	CacheMiss CacheStatus = "MISS"
	CacheHit  CacheStatus = "HIT"
)

// PasteMeta holds metadata about a paste fetch.
type PasteMeta struct {
	CacheStatus CacheStatus
}

// CreatePaste carries everything a submission may set.
type CreatePaste struct {
	Text       string
	Title      string
	Format     string
	Expiration domain.Expiration
	Visibility domain.Visibility
	Encrypted  bool
	Owner      string
	Note       string
}

// UpdatePaste carries the fields an edit may change.
type UpdatePaste struct {
	Text       string
	Title      string
	Format     string
	Visibility domain.Visibility
	Encrypted  bool
	Note       string
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// expiresAt turns a relative expiration choice into an absolute timestamp.
// One month is taken as 31 days, matching how pastes have always advertised it.
func expiresAt(now time.Time, exp domain.Expiration) time.Time {
	switch exp {
	case domain.ExpireFifteenMinutes:
		return now.Add(15 * time.Minute)
	case domain.ExpireOneHour:
		return now.Add(time.Hour)
	case domain.ExpireOneDay:
		return now.Add(24 * time.Hour)
	case domain.ExpireOneWeek:
		return now.Add(7 * 24 * time.Hour)
	case domain.ExpireOneMonth:
		return now.Add(31 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// eligible reports whether a paste belongs in the random-sampling set.
func eligible(p domain.Paste) bool {
	return p.RemovalState == domain.RemovalActive &&
		!p.Deleted &&
		p.Visibility == domain.VisibilityPublic &&
		!p.Encrypted &&
		!p.ExpiresAfter()
}

// prepareContent hashes the text and builds the entries to persist: always the
// raw copy, plus a rendered variant unless the paste is encrypted. A format
// without a lexer degrades the paste to unformatted instead of failing the
// submission.
func (s *Service) prepareContent(ctx context.Context, text, format string, encrypted bool) (hash, resolvedFormat string, entries []domain.ContentEntry) {
	hash = hashText(text)
	entries = []domain.ContentEntry{{Hash: hash, Format: domain.FormatNone, Text: text}}
	if format == "" {
		format = domain.FormatNone
	}
	if encrypted || format == domain.FormatNone {
		return hash, format, entries
	}
	rendered, err := s.renderer.Render(text, format)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedLanguage) {
			metrics.RenderFailures.Inc()
			logger.With(ctx, map[string]any{"format": format}).Warn("no lexer for format, storing paste unformatted")
			return hash, domain.FormatNone, entries
		}
		// Rendering is cosmetic. Any other renderer failure also degrades
		// rather than blocking the raw copy.
		logger.Error(ctx, "render failed for format %s: %v", format, err)
		return hash, domain.FormatNone, entries
	}
	entries = append(entries, domain.ContentEntry{Hash: hash, Format: format, Text: rendered})
	return hash, format, entries
}

// Create submits a new paste and returns it with its assigned short ID.
func (s *Service) Create(ctx context.Context, req CreatePaste) (domain.Paste, error) {
	if req.Text == "" {
		return domain.Paste{}, domain.ErrEmptyContent
	}
	now := s.clock.Now()
	title := req.Title
	if title == "" {
		title = domain.DefaultTitle
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	hash, format, entries := s.prepareContent(ctx, req.Text, req.Format, req.Encrypted)

	var created domain.Paste
	var lastErr error
	for attempt := 0; attempt < maxShortIDAttempts; attempt++ {
		id, err := s.genID()
		if err != nil {
			return domain.Paste{}, fmt.Errorf("generate short id: %w", err)
		}
		if taken, err := s.pastes.ShortIDExists(ctx, id); err != nil {
			return domain.Paste{}, fmt.Errorf("short id lookup: %w", err)
		} else if taken {
			lastErr = domain.ErrDuplicateShortID
			continue
		}
		created, err = s.pastes.Insert(ctx, domain.Paste{
			ShortID:     id,
			Owner:       req.Owner,
			Title:       title,
			Format:      format,
			Hash:        hash,
			Visibility:  visibility,
			Encrypted:   req.Encrypted,
			ExpiresAt:   expiresAt(now, req.Expiration),
			SubmittedAt: now,
		}, req.Note, entries)
		if err != nil {
			// The uniqueness check above can race another writer; the insert
			// constraint is the authority, so a duplicate here retries too.
			if errors.Is(err, domain.ErrDuplicateShortID) {
				lastErr = err
				continue
			}
			return domain.Paste{}, fmt.Errorf("insert paste: %w", err)
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		logger.Error(ctx, "short id generation exhausted after %d attempts", maxShortIDAttempts)
		return domain.Paste{}, domain.ErrIdentifierExhausted
	}

	if eligible(created) {
		if err := s.sampler.Add(ctx, created.ShortID); err != nil {
			logger.Warn(ctx, "sampler add failed for %s: %v", created.ShortID, err)
		}
	}
	s.cachePaste(ctx, created)
	metrics.PastesCreated.Inc()
	logger.With(ctx, map[string]any{"short_id": created.ShortID, "format": created.Format}).Info("paste created")
	return created, nil
}

// Update edits a paste: a new immutable version is appended and the envelope's
// current pointer moves to it.
func (s *Service) Update(ctx context.Context, pasteID int64, req UpdatePaste) (domain.Paste, error) {
	if req.Text == "" {
		return domain.Paste{}, domain.ErrEmptyContent
	}
	before, err := s.pastes.FindByID(ctx, pasteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Paste{}, domain.ErrPasteNotFound
		}
		return domain.Paste{}, fmt.Errorf("find paste: %w", err)
	}
	if before.Deleted {
		return domain.Paste{}, domain.ErrPasteNotFound
	}

	title := req.Title
	if title == "" {
		title = domain.DefaultTitle
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	hash, format, entries := s.prepareContent(ctx, req.Text, req.Format, req.Encrypted)

	updated, err := s.pastes.Update(ctx, pasteID, repository.PasteUpdate{
		Title:      title,
		Format:     format,
		Hash:       hash,
		Visibility: visibility,
		Encrypted:  req.Encrypted,
		Note:       req.Note,
	}, entries, s.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return domain.Paste{}, domain.ErrPasteNotFound
		case errors.Is(err, domain.ErrConcurrentModification):
			return domain.Paste{}, err
		}
		return domain.Paste{}, fmt.Errorf("update paste: %w", err)
	}

	// The envelope and the old display text are stale now. Content entries are
	// immutable, so dropping the keys is correctness-neutral but keeps the
	// cache from serving the previous version on the paste's display path.
	if err := s.cache.Delete(ctx,
		cache.KeyPaste(updated.ShortID),
		cache.KeyText(before.Hash, before.Format),
		cache.KeyText(before.Hash, domain.FormatNone),
	); err != nil {
		logger.Warn(ctx, "cache invalidation failed for %s: %v", updated.ShortID, err)
	}

	s.reconcileSampler(ctx, before, updated)
	s.cachePaste(ctx, updated)
	metrics.PasteEdits.Inc()
	logger.With(ctx, map[string]any{"short_id": updated.ShortID, "version": updated.CurrentVersion}).Info("paste updated")
	return updated, nil
}

func (s *Service) reconcileSampler(ctx context.Context, before, after domain.Paste) {
	wasEligible, isEligible := eligible(before), eligible(after)
	switch {
	case wasEligible && !isEligible:
		if err := s.sampler.Remove(ctx, after.ShortID); err != nil {
			logger.Warn(ctx, "sampler remove failed for %s: %v", after.ShortID, err)
		}
	case !wasEligible && isEligible:
		if err := s.sampler.Add(ctx, after.ShortID); err != nil {
			logger.Warn(ctx, "sampler add failed for %s: %v", after.ShortID, err)
		}
	}
}

// Remove hides a paste reversibly. Content and history stay put.
func (s *Service) Remove(ctx context.Context, pasteID int64, state domain.RemovalState, reason string) error {
	p, err := s.pastes.SetRemoval(ctx, pasteID, state, reason, s.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return domain.ErrPasteNotFound
		case errors.Is(err, domain.ErrConcurrentModification):
			return err
		}
		return fmt.Errorf("remove paste: %w", err)
	}
	s.afterRemoval(ctx, p, false, reason)
	metrics.PasteRemovals.WithLabelValues(string(state), "false").Inc()
	logger.With(ctx, map[string]any{"short_id": p.ShortID, "state": string(state)}).Info("paste removed")
	return nil
}

// Delete removes a paste permanently: the envelope is marked deleted and
// content nothing else references is purged. Irreversible.
func (s *Service) Delete(ctx context.Context, pasteID int64, state domain.RemovalState, reason string) error {
	p, err := s.pastes.Purge(ctx, pasteID, state, reason, s.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return domain.ErrPasteNotFound
		case errors.Is(err, domain.ErrConcurrentModification):
			return err
		}
		return fmt.Errorf("delete paste: %w", err)
	}
	s.afterRemoval(ctx, p, true, reason)
	metrics.PasteRemovals.WithLabelValues(string(state), "true").Inc()
	logger.With(ctx, map[string]any{"short_id": p.ShortID, "state": string(state)}).Info("paste deleted")
	return nil
}

func (s *Service) afterRemoval(ctx context.Context, p domain.Paste, purged bool, reason string) {
	if err := s.sampler.Remove(ctx, p.ShortID); err != nil {
		logger.Warn(ctx, "sampler remove failed for %s: %v", p.ShortID, err)
	}
	if err := s.cache.Delete(ctx,
		cache.KeyPaste(p.ShortID),
		cache.KeyText(p.Hash, p.Format),
		cache.KeyText(p.Hash, domain.FormatNone),
	); err != nil {
		logger.Warn(ctx, "cache invalidation failed for %s: %v", p.ShortID, err)
	}
	s.notifyRemoval(ctx, RemovalEvent{Paste: p, Purged: purged, Reason: reason})
}

// GetByShortID fetches a paste envelope by its public identifier, consulting
// the cache first.
func (s *Service) GetByShortID(ctx context.Context, shortID string) (domain.Paste, PasteMeta, error) {
	meta := PasteMeta{CacheStatus: CacheMiss}
	if val, ok, err := s.cache.Get(ctx, cache.KeyPaste(shortID)); err == nil && ok {
		var p domain.Paste
		if jsonErr := json.Unmarshal([]byte(val), &p); jsonErr == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			meta.CacheStatus = CacheHit
			return p, meta, nil
		}
	} else if err != nil {
		logger.Warn(ctx, "cache get failed for %s: %v", shortID, err)
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	p, err := s.pastes.FindByShortID(ctx, shortID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Paste{}, meta, domain.ErrPasteNotFound
		}
		return domain.Paste{}, meta, fmt.Errorf("find by short id: %w", err)
	}
	s.cachePaste(ctx, p)
	return p, meta, nil
}

// cachePaste stores the envelope best-effort, with the TTL clipped so a cached
// copy never outlives the paste's own expiry.
func (s *Service) cachePaste(ctx context.Context, p domain.Paste) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	ttl := s.cacheTTL
	if p.ExpiresAfter() {
		if until := p.ExpiresAt.Sub(s.clock.Now()); until > 0 && (ttl == 0 || until < ttl) {
			ttl = until
		}
	}
	if err := s.cache.Set(ctx, cache.KeyPaste(p.ShortID), string(data), ttl); err != nil {
		logger.Warn(ctx, "cache set failed for %s: %v", p.ShortID, err)
	}
}

// GetText resolves a paste's text. Version zero means the current version;
// formatted selects the highlighted variant, falling back to raw text when no
// rendered entry exists.
func (s *Service) GetText(ctx context.Context, pasteID int64, formatted bool, version int) (string, error) {
	p, err := s.pastes.FindByID(ctx, pasteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrPasteNotFound
		}
		return "", fmt.Errorf("find paste: %w", err)
	}
	hash, format := p.Hash, p.Format
	if version > 0 {
		v, err := s.versions.Find(ctx, pasteID, version)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", domain.ErrVersionNotFound
			}
			return "", fmt.Errorf("find version: %w", err)
		}
		hash, format = v.Hash, v.Format
	}
	// Encrypted pastes are never rendered server side; the raw ciphertext is
	// the only stored representation.
	if !formatted || p.Encrypted {
		format = domain.FormatNone
	}
	return s.textFor(ctx, hash, format)
}

// textFor is the content read path: cache, then store, with concurrent misses
// for the same key collapsed into one store lookup.
func (s *Service) textFor(ctx context.Context, hash, format string) (string, error) {
	key := cache.KeyText(hash, format)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		if val, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return val, nil
		} else if err != nil {
			logger.Warn(ctx, "cache get failed for %s: %v", key, err)
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		entry, err := s.contents.Find(ctx, hash, format)
		if errors.Is(err, repository.ErrNotFound) && format != domain.FormatNone {
			// Degraded pastes have no rendered entry; serve the raw copy.
			entry, err = s.contents.Find(ctx, hash, domain.FormatNone)
		}
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, domain.ErrContentNotFound
			}
			return nil, fmt.Errorf("find content: %w", err)
		}
		if err := s.cache.Set(ctx, key, entry.Text, s.cacheTTL); err != nil {
			logger.Warn(ctx, "cache set failed for %s: %v", key, err)
		}
		return entry.Text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// GetVersionHistory returns a paste's versions, newest first.
func (s *Service) GetVersionHistory(ctx context.Context, pasteID int64, page, limit int) ([]domain.PasteVersion, error) {
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if page < 1 {
		page = DefaultPage
	}
	if _, err := s.pastes.FindByID(ctx, pasteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrPasteNotFound
		}
		return nil, fmt.Errorf("find paste: %w", err)
	}
	return s.versions.List(ctx, pasteID, page, limit)
}

// ListLatest returns currently visible public pastes, newest first.
func (s *Service) ListLatest(ctx context.Context, page, limit int) ([]domain.Paste, error) {
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if page < 1 {
		page = DefaultPage
	}
	return s.pastes.ListLatest(ctx, page, limit, s.clock.Now())
}

// IsExpired reports whether a paste's lifetime has passed. A paste is expired
// exactly when its expiry timestamp lies before now.
func (s *Service) IsExpired(p domain.Paste) bool {
	return p.ExpiresAfter() && p.ExpiresAt.Before(s.clock.Now())
}

// RandomPaste picks a random eligible public paste. An empty sampling set is
// rebuilt once from the authoritative store before giving up.
func (s *Service) RandomPaste(ctx context.Context) (domain.Paste, error) {
	id, err := s.sampler.Sample(ctx)
	if err != nil {
		return domain.Paste{}, fmt.Errorf("sample: %w", err)
	}
	if id == "" {
		ids, err := s.pastes.ListEligibleShortIDs(ctx)
		if err != nil {
			return domain.Paste{}, fmt.Errorf("sampler rebuild scan: %w", err)
		}
		if err := s.sampler.Rebuild(ctx, ids); err != nil {
			return domain.Paste{}, fmt.Errorf("sampler rebuild: %w", err)
		}
		logger.Info(ctx, "sampler rebuilt with %d eligible pastes", len(ids))
		if id, err = s.sampler.Sample(ctx); err != nil {
			return domain.Paste{}, fmt.Errorf("sample: %w", err)
		}
	}
	if id == "" {
		return domain.Paste{}, domain.ErrNoEligiblePastes
	}
	p, _, err := s.GetByShortID(ctx, id)
	if err != nil {
		return domain.Paste{}, err
	}
	return p, nil
}

// WarmSampler rebuilds the sampling set from the authoritative store. Called
// at startup so the first random-paste request doesn't pay for the scan.
func (s *Service) WarmSampler(ctx context.Context) error {
	ids, err := s.pastes.ListEligibleShortIDs(ctx)
	if err != nil {
		return fmt.Errorf("sampler rebuild scan: %w", err)
	}
	if err := s.sampler.Rebuild(ctx, ids); err != nil {
		return fmt.Errorf("sampler rebuild: %w", err)
	}
	logger.Info(ctx, "sampler warmed with %d eligible pastes", len(ids))
	return nil
}

// RecordHit counts a unique view of a paste within the dedup window.
func (s *Service) RecordHit(ctx context.Context, pasteID int64, viewerKey string) (int64, error) {
	return s.hits.RecordHit(ctx, pasteID, viewerKey)
}

// Hits returns the paste's unique-viewer count.
func (s *Service) Hits(ctx context.Context, pasteID int64) (int64, error) {
	return s.hits.Count(ctx, pasteID)
}
