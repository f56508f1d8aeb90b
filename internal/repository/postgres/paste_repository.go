package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkbin/inkbin/internal/domain"
	"github.com/inkbin/inkbin/internal/repository"
)

// SQLSTATE codes worth translating at this boundary.
const (
	codeUniqueViolation  = "23505"
	codeLockNotAvailable = "55P03"
)

const pasteColumns = `id, char_id, owner_name, current_version, title, format, hash,
hidden, encrypted, removal_state, removal_reason, deleted, expires_at, submitted_at, updated_at`

// PasteRepository implements repository.PasteRepository using Postgres.
type PasteRepository struct {
	pool *pgxpool.Pool
}

// NewPasteRepository creates a new Postgres-backed paste repository.
func NewPasteRepository(pool *pgxpool.Pool) *PasteRepository {
	return &PasteRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaste(row rowScanner) (domain.Paste, error) {
	var (
		p          domain.Paste
		owner      *string
		hidden     bool
		state      string
		expiresPtr *time.Time
	)
	err := row.Scan(&p.ID, &p.ShortID, &owner, &p.CurrentVersion, &p.Title, &p.Format, &p.Hash,
		&hidden, &p.Encrypted, &state, &p.RemovalReason, &p.Deleted, &expiresPtr, &p.SubmittedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Paste{}, err
	}
	if owner != nil {
		p.Owner = *owner
	}
	if hidden {
		p.Visibility = domain.VisibilityHidden
	} else {
		p.Visibility = domain.VisibilityPublic
	}
	p.RemovalState = domain.RemovalState(state)
	if expiresPtr != nil {
		p.ExpiresAt = *expiresPtr
	}
	return p, nil
}

func nullableOwner(p domain.Paste) *string {
	if p.Owner == "" {
		return nil
	}
	return &p.Owner
}

func nullableExpires(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// upsertContent inserts a content entry unless (hash, format) already exists.
// The unique constraint resolves racing writers; a conflict is a no-op.
func upsertContent(ctx context.Context, tx pgx.Tx, e domain.ContentEntry) error {
	const q = `
INSERT INTO paste_contents (hash, format, text)
VALUES ($1, $2, $3)
ON CONFLICT (hash, format) DO NOTHING
`
	if _, err := tx.Exec(ctx, q, e.Hash, e.Format, e.Text); err != nil {
		return fmt.Errorf("upsert content: %w", err)
	}
	return nil
}

// Insert persists a new paste, its version-1 row, and its content entries in
// one transaction.
func (r *PasteRepository) Insert(ctx context.Context, p domain.Paste, note string, entries []domain.ContentEntry) (domain.Paste, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Paste{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `
INSERT INTO pastes (char_id, owner_name, title, format, hash, hidden, encrypted,
    removal_state, removal_reason, deleted, expires_at, submitted_at, updated_at, current_version)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'active', '', FALSE, $8, $9, $9, 1)
RETURNING id
`
	err = tx.QueryRow(ctx, q,
		p.ShortID, nullableOwner(p), p.Title, p.Format, p.Hash,
		p.Visibility == domain.VisibilityHidden, p.Encrypted,
		nullableExpires(p.ExpiresAt), p.SubmittedAt,
	).Scan(&p.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			return domain.Paste{}, domain.ErrDuplicateShortID
		}
		return domain.Paste{}, fmt.Errorf("insert paste: %w", err)
	}

	for _, e := range entries {
		if err := upsertContent(ctx, tx, e); err != nil {
			return domain.Paste{}, err
		}
	}

	const vq = `
INSERT INTO paste_versions (paste_id, version, note, title, hash, format, submitted_at)
VALUES ($1, 1, $2, $3, $4, $5, $6)
`
	if _, err := tx.Exec(ctx, vq, p.ID, note, p.Title, p.Hash, p.Format, p.SubmittedAt); err != nil {
		return domain.Paste{}, fmt.Errorf("insert version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Paste{}, fmt.Errorf("commit: %w", err)
	}
	p.CurrentVersion = 1
	p.RemovalState = domain.RemovalActive
	p.UpdatedAt = p.SubmittedAt
	return p, nil
}

// lockPaste takes the row lock serializing writers on one paste. NOWAIT turns
// a held lock into an immediate error instead of queueing behind the holder.
func lockPaste(ctx context.Context, tx pgx.Tx, pasteID int64) (domain.Paste, error) {
	q := `SELECT ` + pasteColumns + ` FROM pastes WHERE id = $1 FOR UPDATE NOWAIT`
	p, err := scanPaste(tx.QueryRow(ctx, q, pasteID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Paste{}, repository.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeLockNotAvailable {
			return domain.Paste{}, domain.ErrConcurrentModification
		}
		return domain.Paste{}, fmt.Errorf("lock paste: %w", err)
	}
	return p, nil
}

// Update applies an edit: bumps current_version, appends the matching version
// row, and stores content, all behind the paste row lock.
func (r *PasteRepository) Update(ctx context.Context, pasteID int64, upd repository.PasteUpdate, entries []domain.ContentEntry, now time.Time) (domain.Paste, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Paste{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := lockPaste(ctx, tx, pasteID)
	if err != nil {
		return domain.Paste{}, err
	}
	if p.Deleted {
		return domain.Paste{}, repository.ErrNotFound
	}

	next := p.CurrentVersion + 1
	const q = `
UPDATE pastes
SET current_version = $2, title = $3, format = $4, hash = $5, hidden = $6, encrypted = $7, updated_at = $8
WHERE id = $1
`
	_, err = tx.Exec(ctx, q, pasteID, next, upd.Title, upd.Format, upd.Hash,
		upd.Visibility == domain.VisibilityHidden, upd.Encrypted, now)
	if err != nil {
		return domain.Paste{}, fmt.Errorf("update paste: %w", err)
	}

	for _, e := range entries {
		if err := upsertContent(ctx, tx, e); err != nil {
			return domain.Paste{}, err
		}
	}

	const vq = `
INSERT INTO paste_versions (paste_id, version, note, title, hash, format, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	if _, err := tx.Exec(ctx, vq, pasteID, next, upd.Note, upd.Title, upd.Hash, upd.Format, now); err != nil {
		return domain.Paste{}, fmt.Errorf("insert version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Paste{}, fmt.Errorf("commit: %w", err)
	}

	p.CurrentVersion = next
	p.Title = upd.Title
	p.Format = upd.Format
	p.Hash = upd.Hash
	p.Visibility = upd.Visibility
	p.Encrypted = upd.Encrypted
	p.UpdatedAt = now
	return p, nil
}

// SetRemoval hides a paste. Content and version history stay in place so the
// removal can be reversed administratively.
func (r *PasteRepository) SetRemoval(ctx context.Context, pasteID int64, state domain.RemovalState, reason string, now time.Time) (domain.Paste, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Paste{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := lockPaste(ctx, tx, pasteID)
	if err != nil {
		return domain.Paste{}, err
	}
	if p.Deleted {
		return domain.Paste{}, repository.ErrNotFound
	}

	const q = `UPDATE pastes SET removal_state = $2, removal_reason = $3, updated_at = $4 WHERE id = $1`
	if _, err := tx.Exec(ctx, q, pasteID, string(state), reason, now); err != nil {
		return domain.Paste{}, fmt.Errorf("set removal: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Paste{}, fmt.Errorf("commit: %w", err)
	}
	p.RemovalState = state
	p.RemovalReason = reason
	p.UpdatedAt = now
	return p, nil
}

// Purge marks the paste deleted, drops its version rows, and removes every
// content entry for its hash once nothing references that hash anymore. The
// rendered variants go with the raw copy so no orphaned formats accumulate.
func (r *PasteRepository) Purge(ctx context.Context, pasteID int64, state domain.RemovalState, reason string, now time.Time) (domain.Paste, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Paste{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := lockPaste(ctx, tx, pasteID)
	if err != nil {
		return domain.Paste{}, err
	}
	if p.Deleted {
		return domain.Paste{}, repository.ErrNotFound
	}

	const q = `UPDATE pastes SET removal_state = $2, removal_reason = $3, deleted = TRUE, updated_at = $4 WHERE id = $1`
	if _, err := tx.Exec(ctx, q, pasteID, string(state), reason, now); err != nil {
		return domain.Paste{}, fmt.Errorf("mark deleted: %w", err)
	}

	// Versions are dropped only here, as part of whole-paste purge.
	hashes := map[string]struct{}{p.Hash: {}}
	rows, err := tx.Query(ctx, `SELECT DISTINCT hash FROM paste_versions WHERE paste_id = $1`, pasteID)
	if err != nil {
		return domain.Paste{}, fmt.Errorf("list version hashes: %w", err)
	}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			rows.Close()
			return domain.Paste{}, fmt.Errorf("scan hash: %w", err)
		}
		hashes[h] = struct{}{}
	}
	rows.Close()
	if rows.Err() != nil {
		return domain.Paste{}, rows.Err()
	}

	if _, err := tx.Exec(ctx, `DELETE FROM paste_versions WHERE paste_id = $1`, pasteID); err != nil {
		return domain.Paste{}, fmt.Errorf("delete versions: %w", err)
	}

	const purgeQ = `
DELETE FROM paste_contents c
WHERE c.hash = $1
  AND NOT EXISTS (SELECT 1 FROM pastes p WHERE p.hash = c.hash AND p.deleted = FALSE)
  AND NOT EXISTS (SELECT 1 FROM paste_versions v WHERE v.hash = c.hash)
`
	for h := range hashes {
		if _, err := tx.Exec(ctx, purgeQ, h); err != nil {
			return domain.Paste{}, fmt.Errorf("purge content: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Paste{}, fmt.Errorf("commit: %w", err)
	}
	p.RemovalState = state
	p.RemovalReason = reason
	p.Deleted = true
	p.UpdatedAt = now
	return p, nil
}

// FindByID retrieves a paste by its internal ID.
func (r *PasteRepository) FindByID(ctx context.Context, id int64) (domain.Paste, error) {
	q := `SELECT ` + pasteColumns + ` FROM pastes WHERE id = $1`
	p, err := scanPaste(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Paste{}, repository.ErrNotFound
		}
		return domain.Paste{}, fmt.Errorf("query paste: %w", err)
	}
	return p, nil
}

// FindByShortID retrieves a paste by its public short ID.
func (r *PasteRepository) FindByShortID(ctx context.Context, shortID string) (domain.Paste, error) {
	q := `SELECT ` + pasteColumns + ` FROM pastes WHERE char_id = $1`
	p, err := scanPaste(r.pool.QueryRow(ctx, q, shortID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Paste{}, repository.ErrNotFound
		}
		return domain.Paste{}, fmt.Errorf("query paste: %w", err)
	}
	return p, nil
}

// ShortIDExists reports whether a short ID is already taken.
func (r *PasteRepository) ShortIDExists(ctx context.Context, shortID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pastes WHERE char_id = $1)`, shortID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("short id exists: %w", err)
	}
	return exists, nil
}

// ListLatest returns visible public pastes, newest first.
func (r *PasteRepository) ListLatest(ctx context.Context, page, limit int, now time.Time) ([]domain.Paste, error) {
	offset := (page - 1) * limit
	q := `
SELECT ` + pasteColumns + `
FROM pastes
WHERE hidden = FALSE
  AND deleted = FALSE
  AND removal_state = 'active'
  AND (expires_at IS NULL OR expires_at > $1)
ORDER BY submitted_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.pool.Query(ctx, q, now, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list pastes: %w", err)
	}
	defer rows.Close()
	res := make([]domain.Paste, 0, limit)
	for rows.Next() {
		p, err := scanPaste(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paste: %w", err)
		}
		res = append(res, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return res, nil
}

// ListEligibleShortIDs returns every short ID that qualifies for random
// sampling. Used to rebuild the sampler set on cold start.
func (r *PasteRepository) ListEligibleShortIDs(ctx context.Context) ([]string, error) {
	const q = `
SELECT char_id FROM pastes
WHERE removal_state = 'active'
  AND deleted = FALSE
  AND hidden = FALSE
  AND encrypted = FALSE
  AND expires_at IS NULL
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list eligible: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan short id: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}

var _ repository.PasteRepository = (*PasteRepository)(nil)
