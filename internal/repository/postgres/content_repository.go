package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkbin/inkbin/internal/domain"
	"github.com/inkbin/inkbin/internal/repository"
)

// ContentRepository implements repository.ContentRepository using Postgres.
type ContentRepository struct {
	pool *pgxpool.Pool
}

// NewContentRepository creates a new Postgres-backed content repository.
func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{pool: pool}
}

// Upsert stores a content entry. Identical content submitted twice lands on
// the same row; the unique constraint makes the duplicate insert a no-op.
func (r *ContentRepository) Upsert(ctx context.Context, e domain.ContentEntry) error {
	const q = `
INSERT INTO paste_contents (hash, format, text)
VALUES ($1, $2, $3)
ON CONFLICT (hash, format) DO NOTHING
`
	if _, err := r.pool.Exec(ctx, q, e.Hash, e.Format, e.Text); err != nil {
		return fmt.Errorf("upsert content: %w", err)
	}
	return nil
}

// Find retrieves content by (hash, format).
func (r *ContentRepository) Find(ctx context.Context, hash, format string) (domain.ContentEntry, error) {
	const q = `SELECT hash, format, text FROM paste_contents WHERE hash = $1 AND format = $2`
	var e domain.ContentEntry
	err := r.pool.QueryRow(ctx, q, hash, format).Scan(&e.Hash, &e.Format, &e.Text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ContentEntry{}, repository.ErrNotFound
		}
		return domain.ContentEntry{}, fmt.Errorf("query content: %w", err)
	}
	return e, nil
}

// DeleteIfUnreferenced removes all entries for a hash when no live paste or
// version row references it. The reference check and the delete run in one
// statement so a racing insert cannot slip between them.
func (r *ContentRepository) DeleteIfUnreferenced(ctx context.Context, hash string) (bool, error) {
	const q = `
DELETE FROM paste_contents c
WHERE c.hash = $1
  AND NOT EXISTS (SELECT 1 FROM pastes p WHERE p.hash = c.hash AND p.deleted = FALSE)
  AND NOT EXISTS (SELECT 1 FROM paste_versions v WHERE v.hash = c.hash)
`
	ct, err := r.pool.Exec(ctx, q, hash)
	if err != nil {
		return false, fmt.Errorf("delete content: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

var _ repository.ContentRepository = (*ContentRepository)(nil)
