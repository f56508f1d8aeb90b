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

// VersionRepository implements repository.VersionRepository using Postgres.
// Version rows are written by PasteRepository inside its transactions; this
// type only reads them.
type VersionRepository struct {
	pool *pgxpool.Pool
}

// NewVersionRepository creates a new Postgres-backed version repository.
func NewVersionRepository(pool *pgxpool.Pool) *VersionRepository {
	return &VersionRepository{pool: pool}
}

// Find retrieves one version of a paste.
func (r *VersionRepository) Find(ctx context.Context, pasteID int64, version int) (domain.PasteVersion, error) {
	const q = `
SELECT paste_id, version, note, title, hash, format, submitted_at
FROM paste_versions
WHERE paste_id = $1 AND version = $2
`
	var v domain.PasteVersion
	err := r.pool.QueryRow(ctx, q, pasteID, version).Scan(
		&v.PasteID, &v.Version, &v.Note, &v.Title, &v.Hash, &v.Format, &v.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PasteVersion{}, repository.ErrNotFound
		}
		return domain.PasteVersion{}, fmt.Errorf("query version: %w", err)
	}
	return v, nil
}

// List returns a paste's versions newest first, paginated.
func (r *VersionRepository) List(ctx context.Context, pasteID int64, page, limit int) ([]domain.PasteVersion, error) {
	offset := (page - 1) * limit
	const q = `
SELECT paste_id, version, note, title, hash, format, submitted_at
FROM paste_versions
WHERE paste_id = $1
ORDER BY version DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.pool.Query(ctx, q, pasteID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()
	res := make([]domain.PasteVersion, 0, limit)
	for rows.Next() {
		var v domain.PasteVersion
		if err := rows.Scan(&v.PasteID, &v.Version, &v.Note, &v.Title, &v.Hash, &v.Format, &v.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		res = append(res, v)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return res, nil
}

// Count returns the number of versions recorded for a paste.
func (r *VersionRepository) Count(ctx context.Context, pasteID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM paste_versions WHERE paste_id = $1`, pasteID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count versions: %w", err)
	}
	return n, nil
}

var _ repository.VersionRepository = (*VersionRepository)(nil)
