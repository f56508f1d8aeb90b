// Package postgres provides Postgres-backed implementations of the paste repositories.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkbin/inkbin/pkg/logger"
)

// EnsureSchema creates required tables and indexes if they don't exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS pastes (
    id BIGSERIAL PRIMARY KEY,
    char_id TEXT NOT NULL UNIQUE,
    owner_name TEXT NULL,
    current_version INT NOT NULL DEFAULT 1,
    title TEXT NOT NULL DEFAULT 'Untitled',
    format TEXT NOT NULL DEFAULT 'none',
    hash TEXT NOT NULL,
    hidden BOOLEAN NOT NULL DEFAULT FALSE,
    encrypted BOOLEAN NOT NULL DEFAULT FALSE,
    removal_state TEXT NOT NULL DEFAULT 'active',
    removal_reason TEXT NOT NULL DEFAULT '',
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    expires_at TIMESTAMPTZ NULL,
    submitted_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pastes_submitted_at ON pastes (submitted_at DESC);
CREATE INDEX IF NOT EXISTS idx_pastes_hash ON pastes (hash);
-- sampler rebuild scans on the eligibility predicate
CREATE INDEX IF NOT EXISTS idx_pastes_eligibility ON pastes (removal_state, hidden, encrypted, expires_at);

CREATE TABLE IF NOT EXISTS paste_versions (
    paste_id BIGINT NOT NULL REFERENCES pastes (id) ON DELETE CASCADE,
    version INT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    hash TEXT NOT NULL,
    format TEXT NOT NULL,
    submitted_at TIMESTAMPTZ NOT NULL,
    UNIQUE (paste_id, version)
);
CREATE INDEX IF NOT EXISTS idx_paste_versions_hash ON paste_versions (hash);

CREATE TABLE IF NOT EXISTS paste_contents (
    hash TEXT NOT NULL,
    format TEXT NOT NULL,
    text TEXT NOT NULL,
    UNIQUE (hash, format)
);
`
	_, err := pool.Exec(ctx, schema)
	if err != nil {
		return err
	}
	logger.Info(ctx, "postgres schema ensured")
	return nil
}
