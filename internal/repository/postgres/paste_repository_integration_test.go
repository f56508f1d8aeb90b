//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/inkbin/inkbin/internal/domain"
	"github.com/inkbin/inkbin/internal/repository"
)

// startPostgres spins up a Postgres container using testcontainers.
func startPostgres(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	pg, err := tcpostgres.RunContainer(ctx,
		tcpostgres.WithUsername("inkbin"),
		tcpostgres.WithPassword("secret"),
		tcpostgres.WithDatabase("inkbin"),
	)
	if err != nil {
		t.Skipf("skipping: cannot start postgres container (is Docker running?): %v", err)
		return nil
	}
	host, _ := pg.Host(ctx)
	port, _ := pg.MappedPort(ctx, "5432")
	dsn := fmt.Sprintf("postgres://inkbin:secret@%s:%s/inkbin?sslmode=disable", host, port.Port())
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.MaxConnLifetime = 0
	cfg.MaxConnIdleTime = 0
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for {
		if err := pool.Ping(waitCtx); err == nil {
			break
		}
		select {
		case <-waitCtx.Done():
			t.Fatalf("timeout waiting for db ready: %v", waitCtx.Err())
		case <-time.After(250 * time.Millisecond):
		}
	}
	t.Cleanup(func() {
		pool.Close()
		_ = pg.Terminate(context.Background())
	})
	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return pool
}

func testPaste(shortID, hash string, submitted time.Time) domain.Paste {
	return domain.Paste{
		ShortID:     shortID,
		Title:       domain.DefaultTitle,
		Format:      domain.FormatNone,
		Hash:        hash,
		Visibility:  domain.VisibilityPublic,
		SubmittedAt: submitted,
	}
}

func rawEntry(hash, text string) []domain.ContentEntry {
	return []domain.ContentEntry{{Hash: hash, Format: domain.FormatNone, Text: text}}
}

func TestPasteRepository_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pool := startPostgres(ctx, t)

	pastes := NewPasteRepository(pool)
	versions := NewVersionRepository(pool)
	contents := NewContentRepository(pool)

	now := time.Now().UTC().Truncate(time.Second)
	created, err := pastes.Insert(ctx, testPaste("abc123xy", "hash-1", now), "initial", rawEntry("hash-1", "first body"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if created.ID == 0 || created.CurrentVersion != 1 {
		t.Fatalf("insert result wrong: %+v", created)
	}

	// short id is taken now
	if taken, err := pastes.ShortIDExists(ctx, "abc123xy"); err != nil || !taken {
		t.Fatalf("short id should exist: %v %v", taken, err)
	}
	if _, err := pastes.Insert(ctx, testPaste("abc123xy", "hash-1", now), "", rawEntry("hash-1", "first body")); !errors.Is(err, domain.ErrDuplicateShortID) {
		t.Fatalf("duplicate insert should fail with ErrDuplicateShortID, got %v", err)
	}

	// edit appends a version and moves the pointer
	updated, err := pastes.Update(ctx, created.ID, repository.PasteUpdate{
		Title: "renamed", Format: domain.FormatNone, Hash: "hash-2",
		Visibility: domain.VisibilityPublic,
	}, rawEntry("hash-2", "second body"), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CurrentVersion != 2 || updated.Title != "renamed" {
		t.Fatalf("update result wrong: %+v", updated)
	}
	if n, _ := versions.Count(ctx, created.ID); n != 2 {
		t.Fatalf("want 2 version rows, got %d", n)
	}
	v1, err := versions.Find(ctx, created.ID, 1)
	if err != nil || v1.Hash != "hash-1" {
		t.Fatalf("version 1: %+v %v", v1, err)
	}
	history, err := versions.List(ctx, created.ID, 1, 10)
	if err != nil || len(history) != 2 || history[0].Version != 2 {
		t.Fatalf("history: %+v %v", history, err)
	}

	// both contents resolve
	if e, err := contents.Find(ctx, "hash-1", domain.FormatNone); err != nil || e.Text != "first body" {
		t.Fatalf("content hash-1: %+v %v", e, err)
	}
	if e, err := contents.Find(ctx, "hash-2", domain.FormatNone); err != nil || e.Text != "second body" {
		t.Fatalf("content hash-2: %+v %v", e, err)
	}

	// reversible removal hides but keeps everything
	removed, err := pastes.SetRemoval(ctx, created.ID, domain.RemovalUserRemoved, "cleanup", now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("set removal: %v", err)
	}
	if !removed.IsRemoved() || removed.Deleted {
		t.Fatalf("removal state wrong: %+v", removed)
	}
	if _, err := contents.Find(ctx, "hash-2", domain.FormatNone); err != nil {
		t.Fatalf("removal must not purge content: %v", err)
	}

	// purge marks deleted and drops versions plus orphaned content
	purged, err := pastes.Purge(ctx, created.ID, domain.RemovalAdminRemoved, "abuse", now.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if !purged.Deleted {
		t.Fatalf("purge should mark deleted: %+v", purged)
	}
	if n, _ := versions.Count(ctx, created.ID); n != 0 {
		t.Fatalf("purge should drop version rows, got %d", n)
	}
	if _, err := contents.Find(ctx, "hash-1", domain.FormatNone); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("orphaned content should be purged, got %v", err)
	}
	if _, err := contents.Find(ctx, "hash-2", domain.FormatNone); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("orphaned content should be purged, got %v", err)
	}
	// the envelope survives as a tombstone
	if got, err := pastes.FindByID(ctx, created.ID); err != nil || !got.Deleted {
		t.Fatalf("envelope should survive purge: %+v %v", got, err)
	}
}

func TestPasteRepository_ContentSharedAcrossPastes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pool := startPostgres(ctx, t)

	pastes := NewPasteRepository(pool)
	contents := NewContentRepository(pool)
	now := time.Now().UTC().Truncate(time.Second)

	a, err := pastes.Insert(ctx, testPaste("sharer01", "shared-h", now), "", rawEntry("shared-h", "common text"))
	if err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if _, err := pastes.Insert(ctx, testPaste("sharer02", "shared-h", now), "", rawEntry("shared-h", "common text")); err != nil {
		t.Fatalf("insert b: %v", err)
	}

	// purging one paste must not take the shared content with it
	if _, err := pastes.Purge(ctx, a.ID, domain.RemovalUserRemoved, "", now.Add(time.Minute)); err != nil {
		t.Fatalf("purge a: %v", err)
	}
	if e, err := contents.Find(ctx, "shared-h", domain.FormatNone); err != nil || e.Text != "common text" {
		t.Fatalf("shared content should survive: %+v %v", e, err)
	}
}

func TestPasteRepository_ListLatestAndEligibility(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pool := startPostgres(ctx, t)

	pastes := NewPasteRepository(pool)
	now := time.Now().UTC().Truncate(time.Second)

	public := testPaste("public01", "h-pub", now)
	hidden := testPaste("hidden01", "h-hid", now.Add(time.Second))
	hidden.Visibility = domain.VisibilityHidden
	expired := testPaste("expire01", "h-exp", now.Add(2*time.Second))
	expired.ExpiresAt = now.Add(-time.Hour)
	encrypted := testPaste("crypto01", "h-enc", now.Add(3*time.Second))
	encrypted.Encrypted = true

	for _, p := range []domain.Paste{public, hidden, expired, encrypted} {
		if _, err := pastes.Insert(ctx, p, "", rawEntry(p.Hash, "text "+p.ShortID)); err != nil {
			t.Fatalf("insert %s: %v", p.ShortID, err)
		}
	}

	latest, err := pastes.ListLatest(ctx, 1, 10, now.Add(4*time.Second))
	if err != nil {
		t.Fatalf("list latest: %v", err)
	}
	// hidden and expired are filtered from the listing; encrypted is visible
	if len(latest) != 2 {
		t.Fatalf("want 2 listed pastes, got %d: %+v", len(latest), latest)
	}
	if latest[0].ShortID != "crypto01" || latest[1].ShortID != "public01" {
		t.Fatalf("order wrong: %+v", latest)
	}

	ids, err := pastes.ListEligibleShortIDs(ctx)
	if err != nil {
		t.Fatalf("list eligible: %v", err)
	}
	// sampling additionally excludes encrypted pastes
	if len(ids) != 1 || ids[0] != "public01" {
		t.Fatalf("want only public01 eligible, got %v", ids)
	}
}

func TestPasteRepository_FindByShortID_NotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pool := startPostgres(ctx, t)

	pastes := NewPasteRepository(pool)
	if _, err := pastes.FindByShortID(ctx, "nope0000"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
