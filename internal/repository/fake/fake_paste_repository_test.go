package fake

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/inkbin/inkbin/internal/domain"
	"github.com/inkbin/inkbin/internal/repository"
)

var t0 = time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)

func insertPaste(t *testing.T, r *PasteRepository, shortID, text string, submitted time.Time) domain.Paste {
	t.Helper()
	hash := fmt.Sprintf("hash-%s", text)
	p, err := r.Insert(context.Background(), domain.Paste{
		ShortID:     shortID,
		Title:       domain.DefaultTitle,
		Format:      domain.FormatNone,
		Hash:        hash,
		Visibility:  domain.VisibilityPublic,
		SubmittedAt: submitted,
	}, "", []domain.ContentEntry{{Hash: hash, Format: domain.FormatNone, Text: text}})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return p
}

func TestInsert_AssignsIDsAndFirstVersion(t *testing.T) {
	r := NewPasteRepository()
	a := insertPaste(t, r, "aaaaaaaa", "one", t0)
	b := insertPaste(t, r, "bbbbbbbb", "two", t0)
	if a.ID == b.ID {
		t.Fatalf("ids must be distinct")
	}
	if a.CurrentVersion != 1 || a.RemovalState != domain.RemovalActive {
		t.Fatalf("fresh paste state wrong: %+v", a)
	}
	n, _ := r.Count(context.Background(), a.ID)
	if n != 1 {
		t.Fatalf("insert should record version 1, count %d", n)
	}
}

func TestInsert_DuplicateShortID(t *testing.T) {
	r := NewPasteRepository()
	insertPaste(t, r, "samesame", "one", t0)
	_, err := r.Insert(context.Background(), domain.Paste{ShortID: "samesame"}, "", nil)
	if !errors.Is(err, domain.ErrDuplicateShortID) {
		t.Fatalf("expected ErrDuplicateShortID, got %v", err)
	}
}

func TestWithPastes_SeedsLookups(t *testing.T) {
	seeded := domain.Paste{ID: 7, ShortID: "seeded77", Visibility: domain.VisibilityPublic}
	r := NewPasteRepository(WithPastes(seeded))
	got, err := r.FindByShortID(context.Background(), "seeded77")
	if err != nil || got.ID != 7 {
		t.Fatalf("seeded paste not found: %+v %v", got, err)
	}
	next := insertPaste(t, r, "fresh123", "x", t0)
	if next.ID <= 7 {
		t.Fatalf("id sequence must skip past seeds, got %d", next.ID)
	}
}

func TestFailLock_SimulatesHeldLock(t *testing.T) {
	r := NewPasteRepository()
	p := insertPaste(t, r, "locked00", "x", t0)
	r.FailLock[p.ID] = true
	_, err := r.Update(context.Background(), p.ID, repository.PasteUpdate{}, nil, t0)
	if !errors.Is(err, domain.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
	_, err = r.SetRemoval(context.Background(), p.ID, domain.RemovalUserRemoved, "", t0)
	if !errors.Is(err, domain.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
}

func TestListLatest_NewestFirstAndPaged(t *testing.T) {
	r := NewPasteRepository()
	for i := 0; i < 5; i++ {
		insertPaste(t, r, fmt.Sprintf("paste00%d", i), fmt.Sprintf("text %d", i), t0.Add(time.Duration(i)*time.Minute))
	}
	page1, err := r.ListLatest(context.Background(), 1, 2, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page1) != 2 || page1[0].ShortID != "paste004" || page1[1].ShortID != "paste003" {
		t.Fatalf("page 1 wrong: %+v", page1)
	}
	page3, err := r.ListLatest(context.Background(), 3, 2, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page3) != 1 || page3[0].ShortID != "paste000" {
		t.Fatalf("page 3 wrong: %+v", page3)
	}
}

func TestVersions_NewestFirst(t *testing.T) {
	r := NewPasteRepository()
	ctx := context.Background()
	p := insertPaste(t, r, "editable", "v1", t0)
	for i := 2; i <= 4; i++ {
		if _, err := r.Update(ctx, p.ID, repository.PasteUpdate{
			Title: p.Title, Format: domain.FormatNone, Hash: fmt.Sprintf("hash-v%d", i),
		}, nil, t0.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	vs, err := r.List(ctx, p.ID, 1, 10)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(vs) != 4 || vs[0].Version != 4 || vs[3].Version != 1 {
		t.Fatalf("version order wrong: %+v", vs)
	}
	if _, err := r.Find(ctx, p.ID, 9); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing version, got %v", err)
	}
}

func TestContents_UpsertIsIdempotent(t *testing.T) {
	r := NewPasteRepository()
	c := r.Contents()
	ctx := context.Background()
	e := domain.ContentEntry{Hash: "h1", Format: domain.FormatNone, Text: "original"}
	if err := c.Upsert(ctx, e); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	e.Text = "overwrite attempt"
	if err := c.Upsert(ctx, e); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := c.Find(ctx, "h1", domain.FormatNone)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Text != "original" {
		t.Fatalf("first write must win, got %q", got.Text)
	}
}

func TestContents_DeleteIfUnreferenced(t *testing.T) {
	r := NewPasteRepository()
	ctx := context.Background()
	p := insertPaste(t, r, "refshare", "body", t0)
	c := r.Contents()
	deleted, err := c.DeleteIfUnreferenced(ctx, p.Hash)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted {
		t.Fatalf("content referenced by a live paste must not be deleted")
	}
	orphan := domain.ContentEntry{Hash: "orphan", Format: domain.FormatNone, Text: "nobody"}
	if err := c.Upsert(ctx, orphan); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	deleted, err = c.DeleteIfUnreferenced(ctx, "orphan")
	if err != nil || !deleted {
		t.Fatalf("orphan content should be deleted: %v %v", deleted, err)
	}
}

func TestPurge_RemovesVersionsAndOrphanedContent(t *testing.T) {
	r := NewPasteRepository()
	ctx := context.Background()
	p := insertPaste(t, r, "purgeme1", "unique body", t0)
	if _, err := r.Purge(ctx, p.ID, domain.RemovalAdminRemoved, "spam", t0); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n, _ := r.Count(ctx, p.ID); n != 0 {
		t.Fatalf("purge must drop version rows, got %d", n)
	}
	if n := r.ContentCount(p.Hash, domain.FormatNone); n != 0 {
		t.Fatalf("purge must drop orphaned content, got %d", n)
	}
	got, err := r.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("envelope must survive: %v", err)
	}
	if !got.Deleted || got.RemovalReason != "spam" {
		t.Fatalf("envelope state wrong: %+v", got)
	}
}
