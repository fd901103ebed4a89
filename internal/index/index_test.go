package index

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/vaultid/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "vaultid-test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:        "hello.md",
		Title:       "Hello World",
		Checksum:    "abc123",
		Frontmatter: map[string]any{"uuid": "x"},
	}
	if err := db.UpsertNote(row); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestFrontmatter_RoundTripAndInvalidation(t *testing.T) {
	db := testDB(t)
	if err := db.IndexFile("n.md", []byte("---\nuuid: first\ncount: 3\n---\nbody")); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	fm, err := db.Frontmatter("n.md")
	if err != nil {
		t.Fatalf("Frontmatter: %v", err)
	}
	if fm["uuid"] != "first" {
		t.Errorf("uuid = %v, want first", fm["uuid"])
	}

	// The second read is served from the LRU; a re-index must invalidate it.
	_, _ = db.Frontmatter("n.md")
	if err := db.IndexFile("n.md", []byte("---\nuuid: second\n---\nbody")); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	fm, _ = db.Frontmatter("n.md")
	if fm["uuid"] != "second" {
		t.Errorf("stale cache: uuid = %v, want second", fm["uuid"])
	}
}

func TestFrontmatter_Unknown(t *testing.T) {
	db := testDB(t)
	fm, err := db.Frontmatter("missing.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm != nil {
		t.Errorf("expected nil frontmatter, got %v", fm)
	}
}

func TestFrontmatter_NestedNonStringKeys(t *testing.T) {
	db := testDB(t)
	if err := db.IndexFile("a.md", []byte("---\nuuid: abc\nmeta:\n  1: x\n---\nbody\n")); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	fm, err := db.Frontmatter("a.md")
	if err != nil {
		t.Fatalf("Frontmatter: %v", err)
	}
	if fm["uuid"] != "abc" {
		t.Errorf("uuid = %v, want abc", fm["uuid"])
	}
	meta, ok := fm["meta"].(map[string]any)
	if !ok || meta["1"] != "x" {
		t.Errorf("meta = %#v", fm["meta"])
	}
}

func TestFrontmatter_HeaderlessNoteIsKnown(t *testing.T) {
	db := testDB(t)
	if err := db.IndexFile("plain.md", []byte("# plain\n")); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	db.cache.Purge()
	fm, err := db.Frontmatter("plain.md")
	if err != nil {
		t.Fatalf("Frontmatter: %v", err)
	}
	if fm == nil || len(fm) != 0 {
		t.Errorf("frontmatter = %#v, want empty non-nil map", fm)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.IndexFile("del.md", []byte("---\nuuid: a\n---\n"))
	_, _ = db.Frontmatter("del.md")

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if cs, _ := db.GetChecksum("del.md"); cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	if fm, _ := db.Frontmatter("del.md"); fm != nil {
		t.Errorf("deleted note still cached: %v", fm)
	}
}

func TestSync_IndexesAndPrunes(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("a.md", []byte("---\nuuid: a\n---\n"))
	_ = store.Write("b.txt", []byte("not a note"))
	_ = db.UpsertNote(NoteRow{Path: "gone.md", Checksum: "old"})

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	sums, _ := db.AllChecksums()
	if len(sums) != 1 {
		t.Fatalf("indexed = %v, want only a.md", sums)
	}
	if _, ok := sums["a.md"]; !ok {
		t.Errorf("a.md not indexed")
	}
}
