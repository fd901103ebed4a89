// Package testutil provides shared test helpers for vaults and fakes of the
// host collaborators.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/vaultid/internal/index"
	"github.com/starford/vaultid/internal/models"
	"github.com/starford/vaultid/internal/parser"
	"github.com/starford/vaultid/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "vaultid-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with an FS provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteNotes writes path -> content into store.
func WriteNotes(t *testing.T, store storage.Provider, notes map[string]string) {
	t.Helper()
	for p, c := range notes {
		if err := store.Write(p, []byte(c)); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MemIndex is an in-memory metadata cache. It only changes through IndexFile
// or Sync, so tests can make it deliberately stale.
type MemIndex struct {
	mu    sync.RWMutex
	notes map[string]map[string]any
}

// NewMemIndex returns an empty MemIndex.
func NewMemIndex() *MemIndex {
	return &MemIndex{notes: make(map[string]map[string]any)}
}

// Frontmatter implements index.MetadataCache.
func (m *MemIndex) Frontmatter(path string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notes[path], nil
}

// Forget drops path from the cache, leaving the note unindexed.
func (m *MemIndex) Forget(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notes, path)
}

// IndexFile implements index.Indexer.
func (m *MemIndex) IndexFile(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	fm := res.Frontmatter
	if fm == nil {
		fm = map[string]any{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[path] = fm
	return nil
}

// Sync indexes every Markdown document in store.
func (m *MemIndex) Sync(t *testing.T, store storage.Provider) {
	t.Helper()
	docs, err := store.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, d := range docs {
		if d.Extension != models.MarkdownExt {
			continue
		}
		data, err := store.Read(d.Path)
		if err != nil {
			t.Fatalf("read %s: %v", d.Path, err)
		}
		if err := m.IndexFile(d.Path, data); err != nil {
			t.Fatalf("index %s: %v", d.Path, err)
		}
	}
}

var (
	_ index.MetadataCache = (*MemIndex)(nil)
	_ index.Indexer       = (*MemIndex)(nil)
)

// FlakyStore wraps a Provider and fails writes to selected paths.
type FlakyStore struct {
	storage.Provider
	mu       sync.Mutex
	failing  map[string]bool
	attempts map[string]int
}

// NewFlakyStore wraps p; writes to any of failing return an error.
func NewFlakyStore(p storage.Provider, failing ...string) *FlakyStore {
	f := &FlakyStore{Provider: p, failing: map[string]bool{}, attempts: map[string]int{}}
	for _, path := range failing {
		f.failing[path] = true
	}
	return f
}

// Write fails for configured paths and delegates otherwise.
func (f *FlakyStore) Write(path string, content []byte) error {
	f.mu.Lock()
	f.attempts[path]++
	fail := f.failing[path]
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("flaky store: write %s: disk full", path)
	}
	return f.Provider.Write(path, content)
}

// Attempts returns how many writes were attempted on path.
func (f *FlakyStore) Attempts(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[path]
}
