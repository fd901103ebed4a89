package index

// MetadataCache is the read side consumed by stats and bulk classification.
// The snapshot may be stale; writers go through the editor instead.
type MetadataCache interface {
	// Frontmatter returns the cached header of path, or nil when the note is
	// unknown. An indexed note without a header yields an empty map.
	Frontmatter(path string) (map[string]any, error)
}

// Indexer refreshes the cache entry of one note from its raw content.
type Indexer interface {
	IndexFile(path string, data []byte) error
}

// NoteIndex is the full index surface.
type NoteIndex interface {
	MetadataCache
	Indexer
	UpsertNote(n NoteRow) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
