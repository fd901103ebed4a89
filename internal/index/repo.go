package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/vaultid/internal/checksum"
	"github.com/starford/vaultid/internal/parser"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path        string
	Title       string
	Checksum    string
	Frontmatter map[string]any
	UpdatedAt   time.Time
}

// UpsertNote inserts or replaces a note's snapshot.
func (db *DB) UpsertNote(n NoteRow) error {
	fm := n.Frontmatter
	if fm == nil {
		fm = map[string]any{}
	}
	fmJSON, err := json.Marshal(fm)
	if err != nil {
		return fmt.Errorf("index: encode frontmatter %s: %w", n.Path, err)
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now()
	}

	_, err = db.conn.Exec(`
		INSERT INTO notes (path, title, checksum, frontmatter, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title       = excluded.title,
			checksum    = excluded.checksum,
			frontmatter = excluded.frontmatter,
			updated_at  = excluded.updated_at
	`, n.Path, n.Title, n.Checksum, string(fmJSON), n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}
	db.cache.Remove(n.Path)
	return nil
}

// IndexFile parses data and upserts its snapshot.
func (db *DB) IndexFile(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return db.UpsertNote(NoteRow{
		Path:        path,
		Title:       res.Title,
		Checksum:    checksum.Sum(data),
		Frontmatter: res.Frontmatter,
	})
}

// DeleteNote removes a note's snapshot.
func (db *DB) DeleteNote(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	db.cache.Remove(path)
	return nil
}

// Frontmatter returns the cached header of path, nil when unknown and an empty
// map for an indexed note without one.
func (db *DB) Frontmatter(path string) (map[string]any, error) {
	if fm, ok := db.cache.Get(path); ok {
		return fm, nil
	}
	var raw string
	err := db.conn.QueryRow(`SELECT frontmatter FROM notes WHERE path = ?`, path).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: frontmatter %s: %w", path, err)
	}
	fm := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &fm); err != nil {
		return nil, fmt.Errorf("index: decode frontmatter %s: %w", path, err)
	}
	db.cache.Add(path, fm)
	return fm, nil
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum %s: %w", path, err)
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
