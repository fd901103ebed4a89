// Package index provides the SQLite-backed metadata cache: a per-note snapshot
// of frontmatter kept fresh by Sync and Watch.
package index

import (
	"database/sql"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path        TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT '',
	frontmatter TEXT NOT NULL DEFAULT '{}',
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DefaultCacheSize is the number of frontmatter snapshots kept in memory.
const DefaultCacheSize = 4096

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn  *sql.DB
	cache *lru.Cache[string, map[string]any]
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	cache, err := lru.New[string, map[string]any](DefaultCacheSize)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: create cache: %w", err)
	}
	return &DB{conn: conn, cache: cache}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
