// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/vaultid/internal/models"

// Provider is the interface for vault file operations. All paths are
// slash-separated and relative to the vault root.
type Provider interface {
	// List returns every file under dir in walk order. Hidden directories are skipped.
	List(dir string) ([]models.Document, error)
	// Stat returns the document at path, or an error matching apperr.ErrNotFound.
	Stat(path string) (models.Document, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path.
	Write(path string, content []byte) error
	// Create writes a new file, failing with apperr.ErrAlreadyExists if path exists.
	Create(path string, content []byte) error
}
