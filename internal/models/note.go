// Package models defines the domain types for vaultid.
package models

import (
	"math"
	"path"
	"strings"
	"time"
)

// MarkdownExt is the only document extension eligible for identifiers.
const MarkdownExt = "md"

// Document is a file in the vault. Path is slash-separated and relative to the
// vault root.
type Document struct {
	Path      string    `json:"path"`
	Extension string    `json:"extension"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDocument builds a Document for path, deriving the extension.
func NewDocument(p string) Document {
	return Document{Path: p, Extension: Extension(p)}
}

// Extension returns the extension of p without the leading dot.
func Extension(p string) string {
	return strings.TrimPrefix(path.Ext(p), ".")
}

// Operation is the kind of bulk mutation.
type Operation string

const (
	OperationAdd    Operation = "add"
	OperationRemove Operation = "remove"
)

// Valid reports whether o is a known operation.
func (o Operation) Valid() bool {
	return o == OperationAdd || o == OperationRemove
}

// NoteStats counts eligible notes per scheme. Counts holds every registered
// scheme tag, zero when no note carries it. Unindexed counts eligible notes
// the metadata cache has no entry for; they are part of Total but of no count.
type NoteStats struct {
	Counts    map[string]int `json:"counts"`
	Total     int            `json:"total"`
	Unindexed int            `json:"unindexed,omitempty"`
}

// Percent returns the share of eligible notes carrying tag, rounded.
func (s NoteStats) Percent(tag string) int {
	return Percent(s.Counts[tag], s.Total)
}

// Percent returns round(completed/total*100), or 0 when total is 0.
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// Failure records one document whose transaction failed during a bulk run.
type Failure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// BulkResult summarises one bulk run.
type BulkResult struct {
	Changed   int       `json:"changed"`
	Operation Operation `json:"operation"`
	Scheme    string    `json:"scheme"`
	Total     int       `json:"total"`
	Failed    []Failure `json:"failed"`
}
