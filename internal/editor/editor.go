// Package editor implements transactional read-modify-write of a note's
// frontmatter.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/starford/vaultid/internal/apperr"
	"github.com/starford/vaultid/internal/checksum"
	"github.com/starford/vaultid/internal/index"
	"github.com/starford/vaultid/internal/parser"
	"github.com/starford/vaultid/internal/storage"
)

// Mutator edits a note's header. It runs with exclusive in-process access to
// the note and always sees the latest committed content.
type Mutator func(fm *parser.Frontmatter) error

// TransactionError reports a failed edit of one note.
type TransactionError struct {
	Path string
	Err  error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("editor: transaction on %s: %v", e.Path, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, apperr.ErrTransaction) match.
func (e *TransactionError) Is(target error) bool {
	return target == apperr.ErrTransaction
}

// Editor applies Mutators to notes in a storage.Provider.
type Editor struct {
	store  storage.Provider
	index  index.Indexer
	logger *slog.Logger
	locks  *xsync.MapOf[string, *sync.Mutex]
}

// New creates an Editor. idx may be nil; when set it is refreshed after
// every committed write.
func New(store storage.Provider, idx index.Indexer, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		store:  store,
		index:  idx,
		logger: logger,
		locks:  xsync.NewMapOf[string, *sync.Mutex](),
	}
}

func (e *Editor) lock(path string) func() {
	mu, _ := e.locks.LoadOrCompute(path, func() *sync.Mutex { return &sync.Mutex{} })
	mu.Lock()
	return mu.Unlock
}

// Edit reads path, runs mutate on its header, and writes the result back if
// the header changed. It reports whether a write happened. The write is
// refused with apperr.ErrConflict if the file changed on disk while the
// mutator ran. All failures are *TransactionError.
func (e *Editor) Edit(ctx context.Context, path string, mutate Mutator) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &TransactionError{Path: path, Err: err}
	}

	unlock := e.lock(path)
	defer unlock()

	data, err := e.store.Read(path)
	if err != nil {
		return false, &TransactionError{Path: path, Err: err}
	}
	before := checksum.Sum(data)

	note, err := parser.ParseNote(data)
	if err != nil {
		return false, &TransactionError{Path: path, Err: err}
	}
	if err := mutate(note.Frontmatter()); err != nil {
		return false, &TransactionError{Path: path, Err: err}
	}
	if !note.Frontmatter().Changed() {
		return false, nil
	}

	out, err := note.Bytes()
	if err != nil {
		return false, &TransactionError{Path: path, Err: err}
	}

	current, err := e.store.Read(path)
	if err != nil {
		return false, &TransactionError{Path: path, Err: err}
	}
	if checksum.Sum(current) != before {
		return false, &TransactionError{Path: path, Err: apperr.ErrConflict}
	}
	if err := e.store.Write(path, out); err != nil {
		return false, &TransactionError{Path: path, Err: err}
	}

	if e.index != nil {
		if err := e.index.IndexFile(path, out); err != nil {
			e.logger.Warn("editor: reindex failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	e.logger.Debug("editor: committed", slog.String("path", path))
	return true, nil
}
