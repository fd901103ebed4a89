// Package backfill assigns, counts and bulk-converts note identifiers.
//
// The Service reads a possibly stale metadata cache for classification and
// mutates notes only through a transactional editor, re-checking every
// condition inside the transaction. Runs are sequential: one note's
// transaction completes before the next one starts.
package backfill

import (
	"context"
	"log/slog"

	"github.com/starford/vaultid/internal/editor"
	"github.com/starford/vaultid/internal/exclude"
	"github.com/starford/vaultid/internal/index"
	"github.com/starford/vaultid/internal/metrics"
	"github.com/starford/vaultid/internal/models"
	"github.com/starford/vaultid/internal/scheme"
)

// DocumentStore enumerates and resolves vault documents.
type DocumentStore interface {
	List(dir string) ([]models.Document, error)
	Stat(path string) (models.Document, error)
}

// Editor applies a mutator to one note transactionally.
type Editor interface {
	Edit(ctx context.Context, path string, mutate editor.Mutator) (bool, error)
}

// ProgressFunc receives the number of notes currently holding the scheme's
// identifier and the size of the eligible set.
type ProgressFunc func(completed, total int)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// Service implements stats, single-note assignment and bulk runs.
type Service struct {
	docs    DocumentStore
	cache   index.MetadataCache
	editor  Editor
	schemes *scheme.Registry
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewService creates a Service.
func NewService(docs DocumentStore, cache index.MetadataCache, ed Editor, schemes *scheme.Registry, opts ...Option) *Service {
	s := &Service{
		docs:    docs,
		cache:   cache,
		editor:  ed,
		schemes: schemes,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schemes returns the registry the service generates identifiers from.
func (s *Service) Schemes() *scheme.Registry {
	return s.schemes
}

// eligible lists the vault and keeps Markdown notes outside prefixes, in
// store order.
func (s *Service) eligible(prefixes []string) ([]models.Document, error) {
	docs, err := s.docs.List("")
	if err != nil {
		return nil, err
	}
	out := docs[:0:0]
	for _, d := range docs {
		if exclude.Eligible(d, prefixes) {
			out = append(out, d)
		}
	}
	return out, nil
}
