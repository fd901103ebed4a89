package backfill

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/vaultid/internal/exclude"
	"github.com/starford/vaultid/internal/metrics"
	"github.com/starford/vaultid/internal/models"
	"github.com/starford/vaultid/internal/parser"
	"github.com/starford/vaultid/internal/settings"
)

// Assign gives doc an identifier under tag and reports whether it wrote one.
//
// Ineligible documents are skipped without error. Without force, an existing
// value is never replaced, whichever scheme produced it; the condition is
// checked against the cache first and again inside the transaction, so two
// concurrent non-forced assigns write at most once.
func (s *Service) Assign(ctx context.Context, doc models.Document, tag string, force bool, prefixes []string) (bool, error) {
	if !exclude.Eligible(doc, prefixes) {
		return false, nil
	}
	if _, err := s.schemes.Lookup(tag); err != nil {
		return false, err
	}

	if !force {
		fm, err := s.cache.Frontmatter(doc.Path)
		if err != nil {
			s.logger.Warn("assign: cache read failed", slog.String("path", doc.Path), slog.String("error", err.Error()))
		} else if parser.HasValue(fm, tag) {
			s.metrics.Assign(tag, metrics.ResultSkipped)
			return false, nil
		}
	}

	changed, err := s.editor.Edit(ctx, doc.Path, func(fm *parser.Frontmatter) error {
		if !force && fm.Has(tag) {
			return nil
		}
		id, err := s.schemes.Generate(tag)
		if err != nil {
			return err
		}
		fm.Set(tag, id)
		return nil
	})
	if err != nil {
		s.metrics.Assign(tag, metrics.ResultFailed)
		return false, fmt.Errorf("backfill: assign %s: %w", doc.Path, err)
	}
	if !changed {
		s.metrics.Assign(tag, metrics.ResultSkipped)
		return false, nil
	}

	s.metrics.Assign(tag, metrics.ResultChanged)
	s.logger.Info("assign: id written",
		slog.String("path", doc.Path),
		slog.String("scheme", tag),
		slog.Bool("force", force))
	return true, nil
}

// AssignPath resolves path in the store and assigns the configured scheme.
// It backs the "add or refresh id for this note" command.
func (s *Service) AssignPath(ctx context.Context, path string, force bool, st settings.Settings) (bool, error) {
	doc, err := s.docs.Stat(path)
	if err != nil {
		return false, err
	}
	return s.Assign(ctx, doc, st.IDType, force, st.ExcludePaths)
}

// HandleCreated reacts to a newly created note: when auto-assign is on, the
// note gets an identifier unless it already has one.
func (s *Service) HandleCreated(ctx context.Context, path string, st settings.Settings) (bool, error) {
	if !st.AutoAssignOnCreate {
		return false, nil
	}
	return s.Assign(ctx, models.NewDocument(path), st.IDType, false, st.ExcludePaths)
}
