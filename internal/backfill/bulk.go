package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/vaultid/internal/metrics"
	"github.com/starford/vaultid/internal/models"
	"github.com/starford/vaultid/internal/parser"
)

// candidate is one eligible note as seen by the snapshot. An unindexed note
// has no snapshot; its transaction decides from the file alone.
type candidate struct {
	doc       models.Document
	hasID     bool
	unindexed bool
}

// progress forwards reports only when the rounded percentage changes. The
// first report always goes through.
type progress struct {
	fn      ProgressFunc
	last    int
	started bool
}

func (p *progress) report(completed, total int) {
	if p.fn == nil {
		return
	}
	pct := models.Percent(completed, total)
	if p.started && pct == p.last {
		return
	}
	p.started = true
	p.last = pct
	p.fn(completed, total)
}

// Run adds or removes tag's identifier across every eligible note.
//
// Which notes hold the identifier is snapshotted from the cache once, before
// any mutation. Each note is then edited in its own transaction, which only
// writes if the snapshot and the live header agree: add needs both to lack
// the key, remove needs both to have it. Progress counts notes currently
// holding the identifier and is reported once up front and then only when
// its rounded percentage changes.
//
// A note missing from the cache is not assumed to lack the identifier: its
// transaction checks the file itself.
//
// A failed transaction is recorded in the result and the run continues.
// Cancelling ctx stops the run between notes; the partial result is
// returned together with ctx.Err().
func (s *Service) Run(ctx context.Context, prefixes []string, tag string, op models.Operation, onProgress ProgressFunc) (models.BulkResult, error) {
	result := models.BulkResult{Operation: op, Scheme: tag, Failed: []models.Failure{}}
	if !op.Valid() {
		return result, fmt.Errorf("backfill: unknown operation %q", op)
	}
	if _, err := s.schemes.Lookup(tag); err != nil {
		return result, err
	}

	docs, err := s.eligible(prefixes)
	if err != nil {
		return result, fmt.Errorf("backfill: run: %w", err)
	}
	candidates := make([]candidate, 0, len(docs))
	completed, unindexed := 0, 0
	for _, d := range docs {
		fm, err := s.cache.Frontmatter(d.Path)
		if err != nil {
			return result, fmt.Errorf("backfill: run: %w", err)
		}
		if fm == nil {
			unindexed++
			s.logger.Warn("bulk: note not indexed, reading it directly", slog.String("path", d.Path))
			candidates = append(candidates, candidate{doc: d, unindexed: true})
			continue
		}
		has := parser.HasValue(fm, tag)
		if has {
			completed++
		}
		candidates = append(candidates, candidate{doc: d, hasID: has})
	}

	total := len(candidates)
	result.Total = total
	start := time.Now()
	s.logger.Info("bulk: started",
		slog.String("scheme", tag),
		slog.String("operation", string(op)),
		slog.Int("total", total),
		slog.Int("with_id", completed),
		slog.Int("unindexed", unindexed))

	p := &progress{fn: onProgress}
	p.report(completed, total)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("bulk: cancelled",
				slog.String("scheme", tag),
				slog.String("operation", string(op)),
				slog.Int("changed", result.Changed))
			s.metrics.BulkDuration(tag, string(op), time.Since(start))
			return result, err
		}

		applied, err := s.apply(ctx, c, tag, op)
		if err != nil {
			result.Failed = append(result.Failed, models.Failure{Path: c.doc.Path, Err: err.Error()})
			s.metrics.BulkDocument(tag, string(op), metrics.ResultFailed)
			s.logger.Warn("bulk: document failed", slog.String("path", c.doc.Path), slog.String("error", err.Error()))
			continue
		}
		if !applied {
			s.metrics.BulkDocument(tag, string(op), metrics.ResultSkipped)
			continue
		}

		result.Changed++
		switch {
		case op == models.OperationAdd:
			completed++
		case c.hasID:
			completed--
		}
		s.metrics.BulkDocument(tag, string(op), metrics.ResultChanged)
		p.report(completed, total)
	}

	s.metrics.BulkDuration(tag, string(op), time.Since(start))
	s.logger.Info("bulk: complete",
		slog.String("scheme", tag),
		slog.String("operation", string(op)),
		slog.Int("changed", result.Changed),
		slog.Int("failed", len(result.Failed)),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

// apply runs one note's transaction and reports whether it mutated the note.
func (s *Service) apply(ctx context.Context, c candidate, tag string, op models.Operation) (bool, error) {
	applied := false
	_, err := s.editor.Edit(ctx, c.doc.Path, func(fm *parser.Frontmatter) error {
		switch {
		case op == models.OperationAdd && !c.hasID && !fm.Has(tag):
			id, err := s.schemes.Generate(tag)
			if err != nil {
				return err
			}
			fm.Set(tag, id)
			applied = true
		case op == models.OperationRemove && (c.hasID || c.unindexed) && fm.Has(tag):
			fm.Delete(tag)
			applied = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
