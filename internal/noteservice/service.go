// Package noteservice is the entry point the HTTP, MCP and CLI surfaces share.
// It loads the persisted settings for every call and hands them to the
// identifier engine, so each operation sees one consistent Settings value.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/vaultid/internal/apperr"
	"github.com/starford/vaultid/internal/backfill"
	"github.com/starford/vaultid/internal/models"
	"github.com/starford/vaultid/internal/scheme"
	"github.com/starford/vaultid/internal/settings"
)

// Notifier receives activity for live clients. The SSE broker implements it.
type Notifier interface {
	PublishProgress(tag string, op models.Operation, completed, total int)
	PublishResult(res models.BulkResult)
	PublishNoteEvent(kind, path string)
}

type nopNotifier struct{}

func (nopNotifier) PublishProgress(string, models.Operation, int, int) {}
func (nopNotifier) PublishResult(models.BulkResult)                    {}
func (nopNotifier) PublishNoteEvent(string, string)                    {}

// SchemeInfo describes a scheme for listings.
type SchemeInfo struct {
	Tag         string `json:"tag"`
	Label       string `json:"label"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
	Active      bool   `json:"active"`
}

// StatsReport is NoteStats plus the active scheme.
type StatsReport struct {
	models.NoteStats
	Active  string `json:"active"`
	Percent int    `json:"percent"`
}

// AssignResult is the outcome of assigning an id to one note.
type AssignResult struct {
	Path     string `json:"path"`
	Scheme   string `json:"scheme"`
	Assigned bool   `json:"assigned"`
}

// Service coordinates settings, the identifier engine and notifications.
type Service struct {
	engine   *backfill.Service
	settings *settings.Store
	notifier Notifier
	logger   *slog.Logger

	bulkMu sync.Mutex
}

// NewService creates a Service. notifier may be nil.
func NewService(engine *backfill.Service, store *settings.Store, notifier Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{engine: engine, settings: store, notifier: notifier, logger: logger}
}

// Settings returns the persisted settings.
func (s *Service) Settings(_ context.Context) (settings.Settings, error) {
	return s.settings.Load()
}

// UpdateSettings validates and persists st, returning the stored form.
func (s *Service) UpdateSettings(_ context.Context, st settings.Settings) (settings.Settings, error) {
	if err := s.settings.Save(st); err != nil {
		return settings.Settings{}, err
	}
	return s.settings.Load()
}

// Schemes lists the registered schemes, flagging the active one.
func (s *Service) Schemes(ctx context.Context) ([]SchemeInfo, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	descs := s.engine.Schemes().Descriptors()
	out := make([]SchemeInfo, 0, len(descs))
	for _, d := range descs {
		out = append(out, SchemeInfo{
			Tag:         d.Tag,
			Label:       d.Label,
			Description: d.Description,
			URL:         d.URL,
			Active:      d.Tag == st.IDType,
		})
	}
	return out, nil
}

// Stats counts ids per scheme under the persisted exclusions.
func (s *Service) Stats(ctx context.Context) (StatsReport, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return StatsReport{}, err
	}
	stats, err := s.engine.Stats(ctx, st.ExcludePaths)
	if err != nil {
		return StatsReport{}, err
	}
	return StatsReport{NoteStats: stats, Active: st.IDType, Percent: stats.Percent(st.IDType)}, nil
}

// AssignNote adds an id of the active scheme to the note at path. With force
// an existing value is replaced.
func (s *Service) AssignNote(ctx context.Context, path string, force bool) (AssignResult, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return AssignResult{}, err
	}
	assigned, err := s.engine.AssignPath(ctx, path, force, st)
	if err != nil {
		return AssignResult{}, err
	}
	if assigned {
		s.notifier.PublishNoteEvent("assigned", path)
	}
	return AssignResult{Path: path, Scheme: st.IDType, Assigned: assigned}, nil
}

// Bulk runs op for tag across the vault. An empty tag means the active
// scheme. Only one run may be in flight; a second caller gets
// apperr.ErrConflict. onProgress may be nil.
func (s *Service) Bulk(ctx context.Context, tag string, op models.Operation, onProgress backfill.ProgressFunc) (models.BulkResult, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return models.BulkResult{}, err
	}
	if tag == "" {
		tag = st.IDType
	}
	if !s.engine.Schemes().Has(tag) {
		return models.BulkResult{}, &scheme.UnknownSchemeError{Tag: tag}
	}

	if !s.bulkMu.TryLock() {
		return models.BulkResult{}, fmt.Errorf("noteservice: bulk run already in progress: %w", apperr.ErrConflict)
	}
	defer s.bulkMu.Unlock()

	res, err := s.engine.Run(ctx, st.ExcludePaths, tag, op, func(completed, total int) {
		s.notifier.PublishProgress(tag, op, completed, total)
		if onProgress != nil {
			onProgress(completed, total)
		}
	})
	if err != nil && ctx.Err() == nil {
		return res, err
	}
	s.notifier.PublishResult(res)
	return res, err
}

// HandleCreated is the watcher's reaction to a new file. Settings are
// reloaded so edits made while serving take effect immediately.
func (s *Service) HandleCreated(ctx context.Context, path string) {
	s.notifier.PublishNoteEvent("created", path)

	st, err := s.Settings(ctx)
	if err != nil {
		s.logger.Warn("auto-assign: settings unavailable", slog.String("error", err.Error()))
		return
	}
	assigned, err := s.engine.HandleCreated(ctx, path, st)
	if err != nil {
		s.logger.Warn("auto-assign failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if assigned {
		s.notifier.PublishNoteEvent("assigned", path)
	}
}
