package index

import (
	"log/slog"

	"github.com/starford/vaultid/internal/models"
	"github.com/starford/vaultid/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed notes are parsed and upserted
//   - notes removed from disk are deleted from the index
func Sync(db NoteIndex, store storage.Provider, logger *slog.Logger) error {
	docs, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(docs))
	indexed := 0
	for _, d := range docs {
		if d.Extension != models.MarkdownExt {
			continue
		}
		disk[d.Path] = struct{}{}

		if checksums[d.Path] == d.Checksum {
			continue
		}

		data, err := store.Read(d.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", d.Path), slog.String("error", err.Error()))
			continue
		}
		if err := db.IndexFile(d.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", d.Path), slog.String("error", err.Error()))
			continue
		}
		indexed++
		logger.Debug("sync: indexed", slog.String("path", d.Path))
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	logger.Info("sync: complete", slog.Int("notes", len(disk)), slog.Int("indexed", indexed))
	return nil
}
