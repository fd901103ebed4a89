package backfill

import (
	"context"
	"fmt"

	"github.com/starford/vaultid/internal/models"
	"github.com/starford/vaultid/internal/parser"
)

// Stats counts, for every registered scheme, the eligible notes carrying a
// value under that scheme's key. A note with several schemes counts toward
// each of them and once toward Total. The result is a snapshot; call again
// to observe later changes.
func (s *Service) Stats(ctx context.Context, prefixes []string) (models.NoteStats, error) {
	tags := s.schemes.Tags()
	stats := models.NoteStats{Counts: make(map[string]int, len(tags))}
	for _, tag := range tags {
		stats.Counts[tag] = 0
	}

	docs, err := s.eligible(prefixes)
	if err != nil {
		return models.NoteStats{}, fmt.Errorf("backfill: stats: %w", err)
	}
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return models.NoteStats{}, err
		}
		stats.Total++
		fm, err := s.cache.Frontmatter(d.Path)
		if err != nil {
			return models.NoteStats{}, fmt.Errorf("backfill: stats: %w", err)
		}
		if fm == nil {
			stats.Unindexed++
			continue
		}
		for _, tag := range tags {
			if parser.HasValue(fm, tag) {
				stats.Counts[tag]++
			}
		}
	}
	return stats, nil
}
