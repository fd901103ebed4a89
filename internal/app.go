package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/starford/vaultid/internal/backfill"
	"github.com/starford/vaultid/internal/editor"
	"github.com/starford/vaultid/internal/index"
	"github.com/starford/vaultid/internal/metrics"
	"github.com/starford/vaultid/internal/noteservice"
	"github.com/starford/vaultid/internal/scheme"
	"github.com/starford/vaultid/internal/settings"
	"github.com/starford/vaultid/internal/storage"
)

// App holds the wired components shared by the server and the CLI commands.
type App struct {
	Store    *storage.FS
	DB       *index.DB
	Registry *prometheus.Registry
	Service  *noteservice.Service
}

// Open prepares the vault, opens and syncs the metadata index and wires the
// identifier services. notifier may be nil.
func Open(cfg *Config, logger *slog.Logger, notifier noteservice.Notifier) (*App, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	schemes := scheme.Default()
	reg := prometheus.NewRegistry()
	engine := backfill.NewService(store, db, editor.New(store, db, logger), schemes,
		backfill.WithLogger(logger),
		backfill.WithMetrics(metrics.New(reg)),
	)
	settingsStore := settings.NewStore(cfg.SettingsPath(), schemes)

	return &App{
		Store:    store,
		DB:       db,
		Registry: reg,
		Service:  noteservice.NewService(engine, settingsStore, notifier, logger),
	}, nil
}

// Close releases the index.
func (a *App) Close() error {
	return a.DB.Close()
}
