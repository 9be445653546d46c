package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notexe/promemoria-bot/internal/config"
	"github.com/notexe/promemoria-bot/internal/logger"
	"github.com/notexe/promemoria-bot/internal/reminder"
)

// loadConfig reads the file named by the inherited --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := config.GetDefaultConfigPath()
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}

// openStore builds the configured persister and loads the store from it.
// The returned func releases the backend.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*reminder.Store, func() error, error) {
	var (
		p       reminder.Persister
		closeFn = func() error { return nil }
	)

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
		sp, err := reminder.NewSQLitePersister(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		p, closeFn = sp, sp.Close
	default:
		jp, err := reminder.NewJSONPersister(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		p = jp
	}

	store := reminder.NewStore(p, reminder.WithLogger(log.Named("store")))
	if err := store.Load(ctx); err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("load store: %w", err)
	}

	log.Info("storage opened",
		zap.String("backend", cfg.Storage.Backend),
		zap.Int("pending_reminders", store.PendingReminders()))
	return store, closeFn, nil
}

func storageLabel(cfg *config.Config) string {
	if cfg.Storage.Backend == config.BackendSQLite {
		return "sqlite " + cfg.Storage.SQLitePath
	}
	return "json " + cfg.Storage.Dir
}
