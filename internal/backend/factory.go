package backend

import (
	"fmt"

	"famledger/internal/config"
	applog "famledger/internal/log"
	"famledger/internal/repo"
	"famledger/internal/repo/memory"
	"famledger/internal/storage"
)

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result contains the store instance and optional cleanup function.
type Result struct {
	Store   repo.Store
	Cleanup CleanupFunc
}

// Open builds the persistence store selected by DATA_BACKEND.
func Open(cfg *config.Config, logger *applog.Logger) (*Result, error) {
	logger = logger.WithComponent(applog.ComponentBackend)

	switch cfg.DataBackend {
	case "sqlite":
		sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		logger.Info("initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: sqliteRepo, Cleanup: sqliteRepo.Close}, nil
	case "memory":
		logger.Info("initialized memory backend")
		return &Result{Store: memory.New()}, nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
