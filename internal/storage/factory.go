// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/quakeph/quakemap/internal/config"
	"github.com/quakeph/quakemap/internal/storage/file"
	"github.com/quakeph/quakemap/internal/storage/memory"
	"github.com/quakeph/quakemap/internal/storage/postgres"
	sqlitestorage "github.com/quakeph/quakemap/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, db config.DBConfig, log *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(postgres.Config{DSN: db.DSN(), FallbackPath: cfg.SQLite.DumpPath}, log), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			Path:         cfg.SQLite.Path,
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, log)
	case "file":
		return file.New(cfg.File), nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
