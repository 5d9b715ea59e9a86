// Package postgres implements the storage.Backend interface on PostgreSQL via
// GORM. When postgres cannot be reached the connection manager falls back to
// a local SQLite file.
package postgres

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/quakeph/quakemap/internal/database"
	gormstorage "github.com/quakeph/quakemap/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Config holds configuration for the postgres storage backend.
type Config struct {
	DSN          string
	FallbackPath string // local SQLite file used when postgres is unreachable
}

// Backend stores values in postgres through the GORM backend.
type Backend struct {
	*gormstorage.Backend
	cfg     Config
	manager *database.Manager
	log     *slog.Logger
}

// New creates a new postgres storage backend. The connection is opened in Init.
func New(cfg Config, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	zl := zerolog.New(os.Stderr).With().Timestamp().Str("component", "database").Logger()
	return &Backend{
		cfg:     cfg,
		manager: database.NewManager(zl, cfg.FallbackPath),
		log:     log,
	}
}

// Init connects, migrates the schema and wires the GORM backend.
func (b *Backend) Init() error {
	if err := b.manager.Connect(b.cfg.DSN); err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := b.manager.Setup(&gormstorage.Entry{}); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	if b.manager.ShouldSaveLocal {
		b.log.Warn("Postgres unavailable, storing annotations in local SQLite", "path", b.cfg.FallbackPath)
	}

	b.Backend = gormstorage.New(b.manager.DB)
	return b.Backend.Init()
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	return b.manager.Close()
}

// Local reports whether the backend fell back to SQLite.
func (b *Backend) Local() bool {
	return b.manager.ShouldSaveLocal
}
