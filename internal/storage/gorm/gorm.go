// Package gormstorage implements the storage.Backend interface on any GORM
// dialect. Each key is one row; Save upserts the row.
package gormstorage

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one stored value.
type Entry struct {
	Key       string         `gorm:"column:storage_key;primaryKey;size:191"`
	Value     datatypes.JSON `gorm:"column:value"`
	Revision  uint           `gorm:"column:revision;not null;default:0"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

// TableName sets the table name.
func (*Entry) TableName() string {
	return "annotation_blobs"
}

// Backend stores values in the annotation_blobs table.
type Backend struct {
	db *gorm.DB
}

// New creates a new GORM storage backend.
func New(db *gorm.DB) *Backend {
	return &Backend{db: db}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.db == nil {
		return fmt.Errorf("gorm backend has no database")
	}
	if err := b.db.AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close is a no-op; the owner of the connection closes it.
func (b *Backend) Close() error {
	return nil
}

// Load returns the value for key, wrapping fs.ErrNotExist when there is no row.
func (b *Backend) Load(key string) ([]byte, error) {
	var e Entry
	err := b.db.Where("storage_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load %q: %w", key, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", key, err)
	}
	return []byte(e.Value), nil
}

// Save upserts the value for key and bumps its revision.
func (b *Backend) Save(key string, value []byte) error {
	e := Entry{
		Key:       key,
		Value:     datatypes.JSON(value),
		Revision:  1,
		UpdatedAt: time.Now().UTC(),
	}
	err := b.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      e.Value,
			"updated_at": e.UpdatedAt,
			"revision":   gorm.Expr("annotation_blobs.revision + 1"),
		}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

// Delete removes the row for key. A missing row is not an error.
func (b *Backend) Delete(key string) error {
	if err := b.db.Where("storage_key = ?", key).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Revision returns how many times key has been saved, or 0 when absent.
func (b *Backend) Revision(key string) (uint, error) {
	var e Entry
	err := b.db.Select("revision").Where("storage_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return e.Revision, err
}
