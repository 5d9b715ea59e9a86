// internal/storage/storage.go
package storage

import "io/fs"

// ErrNotExist is returned by Load when no value is stored under the key.
// Backends return fs.ErrNotExist (possibly wrapped) so they need not import
// this package.
var ErrNotExist = fs.ErrNotExist

// Backend is the interface all storage implementations must satisfy.
// Values are opaque blobs; every Save overwrites the whole value.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	Load(key string) ([]byte, error)
	Save(key string, value []byte) error
	Delete(key string) error
}
