// internal/storage/file/file.go
package file

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quakeph/quakemap/internal/config"
)

// Backend stores each key as one file in a directory, optionally gzipped.
// Writes go to a temp file that is renamed over the target so a crash never
// leaves a half-written value behind.
type Backend struct {
	cfg config.FileConfig
}

// New creates a new file backend
func New(cfg config.FileConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init ensures the output directory exists.
func (b *Backend) Init() error {
	if err := os.MkdirAll(b.cfg.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Path returns the file that holds key.
func (b *Backend) Path(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_").Replace(key)
	if b.cfg.Compress {
		return filepath.Join(b.cfg.Dir, name+".json.gz")
	}
	return filepath.Join(b.cfg.Dir, name+".json")
}

// Load reads the value for key. A missing file wraps fs.ErrNotExist.
func (b *Backend) Load(key string) ([]byte, error) {
	f, err := os.Open(b.Path(key))
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", key, err)
	}
	defer f.Close()

	var r io.Reader = f
	if b.cfg.Compress {
		gzReader, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("load %q: failed to open gzip stream: %w", key, err)
		}
		defer gzReader.Close()
		r = gzReader
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", key, err)
	}
	return data, nil
}

// Save writes the value for key.
func (b *Backend) Save(key string, value []byte) error {
	path := b.Path(key)
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if b.cfg.Compress {
		err = writeGzip(tmp, value)
	} else {
		_, err = io.Copy(tmp, bytes.NewReader(value))
	}
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %q: %w", key, err)
	}
	return nil
}

// Delete removes the file for key. A missing file is not an error.
func (b *Backend) Delete(key string) error {
	err := os.Remove(b.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func writeGzip(w io.Writer, value []byte) error {
	gzWriter := gzip.NewWriter(w)
	if _, err := gzWriter.Write(value); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}
