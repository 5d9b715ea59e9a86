package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SessionFile names a per-session file inside dir. The timestamp is taken
// in UTC so files from one run sort together regardless of the host zone.
// An empty name falls back to ServiceName.
func SessionFile(dir, name, ext string, sessionStart time.Time) string {
	name = strings.Trim(strings.TrimSpace(name), ".")
	if name == "" {
		name = ServiceName
	}
	ext = strings.TrimPrefix(ext, ".")
	return filepath.Join(dir, fmt.Sprintf("%s.%s.%s", name, sessionStart.UTC().Format("20060102_150405"), ext))
}

// OpenSessionLog creates dir if needed and opens the session's .log file
// for appending.
func OpenSessionLog(dir, name string, sessionStart time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}
	path := SessionFile(dir, name, "log", sessionStart)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	return f, nil
}
