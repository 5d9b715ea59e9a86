package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFile(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		prefix  string
		ext     string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "logs",
			prefix:  "quakemap",
			ext:     "log",
			want:    filepath.Join("logs", "quakemap.20260212_213836.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./logs",
			prefix:  "quakemap.otel",
			ext:     "log",
			want:    filepath.Join(".", "logs", "quakemap.otel.20260212_213836.log"),
		},
		{
			name:    "compound extension with leading dot",
			logsDir: filepath.Join("/var", "log", "quakeph"),
			prefix:  "quakemap.influx",
			ext:     ".lp.gz",
			want:    filepath.Join("/var", "log", "quakeph", "quakemap.influx.20260212_213836.lp.gz"),
		},
		{
			name:    "blank name uses service name",
			logsDir: "logs",
			prefix:  "  ",
			ext:     "log",
			want:    filepath.Join("logs", "quakemap.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SessionFile(tt.logsDir, tt.prefix, tt.ext, sessionStart))
		})
	}
}

func TestSessionFile_UsesUTC(t *testing.T) {
	pht := time.FixedZone("PHT", 8*3600)
	start := time.Date(2026, 10, 18, 7, 30, 0, 0, pht)

	assert.Equal(t, filepath.Join("logs", "quakemap.20261017_233000.log"), SessionFile("logs", "quakemap", "log", start))
}

func TestOpenSessionLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	f, err := OpenSessionLog(dir, "quakemap", start)
	require.NoError(t, err)
	_, err = f.WriteString("first\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// A second open in the same session appends.
	f, err = OpenSessionLog(dir, "quakemap", start)
	require.NoError(t, err)
	_, err = f.WriteString("second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(filepath.Join(dir, "quakemap.20260212_213836.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}
