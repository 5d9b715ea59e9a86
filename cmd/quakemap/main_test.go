package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quakeFeed = `{"type":"FeatureCollection","features":[
  {"type":"Feature","id":"us1","properties":{"mag":4.2,"place":"Davao Occidental","time":1777593600000,"status":"reviewed"},"geometry":{"type":"Point","coordinates":[125.5,5.9,60]}},
  {"type":"Feature","id":"us2","properties":{"mag":6.1,"place":"Surigao del Sur","time":1777590000000,"status":"reviewed"},"geometry":{"type":"Point","coordinates":[126.3,8.9,15]}}
]}`

const faultFeed = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"Name":"PS-SU"},"geometry":{"type":"LineString","coordinates":[[125.1,6.0],[125.9,7.2]]}}
]}`

type testDirs struct {
	config string
	data   string
	export string
}

func newConfig(t *testing.T) testDirs {
	t.Helper()
	t.Cleanup(viper.Reset)

	mux := http.NewServeMux()
	mux.HandleFunc("/quakes", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(quakeFeed)) })
	mux.HandleFunc("/faults", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(faultFeed)) })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	root := t.TempDir()
	dirs := testDirs{
		config: root,
		data:   filepath.Join(root, "data"),
		export: filepath.Join(root, "export"),
	}
	require.NoError(t, os.MkdirAll(dirs.export, 0755))

	cfg := map[string]any{
		"logLevel": "debug",
		"logsDir":  filepath.Join(root, "logs"),
		"storage": map[string]any{
			"type": "file",
			"file": map[string]any{"dir": dirs.data},
		},
		"export": map[string]any{"dir": dirs.export},
		"feed": map[string]any{
			"quakesUrl":        srv.URL + "/quakes",
			"faultsUrl":        srv.URL + "/faults",
			"manualRefreshGap": "0s",
		},
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "quakemap.cfg.json"), data, 0644))
	return dirs
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out)
	return out.String(), err
}

const script = `# rectangle then a text label
tool rectangle
down 14.60,120.98
move 14.62,121.00
up 14.62,121.00

tool text
click 14.55,121.03
text "Epicenter near Manila"
bogus
`

func TestRun_Version(t *testing.T) {
	out, err := runCLI(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "quakemap dev")
}

func TestRun_Usage(t *testing.T) {
	_, err := runCLI(t, "")
	assert.ErrorIs(t, err, errUsage)

	dirs := newConfig(t)
	_, err = runCLI(t, "", "-c", dirs.config, "dance")
	assert.ErrorIs(t, err, errUsage)
}

func TestRun_ReplayPersistsAndLists(t *testing.T) {
	dirs := newConfig(t)

	out, err := runCLI(t, script, "-c", dirs.config, "replay", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "-:10: :BOGUS:")
	assert.Contains(t, out, "Rectangle 1")
	assert.Contains(t, out, "Text 1")
	assert.Contains(t, out, "8 commands, 1 failed")

	viper.Reset()
	out, err = runCLI(t, "", "-c", dirs.config, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Rectangle 1")
	assert.Contains(t, out, "Epicenter near Manila")
}

func TestRun_ReplayFromFile(t *testing.T) {
	dirs := newConfig(t)
	path := filepath.Join(dirs.config, "draw.txt")
	require.NoError(t, os.WriteFile(path, []byte("tool marker\nclick 14.5,121\n"), 0644))

	out, err := runCLI(t, "", "-c", dirs.config, "replay", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Marker 1")
	assert.Contains(t, out, "2 commands, 0 failed")
}

func TestRun_ReplayMissingScript(t *testing.T) {
	dirs := newConfig(t)
	_, err := runCLI(t, "", "-c", dirs.config, "replay", filepath.Join(dirs.config, "nope.txt"))
	assert.Error(t, err)
}

func TestRun_ListEmpty(t *testing.T) {
	dirs := newConfig(t)
	out, err := runCLI(t, "", "-c", dirs.config, "--storage", "memory", "list")
	require.NoError(t, err)
	assert.Equal(t, "No drawings\n", out)
}

func TestRun_Export(t *testing.T) {
	dirs := newConfig(t)
	_, err := runCLI(t, "tool marker\nclick 14.5,121\n", "-c", dirs.config, "replay", "-")
	require.NoError(t, err)

	viper.Reset()
	out, err := runCLI(t, "", "-c", dirs.config, "export")
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, dirs.export, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "quakeph_drawings_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FeatureCollection")
}

func TestRun_Quakes(t *testing.T) {
	dirs := newConfig(t)
	out, err := runCLI(t, "", "-c", dirs.config, "--storage", "memory", "quakes")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "M6.1")
	assert.Contains(t, lines[0], "Surigao del Sur")
	assert.Contains(t, lines[1], "M4.2")
}

func TestRun_ClearNeedsConfirmation(t *testing.T) {
	dirs := newConfig(t)
	_, err := runCLI(t, "tool marker\nclick 14.5,121\n", "-c", dirs.config, "replay", "-")
	require.NoError(t, err)

	viper.Reset()
	out, err := runCLI(t, "clear\n", "-c", dirs.config, "replay", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Marker 1", "declined clear keeps the drawing")

	viper.Reset()
	out, err = runCLI(t, "clear\n", "-c", dirs.config, "--yes", "replay", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "All drawings cleared")
	assert.Contains(t, out, "No drawings")
}
