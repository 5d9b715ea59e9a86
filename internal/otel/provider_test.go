package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutOutputs(t *testing.T) {
	_, err := New(Config{Enabled: true})
	assert.Error(t, err)
}

func TestNew_WritesLogsToWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{Enabled: true, LogWriter: &buf, BatchTimeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())
	assert.Equal(t, DefaultServiceName, p.config.ServiceName)

	logger := otelslog.NewLogger("test", otelslog.WithLoggerProvider(p.LoggerProvider()))
	logger.Info("drawing committed", "id", 1)

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, buf.String(), "drawing committed")
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestMeter_NotNil(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)
	assert.NotNil(t, p.Meter("quakemap"))
}

func TestResourceAttrs(t *testing.T) {
	attrs := resourceAttrs(Config{ServiceName: "quakemap", Version: "1.4.0", StorageType: "sqlite", SessionID: "s-1"})

	got := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		got[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, map[string]string{
		"service.name":          "quakemap",
		"service.version":       "1.4.0",
		"service.instance.id":   "s-1",
		"quakemap.storage.type": "sqlite",
	}, got)

	assert.Len(t, resourceAttrs(Config{ServiceName: "quakemap"}), 1, "unset fields are omitted")
}

func TestNew_ExportsResourceAttributes(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{Enabled: true, LogWriter: &buf, BatchTimeout: time.Second, Version: "1.4.0", StorageType: "file"})
	require.NoError(t, err)

	logger := otelslog.NewLogger("test", otelslog.WithLoggerProvider(p.LoggerProvider()))
	logger.Info("Storage backend initialized")

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, buf.String(), "quakemap.storage.type")
	assert.Contains(t, buf.String(), "1.4.0")
	require.NoError(t, p.Shutdown(context.Background()))
}
