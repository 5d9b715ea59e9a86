package gormstorage

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "kv.db")), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	b := New(db)
	require.NoError(t, b.Init())
	t.Cleanup(func() { b.Close() })
	return b
}

func TestInit_NoDB(t *testing.T) {
	assert.Error(t, New(nil).Init())
}

func TestInit_CreatesTable(t *testing.T) {
	b := newTestBackend(t)
	assert.True(t, b.DB().Migrator().HasTable(&Entry{}))
}

func TestSaveLoad(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Save("quakeph_drawings", []byte(`[{"id":1}]`)))

	v, err := b.Load("quakeph_drawings")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(v))
}

func TestSave_Upserts(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Save("k", []byte(`[1]`)))
	require.NoError(t, b.Save("k", []byte(`[1,2]`)))
	require.NoError(t, b.Save("k", []byte(`[]`)))

	v, err := b.Load("k")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(v))

	var count int64
	require.NoError(t, b.DB().Model(&Entry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	rev, err := b.Revision("k")
	require.NoError(t, err)
	assert.Equal(t, uint(3), rev)
}

func TestLoad_Missing(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.Load("missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	rev, err := b.Revision("missing")
	require.NoError(t, err)
	assert.Zero(t, rev)
}

func TestDelete(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Save("k", []byte(`[]`)))
	require.NoError(t, b.Delete("k"))
	require.NoError(t, b.Delete("k"))

	_, err := b.Load("k")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
