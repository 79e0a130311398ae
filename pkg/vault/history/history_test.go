package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := New(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)
	return h
}

func TestNew_EmptyDir(t *testing.T) {
	t.Parallel()

	_, err := New("")
	assert.Error(t, err)
}

func TestLog(t *testing.T) {
	t.Parallel()

	h := setupTestHistory(t)
	entry := &Entry{
		Operation: OpExport,
		Package:   "Hero",
		Success:   true,
		Files: []FileRecord{
			{Path: "/v/StaticMesh/Hero/1.0/Hero.uasset", Size: 100},
			{Path: "/v/StaticMesh/Hero/1.0/Hero.uexp", Size: 50},
		},
	}
	require.NoError(t, h.Log(entry))

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Equal(t, int64(2), entry.Summary.TotalFiles)
	assert.Equal(t, int64(150), entry.Summary.TotalBytes)

	files, err := os.ReadDir(h.Dir())
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestList_NewestFirst(t *testing.T) {
	t.Parallel()

	h := setupTestHistory(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, op := range []Operation{OpExport, OpImport, OpDelete} {
		ts := base.Add(time.Duration(i) * time.Hour)
		h.now = func() time.Time { return ts }
		require.NoError(t, h.Log(&Entry{Operation: op}))
	}

	entries, err := h.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, OpDelete, entries[0].Operation)
	assert.Equal(t, OpExport, entries[2].Operation)

	limited, err := h.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestList_MissingDir(t *testing.T) {
	t.Parallel()

	h := setupTestHistory(t)
	entries, err := h.List(10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestList_SkipsCorruptFiles(t *testing.T) {
	t.Parallel()

	h := setupTestHistory(t)
	require.NoError(t, h.Log(&Entry{Operation: OpImport}))
	require.NoError(t, os.WriteFile(filepath.Join(h.Dir(), "junk.json"), []byte("{"), 0o644))

	entries, err := h.List(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGet(t *testing.T) {
	t.Parallel()

	h := setupTestHistory(t)
	entry := &Entry{Operation: OpDelete, Package: "Door"}
	require.NoError(t, h.Log(entry))

	got, err := h.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Door", got.Package)

	got, err = h.Get(entry.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)

	_, err = h.Get("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.Get("")
	assert.Error(t, err)
}

func TestCleanup(t *testing.T) {
	t.Parallel()

	h := setupTestHistory(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	h.now = func() time.Time { return now.AddDate(0, 0, -40) }
	require.NoError(t, h.Log(&Entry{Operation: OpExport}))
	h.now = func() time.Time { return now.AddDate(0, 0, -1) }
	require.NoError(t, h.Log(&Entry{Operation: OpImport}))

	h.now = func() time.Time { return now }
	removed, err := h.Cleanup(30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := h.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, OpImport, entries[0].Operation)
}
