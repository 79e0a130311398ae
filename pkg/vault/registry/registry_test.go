package registry

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/vault/pkg/vault/resolver"
	"github.com/jamesainslie/vault/pkg/vault/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	require.NoError(t, s.Put("/Game/Hero", []types.PackageID{"/Game/HeroMat"}))

	deps, err := s.Get("/Game/Hero")
	require.NoError(t, err)
	assert.Equal(t, []types.PackageID{"/Game/HeroMat"}, deps)

	_, err = s.Get("/Game/Nope")
	assert.ErrorIs(t, err, ErrNotFound)

	deps, err = s.GetHardDependencies(context.Background(), "/Game/Nope")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestStore_AddDependencies(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	require.NoError(t, s.AddDependencies("/Game/A", "/Game/B"))
	require.NoError(t, s.AddDependencies("/Game/A", "/Game/B", "/Game/C"))

	deps, err := s.Get("/Game/A")
	require.NoError(t, err)
	assert.Equal(t, []types.PackageID{"/Game/B", "/Game/C"}, deps)

	dependents, err := s.Dependents("/Game/C")
	require.NoError(t, err)
	assert.Equal(t, []types.PackageID{"/Game/A"}, dependents)
}

func TestStore_RegisterNodesKeepsExisting(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	require.NoError(t, s.Put("/Game/A", []types.PackageID{"/Game/B"}))
	require.NoError(t, s.RegisterNodes([]types.PackageID{"/Game/A", "/Game/New"}))

	deps, err := s.Get("/Game/A")
	require.NoError(t, err)
	assert.Equal(t, []types.PackageID{"/Game/B"}, deps)

	deps, err = s.Get("/Game/New")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestStore_ListDeleteClear(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	require.NoError(t, s.PutBatch(map[types.PackageID][]types.PackageID{
		"/Game/Chars/Hero":    nil,
		"/Game/Chars/Villain": nil,
		"/Game/Props/Crate":   nil,
	}))

	ids, err := s.List("/Game/Chars/")
	require.NoError(t, err)
	assert.Equal(t, []types.PackageID{"/Game/Chars/Hero", "/Game/Chars/Villain"}, ids)

	require.NoError(t, s.Delete("/Game/Chars/Hero"))
	ids, err = s.List("")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	require.NoError(t, s.Clear())
	ids, err = s.List("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_IndexState(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	assert.True(t, s.IsIndexReady())

	require.NoError(t, s.BeginIndexing())
	assert.False(t, s.IsIndexReady())

	_, err := resolver.Resolve(context.Background(), s, "/Game/Hero")
	assert.ErrorIs(t, err, resolver.ErrIndexNotReady)

	require.NoError(t, s.FinishIndexing())
	assert.True(t, s.IsIndexReady())
}

func TestStore_LoadYAML(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	require.NoError(t, s.Put("/Game/Stale", nil))

	doc := `
/Game/Chars/Hero:
  - /Game/Mats/HeroMat
  - /Game/Meshes/HeroMesh
/Game/Mats/HeroMat:
  - /Game/Textures/HeroTex
`
	n, err := s.LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, s.IsIndexReady())

	_, err = s.Get("/Game/Stale")
	assert.ErrorIs(t, err, ErrNotFound)

	set, err := resolver.Resolve(context.Background(), s, "/Game/Chars/Hero")
	require.NoError(t, err)
	assert.Equal(t, []types.PackageID{
		"/Game/Chars/Hero",
		"/Game/Mats/HeroMat",
		"/Game/Meshes/HeroMesh",
		"/Game/Textures/HeroTex",
	}, set.Sorted())
}

func TestStore_LoadYAML_Invalid(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	_, err := s.LoadYAML(strings.NewReader("- just\n- a list\n"))
	assert.Error(t, err)
	assert.True(t, s.IsIndexReady())
}

func TestOpen_Persists(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "index")

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("/Game/Hero", []types.PackageID{"/Game/Mat"}))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	deps, err := s.Get("/Game/Hero")
	require.NoError(t, err)
	assert.Equal(t, []types.PackageID{"/Game/Mat"}, deps)
}

func TestReadyAt(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "index")

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.BeginIndexing())

	_, err = ReadyAt(dir)
	assert.Error(t, err, "index held open by another handle")
	require.NoError(t, s.Close())

	ready, err := ReadyAt(dir)
	require.NoError(t, err)
	assert.False(t, ready)

	s, err = Open(dir)
	require.NoError(t, err, "ReadyAt releases the index")
	require.NoError(t, s.FinishIndexing())
	require.NoError(t, s.Close())

	ready, err = ReadyAt(dir)
	require.NoError(t, err)
	assert.True(t, ready)
}
