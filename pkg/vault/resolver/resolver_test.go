package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/jamesainslie/vault/pkg/vault/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRegistry struct {
	failOn types.PackageID
	graph  *Graph
}

func (f *failingRegistry) GetHardDependencies(ctx context.Context, id types.PackageID) ([]types.PackageID, error) {
	if id == f.failOn {
		return nil, errors.New("registry exploded")
	}
	return f.graph.GetHardDependencies(ctx, id)
}

func (f *failingRegistry) IsIndexReady() bool { return true }

func TestResolve_Chain(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.Add("/Game/Hero", "/Game/HeroMat")
	g.Add("/Game/HeroMat", "/Game/HeroTex")

	set, err := Resolve(context.Background(), g, "/Game/Hero")
	require.NoError(t, err)
	assert.Equal(t, []types.PackageID{"/Game/Hero", "/Game/HeroMat", "/Game/HeroTex"}, set.Sorted())
}

func TestResolve_Cycle(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.Add("/Game/A", "/Game/B")
	g.Add("/Game/B", "/Game/C")
	g.Add("/Game/C", "/Game/A")

	set, err := Resolve(context.Background(), g, "/Game/A")
	require.NoError(t, err)
	assert.Len(t, set, 3)
}

func TestResolve_Diamond(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.Add("/Game/Root", "/Game/L", "/Game/R")
	g.Add("/Game/L", "/Game/Shared")
	g.Add("/Game/R", "/Game/Shared")

	set, err := Resolve(context.Background(), g, "/Game/Root")
	require.NoError(t, err)
	assert.Equal(t, []types.PackageID{"/Game/L", "/Game/R", "/Game/Root", "/Game/Shared"}, set.Sorted())
}

func TestResolve_SelfLoopAndLeaf(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.Add("/Game/Self", "/Game/Self")

	set, err := Resolve(context.Background(), g, "/Game/Self")
	require.NoError(t, err)
	assert.True(t, set.Contains("/Game/Self"))
	assert.Len(t, set, 1)

	set, err = Resolve(context.Background(), g, "/Game/Leaf")
	require.NoError(t, err)
	assert.Len(t, set, 1)
}

func TestResolve_IndexNotReady(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.NotReady = true

	set, err := Resolve(context.Background(), g, "/Game/Hero")
	require.ErrorIs(t, err, ErrIndexNotReady)
	assert.Nil(t, set)
}

func TestResolve_RegistryErrorAborts(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.Add("/Game/Root", "/Game/Bad", "/Game/Good")

	set, err := Resolve(context.Background(), &failingRegistry{failOn: "/Game/Bad", graph: g}, "/Game/Root")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry exploded")
	assert.Nil(t, set)
}

func TestResolve_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Resolve(ctx, NewGraph(), "/Game/Hero")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_EmptyRoot(t *testing.T) {
	t.Parallel()

	_, err := Resolve(context.Background(), NewGraph(), "")
	assert.Error(t, err)
}
