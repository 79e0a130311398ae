// Package resolver computes the transitive closure of hard dependencies for a
// root item by walking the dependency registry breadth first.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jamesainslie/vault/pkg/vault/logging"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

// ErrIndexNotReady is returned when the registry is still building its
// dependency index. Callers may retry later.
var ErrIndexNotReady = errors.New("dependency index is still loading, try again later")

// Registry answers hard-dependency queries for items.
type Registry interface {
	// GetHardDependencies returns the direct hard dependencies of id.
	GetHardDependencies(ctx context.Context, id types.PackageID) ([]types.PackageID, error)

	// IsIndexReady reports whether the dependency index is complete.
	IsIndexReady() bool
}

// Set is an unordered set of package ids.
type Set map[types.PackageID]struct{}

// Contains reports whether id is in the set.
func (s Set) Contains(id types.PackageID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []types.PackageID {
	out := make([]types.PackageID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Resolve returns root plus every item reachable from it through hard
// dependencies. Cycles are tolerated. A registry error aborts the walk and no
// partial set is returned.
func Resolve(ctx context.Context, registry Registry, root types.PackageID) (Set, error) {
	if root == "" {
		return nil, errors.New("root package id cannot be empty")
	}
	if !registry.IsIndexReady() {
		return nil, ErrIndexNotReady
	}

	logger := logging.Get("resolver")

	visited := Set{root: {}}
	queue := []types.PackageID{root}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := queue[0]
		queue = queue[1:]

		deps, err := registry.GetHardDependencies(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("failed to get dependencies of %s: %w", current, err)
		}

		for _, dep := range deps {
			if dep == "" || visited.Contains(dep) {
				continue
			}
			visited[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}

	logger.Debug("resolved dependencies", "root", root, "count", len(visited))
	return visited, nil
}

// Graph is an in-memory Registry backed by an adjacency map.
type Graph struct {
	Edges    map[types.PackageID][]types.PackageID
	NotReady bool
}

// NewGraph returns an empty, ready Graph.
func NewGraph() *Graph {
	return &Graph{Edges: make(map[types.PackageID][]types.PackageID)}
}

// Add records hard dependencies of id.
func (g *Graph) Add(id types.PackageID, deps ...types.PackageID) {
	g.Edges[id] = append(g.Edges[id], deps...)
}

// GetHardDependencies implements Registry.
func (g *Graph) GetHardDependencies(_ context.Context, id types.PackageID) ([]types.PackageID, error) {
	return g.Edges[id], nil
}

// IsIndexReady implements Registry.
func (g *Graph) IsIndexReady() bool {
	return !g.NotReady
}

var _ Registry = (*Graph)(nil)
