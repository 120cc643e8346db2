package analysis

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ortelius/deptree-backend/model"
	"github.com/ortelius/deptree-backend/registry"
)

// fakeRegistry serves canned packuments keyed by name.
type fakeRegistry struct {
	mu    sync.Mutex
	packs map[string]*model.Packument
	calls map[string]int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{packs: make(map[string]*model.Packument), calls: make(map[string]int)}
}

func (r *fakeRegistry) add(name string, latest string, versions map[string]model.VersionRecord) {
	r.packs[name] = &model.Packument{
		Name:     name,
		DistTags: map[string]string{"latest": latest},
		Versions: versions,
	}
}

func (r *fakeRegistry) Get(_ context.Context, name string) (*model.Packument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[name]++
	pack, ok := r.packs[name]
	if !ok {
		return nil, &registry.FetchError{Name: name, StatusCode: 404}
	}
	return pack, nil
}

func deps(pairs ...string) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return m
}

func nodeKeys(tree *Tree) []string {
	keys := make([]string, len(tree.Nodes))
	for i, n := range tree.Nodes {
		keys[i] = n.Key()
	}
	return keys
}

func TestBuildTreeDiamond(t *testing.T) {
	// app depends on a and b; both depend on shared@^1.0.0.
	reg := newFakeRegistry()
	reg.add("app", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("a", "^1.0.0", "b", "^1.0.0")},
	})
	reg.add("a", "1.2.0", map[string]model.VersionRecord{
		"1.2.0": {Dependencies: deps("shared", "^1.0.0")},
	})
	reg.add("b", "1.5.0", map[string]model.VersionRecord{
		"1.5.0": {Dependencies: deps("shared", "^1.0.0")},
	})
	reg.add("shared", "1.9.0", map[string]model.VersionRecord{
		"1.9.0": {},
	})

	tree, err := NewBuilder(reg, 4, 0).BuildTree(context.Background(), "app", "1.0.0")
	require.NoError(t, err)

	// shared appears once despite two incoming edges.
	assert.Equal(t, []string{"app@1.0.0", "a@1.2.0", "b@1.5.0", "shared@1.9.0"}, nodeKeys(tree))

	shared := tree.Nodes[3]
	assert.Equal(t, 2, shared.Depth)
	assert.Equal(t, []string{"app", "a", "shared"}, shared.Path)
	assert.Empty(t, tree.Diagnostics)
	assert.Zero(t, tree.FailedFetches)
}

func TestBuildTreeShortestDepthWins(t *testing.T) {
	// shared is both a direct dependency of app and a transitive one
	// through mid. Level-synchronized expansion must record depth 1.
	reg := newFakeRegistry()
	reg.add("app", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("mid", "^1.0.0", "shared", "^1.0.0")},
	})
	reg.add("mid", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("shared", "^1.0.0")},
	})
	reg.add("shared", "1.4.0", map[string]model.VersionRecord{
		"1.4.0": {},
	})

	tree, err := NewBuilder(reg, 4, 0).BuildTree(context.Background(), "app", "1.0.0")
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 3)

	var shared model.DependencyNode
	for _, n := range tree.Nodes {
		if n.Name == "shared" {
			shared = n
		}
	}
	assert.Equal(t, 1, shared.Depth)
	assert.Equal(t, model.RelationDirect, shared.Relation())
	assert.Equal(t, []string{"app", "shared"}, shared.Path)
}

func TestBuildTreeDistinctVersionsAreDistinctNodes(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("app", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("old", "1.0.0", "new", "1.0.0")},
	})
	reg.add("old", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("shared", "^1.0.0")},
	})
	reg.add("new", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("shared", "^2.0.0")},
	})
	reg.add("shared", "2.3.0", map[string]model.VersionRecord{
		"1.8.0": {},
		"2.3.0": {},
	})

	tree, err := NewBuilder(reg, 4, 0).BuildTree(context.Background(), "app", "1.0.0")
	require.NoError(t, err)

	keys := nodeKeys(tree)
	assert.Contains(t, keys, "shared@1.8.0")
	assert.Contains(t, keys, "shared@2.3.0")
	assert.Len(t, keys, 5)
}

func TestBuildTreeUnresolvedRange(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("app", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("picky", "^9.0.0")},
	})
	reg.add("picky", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {},
	})

	tree, err := NewBuilder(reg, 4, 0).BuildTree(context.Background(), "app", "1.0.0")
	require.NoError(t, err)

	assert.Len(t, tree.Nodes, 1)
	require.Len(t, tree.Diagnostics, 1)
	assert.Contains(t, tree.Diagnostics[0], "picky")
	assert.Contains(t, tree.Diagnostics[0], "^9.0.0")
	assert.Zero(t, tree.FailedFetches)
}

func TestBuildTreeFailedFetchSkipsSubtree(t *testing.T) {
	// gone is unreachable; its subtree never materializes but the rest
	// of the walk continues.
	reg := newFakeRegistry()
	reg.add("app", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("ok", "^1.0.0", "gone", "^1.0.0")},
	})
	reg.add("ok", "1.1.0", map[string]model.VersionRecord{
		"1.1.0": {},
	})

	tree, err := NewBuilder(reg, 4, 0).BuildTree(context.Background(), "app", "1.0.0")
	require.NoError(t, err)

	assert.Equal(t, []string{"app@1.0.0", "ok@1.1.0"}, nodeKeys(tree))
	assert.Equal(t, 1, tree.FailedFetches)
	require.Len(t, tree.Diagnostics, 1)
	assert.Contains(t, tree.Diagnostics[0], "gone")
}

func TestBuildTreeFailedFetchCountedOnce(t *testing.T) {
	// Two parents require the same unreachable package.
	reg := newFakeRegistry()
	reg.add("app", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("a", "^1.0.0", "b", "^1.0.0")},
	})
	reg.add("a", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("gone", "^1.0.0")},
	})
	reg.add("b", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("gone", "^1.0.0")},
	})

	tree, err := NewBuilder(reg, 4, 0).BuildTree(context.Background(), "app", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, 1, tree.FailedFetches)
}

func TestBuildTreeDepthCeiling(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("app", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("mid", "^1.0.0")},
	})
	reg.add("mid", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("deep", "^1.0.0")},
	})
	reg.add("deep", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {},
	})

	tree, err := NewBuilder(reg, 4, 1).BuildTree(context.Background(), "app", "1.0.0")
	require.NoError(t, err)

	assert.Equal(t, []string{"app@1.0.0", "mid@1.0.0"}, nodeKeys(tree))
	require.NotEmpty(t, tree.Diagnostics)
	assert.Contains(t, tree.Diagnostics[len(tree.Diagnostics)-1], "depth ceiling")
}

func TestBuildTreeDeprecationCaptured(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("app", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("legacy", "^1.0.0")},
	})
	reg.add("legacy", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Deprecated: "use modern instead"},
	})

	tree, err := NewBuilder(reg, 4, 0).BuildTree(context.Background(), "app", "1.0.0")
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 2)
	assert.Equal(t, "use modern instead", tree.Nodes[1].Deprecated)
	assert.Equal(t, "pkg:npm/legacy@1.0.0", tree.Nodes[1].PURL)
}

func TestBuildTreeRootVersionMissing(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("app", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {},
	})

	_, err := NewBuilder(reg, 4, 0).BuildTree(context.Background(), "app", "9.9.9")
	require.Error(t, err)
}

func TestBuildTreePackumentFetchedOncePerName(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("app", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("a", "^1.0.0", "b", "^1.0.0")},
	})
	reg.add("a", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("shared", "^1.0.0")},
	})
	reg.add("b", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {Dependencies: deps("shared", "^1.0.0")},
	})
	reg.add("shared", "1.0.0", map[string]model.VersionRecord{
		"1.0.0": {},
	})

	_, err := NewBuilder(reg, 4, 0).BuildTree(context.Background(), "app", "1.0.0")
	require.NoError(t, err)

	// Both parents declare shared; the level fetches it once.
	assert.Equal(t, 1, reg.calls["shared"])
}
