// Package analysis - dependency tree construction and report assembly.
package analysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/ortelius/deptree-backend/internal/worker"
	"github.com/ortelius/deptree-backend/model"
	"github.com/ortelius/deptree-backend/util"
)

var logger = util.InitLogger()

// Packuments is the registry lookup the builder walks. Satisfied by
// *registry.PackumentCache; tests inject a fake.
type Packuments interface {
	Get(ctx context.Context, name string) (*model.Packument, error)
}

// Tree is the flattened result of one traversal: a deduplicated node
// list in breadth-first discovery order plus partial-failure context.
type Tree struct {
	Nodes         []model.DependencyNode
	Diagnostics   []string
	FailedFetches int
}

// Builder walks declared dependencies breadth-first, resolving each
// range to a concrete version and deduplicating by name@version.
type Builder struct {
	packuments Packuments
	fetchLimit int
	maxDepth   int
}

// NewBuilder wires a builder. fetchLimit bounds concurrent packument
// fetches per level; maxDepth 0 means no ceiling (termination is still
// guaranteed by the visited set — the node space is finite).
func NewBuilder(packuments Packuments, fetchLimit, maxDepth int) *Builder {
	return &Builder{packuments: packuments, fetchLimit: fetchLimit, maxDepth: maxDepth}
}

// levelNode pairs a placed node with its version record so the next
// level can expand its declared dependencies without refetching.
type levelNode struct {
	node   model.DependencyNode
	record model.VersionRecord
}

type fetchResult struct {
	pack *model.Packument
	err  error
}

// BuildTree traverses from rootName@rootVersion. The traversal is
// level-synchronized: the entire frontier at depth D is expanded before
// any node at depth D+1 is created, so recorded depth always equals the
// shortest discovery distance and the first-seen path is a shortest
// path. A failed dependency fetch or an unsatisfiable range drops that
// edge with a diagnostic and the walk continues.
func (b *Builder) BuildTree(ctx context.Context, rootName, rootVersion string) (*Tree, error) {
	rootPack, err := b.packuments.Get(ctx, rootName)
	if err != nil {
		return nil, err
	}
	rootRecord, ok := rootPack.Versions[rootVersion]
	if !ok {
		return nil, fmt.Errorf("version %s of %s not found in registry", rootVersion, rootName)
	}

	root := model.DependencyNode{
		Name:       rootName,
		Version:    rootVersion,
		Depth:      0,
		Path:       []string{rootName},
		Deprecated: rootRecord.Deprecated,
		PURL:       util.BuildNPMPURL(rootName, rootVersion),
	}

	tree := &Tree{Nodes: []model.DependencyNode{root}}
	visited := map[string]bool{root.Key(): true}
	failedNames := map[string]bool{}
	frontier := []levelNode{{node: root, record: rootRecord}}
	depth := 0

	for len(frontier) > 0 {
		if b.maxDepth > 0 && depth >= b.maxDepth {
			tree.Diagnostics = append(tree.Diagnostics,
				fmt.Sprintf("traversal stopped at depth ceiling %d with %d unexpanded packages", b.maxDepth, len(frontier)))
			break
		}

		packs := b.fetchLevel(ctx, frontier, failedNames, tree)

		var next []levelNode
		for _, parent := range frontier {
			for _, depName := range sortedDependencyNames(parent.record.Dependencies) {
				depRange := parent.record.Dependencies[depName]

				depPack, ok := packs[depName]
				if !ok {
					// Fetch failed; already counted and diagnosed.
					continue
				}

				resolved, ok := util.ResolveVersion(depPack.VersionCatalog(), depRange)
				if !ok {
					tree.Diagnostics = append(tree.Diagnostics,
						fmt.Sprintf("no version of %s satisfies %q (required by %s)", depName, depRange, parent.node.Key()))
					continue
				}

				child := model.DependencyNode{
					Name:    depName,
					Version: resolved,
				}
				if visited[child.Key()] {
					// Diamond edge: keep the first-seen node and path.
					continue
				}
				visited[child.Key()] = true

				child.Depth = depth + 1
				child.Path = append(append([]string{}, parent.node.Path...), depName)
				child.Deprecated = depPack.Versions[resolved].Deprecated
				child.PURL = util.BuildNPMPURL(depName, resolved)

				tree.Nodes = append(tree.Nodes, child)
				next = append(next, levelNode{node: child, record: depPack.Versions[resolved]})
			}
		}

		frontier = next
		depth++
	}

	return tree, nil
}

// fetchLevel resolves the packuments for every dependency name declared
// by the current frontier, with bounded concurrency. Failed names are
// recorded once per tree and excluded from the returned map.
func (b *Builder) fetchLevel(ctx context.Context, frontier []levelNode, failedNames map[string]bool, tree *Tree) map[string]*model.Packument {
	nameSet := map[string]bool{}
	for _, parent := range frontier {
		for depName := range parent.record.Dependencies {
			nameSet[depName] = true
		}
	}

	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	// Fetch errors are captured per result: one unreachable dependency
	// must not abort its siblings.
	results, _ := worker.Map(ctx, names, b.fetchLimit, func(ctx context.Context, _ int, name string) (fetchResult, error) {
		pack, err := b.packuments.Get(ctx, name)
		return fetchResult{pack: pack, err: err}, nil
	})

	packs := make(map[string]*model.Packument, len(names))
	for i, res := range results {
		if res.err != nil {
			if !failedNames[names[i]] {
				failedNames[names[i]] = true
				tree.FailedFetches++
				tree.Diagnostics = append(tree.Diagnostics,
					fmt.Sprintf("could not fetch metadata for %s: %v", names[i], res.err))
				logger.Sugar().Warnf("Packument fetch for %s failed during traversal: %v", names[i], res.err)
			}
			continue
		}
		packs[names[i]] = res.pack
	}
	return packs
}

// sortedDependencyNames gives map iteration a stable order so paths and
// diagnostics are deterministic.
func sortedDependencyNames(deps map[string]string) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
