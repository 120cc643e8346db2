// Package analysis - end-to-end analysis orchestration.
package analysis

import (
	"context"
	"errors"
	"strings"

	"github.com/ortelius/deptree-backend/model"
	"github.com/ortelius/deptree-backend/registry"
	"github.com/ortelius/deptree-backend/util"
	"github.com/ortelius/deptree-backend/vulndb"
)

// VulnQuerier is the vulnerability database surface the engine needs.
// Satisfied by *vulndb.Client; tests inject a fake.
type VulnQuerier interface {
	QueryBatch(ctx context.Context, coords []vulndb.Coordinate) (map[vulndb.Coordinate][]vulndb.VulnRef, []vulndb.Coordinate)
	FetchDetails(ctx context.Context, ids []string) (map[string]model.VulnerabilityRecord, []string)
}

// Engine runs the full pipeline: resolve the root, build the tree,
// batch-query vulnerabilities, aggregate the report.
type Engine struct {
	packuments Packuments
	vulns      VulnQuerier
	fetchLimit int
	maxDepth   int
}

// NewEngine wires an analysis engine. maxDepth is the default depth
// ceiling for requests that do not set their own; 0 disables it.
func NewEngine(packuments Packuments, vulns VulnQuerier, fetchLimit, maxDepth int) *Engine {
	return &Engine{packuments: packuments, vulns: vulns, fetchLimit: fetchLimit, maxDepth: maxDepth}
}

// Analyze produces the report for one package@version. version may be
// empty or "latest" (resolved through dist-tags), a concrete version,
// or a range. maxDepth overrides the engine default when positive.
//
// Failure policy: malformed input and an unresolvable root are fatal
// (400/404), as is a root packument fetch failure (502) — there is
// nothing to analyze. Everything downstream is partial: failed edges
// and coordinates are counted in FailedQueries and the report still
// returns.
func (e *Engine) Analyze(ctx context.Context, name, version string, maxDepth int) (*model.AnalysisReport, error) {
	name = strings.TrimSpace(name)
	version = strings.TrimSpace(version)

	// Input validation happens before any network call.
	if err := util.ValidatePackageName(name); err != nil {
		return nil, model.BadRequest("%v", err)
	}
	wantLatest := version == "" || version == "latest"
	if !wantLatest && !util.IsWellFormedVersion(version) && !util.IsWellFormedRange(version) {
		return nil, model.BadRequest("malformed version %q for package %s", version, name)
	}

	pack, err := e.packuments.Get(ctx, name)
	if err != nil {
		return nil, asRequestError(name, err)
	}

	resolved, err := resolveRootVersion(pack, version, wantLatest)
	if err != nil {
		return nil, err
	}

	if maxDepth <= 0 {
		maxDepth = e.maxDepth
	}
	builder := NewBuilder(e.packuments, e.fetchLimit, maxDepth)
	tree, err := builder.BuildTree(ctx, name, resolved)
	if err != nil {
		return nil, asRequestError(name, err)
	}

	coords := make([]vulndb.Coordinate, len(tree.Nodes))
	for i, node := range tree.Nodes {
		coords[i] = vulndb.Coordinate{Name: node.Name, Version: node.Version}
	}

	refs, failedCoords := e.vulns.QueryBatch(ctx, coords)

	ids := distinctIDs(refs)
	details, failedIDs := e.vulns.FetchDetails(ctx, ids)

	return Aggregate(AggregateInput{
		Name:            name,
		Version:         resolved,
		Nodes:           tree.Nodes,
		VulnRefs:        refs,
		Details:         details,
		FailedDetailIDs: failedIDs,
		FailedQueries:   tree.FailedFetches + len(failedCoords),
		Diagnostics:     tree.Diagnostics,
	}), nil
}

// resolveRootVersion turns the request's version argument into a
// concrete catalog version: dist-tags latest, an exact catalog match,
// or the best match for a range.
func resolveRootVersion(pack *model.Packument, version string, wantLatest bool) (string, error) {
	if wantLatest {
		latest := pack.Latest()
		if latest == "" {
			return "", model.NotFound("package %s has no latest version", pack.Name)
		}
		return latest, nil
	}
	if _, ok := pack.Versions[version]; ok {
		return version, nil
	}
	if resolved, ok := util.ResolveVersion(pack.VersionCatalog(), version); ok {
		return resolved, nil
	}
	return "", model.NotFound("version %s of %s not found", version, pack.Name)
}

// asRequestError maps an engine failure onto the caller-facing
// taxonomy: registry 404 on the root means the package does not exist,
// anything else upstream is a 502.
func asRequestError(name string, err error) error {
	var reqErr *model.RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	var fetchErr *registry.FetchError
	if errors.As(err, &fetchErr) && fetchErr.NotFound() {
		return model.NotFound("package %s not found", name)
	}
	return model.BadGateway("upstream failure analyzing %s: %v", name, err)
}

func distinctIDs(refs map[vulndb.Coordinate][]vulndb.VulnRef) []string {
	seen := map[string]bool{}
	var ids []string
	for _, coordRefs := range refs {
		for _, ref := range coordRefs {
			if !seen[ref.ID] {
				seen[ref.ID] = true
				ids = append(ids, ref.ID)
			}
		}
	}
	return ids
}
