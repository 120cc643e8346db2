// Package model - dependency tree node types.
package model

// Depth classification boundaries. Depth 0 is the analyzed root,
// depth 1 a direct dependency, anything deeper is transitive.
const (
	RelationRoot       = "root"
	RelationDirect     = "direct"
	RelationTransitive = "transitive"
)

// DependencyNode is one resolved occurrence of a package in the tree.
// Identity for deduplication is name@version: two ranges resolving to
// the same concrete version collapse to a single node. Path is the
// breadth-first discovery chain from the root (root name first, own
// name last) and is never rewritten once set.
type DependencyNode struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Depth      int      `json:"depth"`
	Path       []string `json:"path"`
	Deprecated string   `json:"deprecated,omitempty"`
	PURL       string   `json:"purl,omitempty"`
}

// Key returns the name@version deduplication key.
func (n DependencyNode) Key() string {
	return n.Name + "@" + n.Version
}

// Relation classifies the node's shortest distance from the root.
func (n DependencyNode) Relation() string {
	switch n.Depth {
	case 0:
		return RelationRoot
	case 1:
		return RelationDirect
	default:
		return RelationTransitive
	}
}
