// Package model - registry metadata types shared across the analysis engine.
package model

// Packument is the registry metadata document for one package name,
// covering all published versions. It is immutable once fetched; the
// cache discards and refetches it after expiry rather than mutating it.
type Packument struct {
	Name     string                   `json:"name"`
	DistTags map[string]string        `json:"dist-tags"`
	Versions map[string]VersionRecord `json:"versions"`
}

// VersionRecord is the manifest subset of one published version.
// Deprecated carries the registry deprecation message when present;
// an empty string means the version is not deprecated.
type VersionRecord struct {
	Dependencies map[string]string `json:"dependencies"`
	Deprecated   string            `json:"deprecated,omitempty"`
}

// Latest returns the version the "latest" dist-tag points at,
// or "" when the packument carries no usable latest tag.
func (p *Packument) Latest() string {
	if p.DistTags == nil {
		return ""
	}
	return p.DistTags["latest"]
}

// VersionCatalog returns all published version strings.
func (p *Packument) VersionCatalog() []string {
	catalog := make([]string, 0, len(p.Versions))
	for v := range p.Versions {
		catalog = append(catalog, v)
	}
	return catalog
}
