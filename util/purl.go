// Package util provides utility functions for the backend.
//
//revive:disable-next-line:var-naming
package util

import (
	"strings"

	"github.com/package-url/packageurl-go"
)

// BuildNPMPURL constructs the canonical purl for an npm coordinate.
// Scoped names split into namespace and name.
// Example: ("@babel/core", "7.24.0") -> "pkg:npm/%40babel/core@7.24.0"
func BuildNPMPURL(name, version string) string {
	namespace := ""
	short := name
	if IsScopedName(name) {
		idx := strings.Index(name, "/")
		namespace = name[:idx]
		short = name[idx+1:]
	}
	purl := packageurl.NewPackageURL(packageurl.TypeNPM, namespace, short, version, nil, "")
	return purl.ToString()
}
