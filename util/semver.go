// Package util provides utility functions for the backend.
//
//revive:disable-next-line:var-naming
package util

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	npm "github.com/aquasecurity/go-npm-version/pkg"
)

// Prerelease identifiers that signal the range author wants prerelease
// candidates considered. A bare numeric suffix like "-0" counts too.
var prereleaseIntentPattern = regexp.MustCompile(`-(alpha|beta|rc|next|canary|dev|preview|pre|experimental|\d)`)

// RangeIncludesPrerelease reports whether a range string signals intent
// to match prerelease versions. Detection is textual: any recognized
// prerelease identifier anywhere in the range text.
func RangeIncludesPrerelease(rangeStr string) bool {
	return prereleaseIntentPattern.MatchString(rangeStr)
}

// IsPrereleaseVersion reports whether a concrete version string carries
// a prerelease component.
func IsPrereleaseVersion(version string) bool {
	if v, err := semver.NewVersion(version); err == nil {
		return v.Prerelease() != ""
	}
	// Not strict semver; a dash after the numeric core is the npm signal.
	core := strings.SplitN(version, "+", 2)[0]
	return strings.Contains(core, "-")
}

// ResolveVersion picks the best-matching concrete version for a semver
// range out of a catalog of published versions. Prerelease versions are
// excluded from the candidate set unless the range itself signals
// prerelease intent. The second return is false when nothing satisfies
// the range; callers treat that as an unresolved edge, not a fault.
func ResolveVersion(catalog []string, rangeStr string) (string, bool) {
	rangeStr = strings.TrimSpace(rangeStr)
	if rangeStr == "" {
		rangeStr = "*"
	}
	includePre := RangeIncludesPrerelease(rangeStr)

	if c, err := semver.NewConstraint(rangeStr); err == nil {
		return resolveSemver(catalog, c, includePre)
	}
	// Masterminds rejects some npm range grammar; retry with the
	// npm-native parser before declaring a miss.
	if c, err := npm.NewConstraints(rangeStr); err == nil {
		return resolveNPM(catalog, c, includePre)
	}
	return "", false
}

func resolveSemver(catalog []string, c *semver.Constraints, includePre bool) (string, bool) {
	var candidates semver.Collection
	for _, raw := range catalog {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if v.Prerelease() != "" && !includePre {
			continue
		}
		if c.Check(v) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Sort(candidates)
	return candidates[len(candidates)-1].Original(), true
}

func resolveNPM(catalog []string, c npm.Constraints, includePre bool) (string, bool) {
	var best npm.Version
	bestRaw := ""
	for _, raw := range catalog {
		if IsPrereleaseVersion(raw) && !includePre {
			continue
		}
		v, err := npm.NewVersion(raw)
		if err != nil {
			continue
		}
		if !c.Check(v) {
			continue
		}
		if bestRaw == "" || v.GreaterThan(best) {
			best = v
			bestRaw = raw
		}
	}
	return bestRaw, bestRaw != ""
}

// IsWellFormedVersion reports whether a string parses as a concrete
// version under either the semver or npm grammar. Used for input
// validation before any network call.
func IsWellFormedVersion(version string) bool {
	if _, err := semver.NewVersion(version); err == nil {
		return true
	}
	_, err := npm.NewVersion(version)
	return err == nil
}

// IsWellFormedRange reports whether a string parses as a range under
// either grammar. A parseable range that matches nothing is a 404
// concern, not a 400 one.
func IsWellFormedRange(rangeStr string) bool {
	if _, err := semver.NewConstraint(rangeStr); err == nil {
		return true
	}
	_, err := npm.NewConstraints(rangeStr)
	return err == nil
}
