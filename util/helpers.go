// Package util provides utility functions for version resolution,
// CVSS severity scoring, purl construction, and environment handling.
//
//revive:disable-next-line:var-naming
package util

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// GetEnvDefault is a convenience function for handling env vars
func GetEnvDefault(key, defVal string) string {
	val, ex := os.LookupEnv(key) // get the env var
	if !ex {                     // not found return default
		return defVal
	}
	return val // return value for env var
}

// GetEnvIntDefault reads an env var as an integer, falling back to the
// default when unset or unparseable.
func GetEnvIntDefault(key string, defVal int) int {
	val, ex := os.LookupEnv(key)
	if !ex {
		return defVal
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return defVal
	}
	return n
}

// IsEmpty checks if a string is empty or contains only whitespace
func IsEmpty(s string) bool {
	return len(strings.TrimSpace(s)) == 0
}

// npm package name rules: lowercase, URL-safe, no leading dot or
// underscore, optional @scope/ prefix, at most 214 characters.
var packageNamePattern = regexp.MustCompile(`^(@[a-z0-9\-~][a-z0-9\-._~]*/)?[a-z0-9\-~][a-z0-9\-._~]*$`)

// ValidatePackageName rejects malformed package names before any
// network call is made on their behalf.
func ValidatePackageName(name string) error {
	if IsEmpty(name) {
		return fmt.Errorf("package name is required")
	}
	if len(name) > 214 {
		return fmt.Errorf("package name exceeds 214 characters")
	}
	if !packageNamePattern.MatchString(name) {
		return fmt.Errorf("invalid package name %q", name)
	}
	return nil
}

// IsScopedName reports whether name carries an @scope/ prefix.
func IsScopedName(name string) bool {
	return strings.HasPrefix(name, "@") && strings.Contains(name, "/")
}
