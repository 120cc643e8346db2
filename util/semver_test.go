package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVersion(t *testing.T) {
	catalog := []string{"1.0.0", "1.1.0", "1.2.3", "2.0.0-beta.1", "2.0.0"}

	tests := []struct {
		name     string
		rangeStr string
		want     string
		found    bool
	}{
		{"caret picks highest in major", "^1.0.0", "1.2.3", true},
		{"tilde pins minor", "~1.1.0", "1.1.0", true},
		{"exact version", "1.0.0", "1.0.0", true},
		{"wildcard picks highest stable", "*", "2.0.0", true},
		{"empty range behaves as wildcard", "", "2.0.0", true},
		{"stable range skips prereleases", ">=1.0.0", "2.0.0", true},
		{"nothing satisfies", ">=3.0.0", "", false},
		{"hyphen range", "1.0.0 - 1.1.0", "1.1.0", true},
		{"or range", "^0.5.0 || ^1.2.0", "1.2.3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveVersion(catalog, tt.rangeStr)
			require.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveVersionMixedCatalog(t *testing.T) {
	catalog := []string{"1.0.0", "1.1.0", "2.0.0-beta.1"}

	got, ok := ResolveVersion(catalog, "^1.0.0")
	require.True(t, ok)
	assert.Equal(t, "1.1.0", got)

	// The beta identifier in the second branch opts prereleases in.
	got, ok = ResolveVersion(catalog, "^1.0.0 || >=2.0.0-beta")
	require.True(t, ok)
	assert.Equal(t, "2.0.0-beta.1", got)
}

func TestResolveVersionPrereleaseIntent(t *testing.T) {
	catalog := []string{"1.9.0", "2.0.0-beta.1", "2.0.0-beta.2"}

	// A prerelease identifier in the range opts prereleases in.
	got, ok := ResolveVersion(catalog, ">=2.0.0-beta")
	require.True(t, ok)
	assert.Equal(t, "2.0.0-beta.2", got)

	// The same catalog without intent resolves to the stable line.
	got, ok = ResolveVersion(catalog, ">=1.0.0")
	require.True(t, ok)
	assert.Equal(t, "1.9.0", got)
}

func TestRangeIncludesPrerelease(t *testing.T) {
	assert.True(t, RangeIncludesPrerelease("^1.0.0-beta"))
	assert.True(t, RangeIncludesPrerelease(">=2.0.0-rc.1"))
	assert.True(t, RangeIncludesPrerelease("1.0.0-0"))
	assert.False(t, RangeIncludesPrerelease("^1.0.0"))
	assert.False(t, RangeIncludesPrerelease("1.x"))
}

func TestIsPrereleaseVersion(t *testing.T) {
	assert.True(t, IsPrereleaseVersion("2.0.0-beta.1"))
	assert.False(t, IsPrereleaseVersion("2.0.0"))
	assert.False(t, IsPrereleaseVersion("1.0.0+build.5"))
}

func TestIsWellFormedVersion(t *testing.T) {
	assert.True(t, IsWellFormedVersion("1.2.3"))
	assert.True(t, IsWellFormedVersion("2.0.0-beta.1"))
	assert.False(t, IsWellFormedVersion("not-a-version"))
}

func TestIsWellFormedRange(t *testing.T) {
	assert.True(t, IsWellFormedRange("^1.0.0"))
	assert.True(t, IsWellFormedRange("1.0.0 - 2.0.0"))
	assert.False(t, IsWellFormedRange(">=>abc"))
}
