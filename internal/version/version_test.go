package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	oldV, oldC, oldD := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() { Version, GitCommit, BuildDate = oldV, oldC, oldD })
}

func TestGetInfo(t *testing.T) {
	withVersion(t, "1.2.3", "abcdef0123", "2025-06-01")

	info, err := GetInfo()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Equal(t, "Codi v1.2.3, commit abcdef0, built 2025-06-01", GetFormattedVersion())
}

func TestInvalidVersion(t *testing.T) {
	withVersion(t, "not-a-version", "unknown", "unknown")

	_, err := GetInfo()
	assert.Error(t, err)
	assert.Equal(t, "Codi vnot-a-version (invalid version)", GetFormattedVersion())
	assert.False(t, IsPrerelease())
}

func TestPrereleaseAndConstraint(t *testing.T) {
	withVersion(t, "0.2.0-rc.1", "unknown", "unknown")
	assert.True(t, IsPrerelease())
	assert.Equal(t, "Codi v0.2.0-rc.1", GetFormattedVersion())

	withVersion(t, "0.3.1", "unknown", "unknown")
	ok, err := SatisfiesConstraint(">= 0.3")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = SatisfiesConstraint("not a constraint")
	assert.Error(t, err)
}
