package shim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terassyi/jsvm/internal/layout"
	"github.com/terassyi/jsvm/internal/platform"
	"github.com/terassyi/jsvm/internal/version"
)

func mustVersion(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.Parse(s)
	require.NoError(t, err)
	return v
}

func sourced(t *testing.T, s string, src platform.Source) platform.Sourced[version.Version] {
	t.Helper()
	// Build via Merge with a single CommandLine override to populate a
	// Sourced value, then overwrite its Source.
	out := platform.Merge(platform.Platform{}, platform.Overrides{
		Node: platform.Spec{Mode: platform.SpecSome, Value: mustVersion(t, s)},
	}, nil)
	sv := out.Node
	sv.Source = src
	return sv
}

func TestAssemblePathOrdering(t *testing.T) {
	l, err := layout.New(layout.WithRoot(t.TempDir()))
	require.NoError(t, err)

	p := platform.Platform{
		Node: sourced(t, "20.11.0", platform.SourceProject),
		Npm:  sourced(t, "10.2.0", platform.SourceDefault),
	}

	systemPath := strings.Join([]string{l.ShimDir(), "/usr/bin", "/bin"}, string(os.PathListSeparator))
	got := AssemblePath(l, p, "", systemPath)

	nodeBin := filepath.Join(l.ImageToolVersionDir("node", "20.11.0"), "bin")
	npmBin := filepath.Join(l.ImageToolVersionDir("npm", "10.2.0"), "bin")

	parts := filepath.SplitList(got)
	require.GreaterOrEqual(t, len(parts), 4)
	assert.Equal(t, nodeBin, parts[0])
	assert.Equal(t, npmBin, parts[1])
	assert.NotContains(t, parts, l.ShimDir())
	assert.Contains(t, parts, "/usr/bin")
}

func TestAssemblePathIncludesPackageBinDir(t *testing.T) {
	l, err := layout.New(layout.WithRoot(t.TempDir()))
	require.NoError(t, err)

	p := platform.Platform{Node: sourced(t, "20.11.0", platform.SourceProject)}
	got := AssemblePath(l, p, "/staging/eslint/bin", "/bin")

	parts := filepath.SplitList(got)
	assert.Contains(t, parts, "/staging/eslint/bin")
}
