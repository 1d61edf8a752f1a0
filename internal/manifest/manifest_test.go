package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terassyi/jsvm/internal/toolspec"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := writeManifest(t, dir, "package.json", `{
  "name": "p",
  "dependencies": {"lodash": "^4.0.0"},
  "custom": {"nested": true}
}`)

	m, err := Read(p)
	require.NoError(t, err)
	assert.Equal(t, "p", m.Name)
	assert.Equal(t, "^4.0.0", m.Dependencies["lodash"])
	require.NoError(t, m.Write())

	m2, err := Read(p)
	require.NoError(t, err)
	assert.Equal(t, m.Name, m2.Name)
	assert.Equal(t, m.Dependencies, m2.Dependencies)
	assert.Contains(t, m2.Extra, "custom")
}

func TestEnginesNodeTolerant(t *testing.T) {
	dir := t.TempDir()
	p := writeManifest(t, dir, "package.json", `{"name":"p","engines":{"node":">=18"}}`)
	m, err := Read(p)
	require.NoError(t, err)
	require.NotNil(t, m.Engines)
	assert.Equal(t, ">=18", m.Engines.Node)

	p2 := writeManifest(t, dir, "p2.json", `{"name":"p","engines":"not-an-object"}`)
	m2, err := Read(p2)
	require.NoError(t, err)
	require.NotNil(t, m2.Engines)
	assert.Equal(t, "", m2.Engines.Node)
}

func TestChainDetectsCycle(t *testing.T) {
	dir := t.TempDir()
	a := writeManifest(t, dir, "a.json", `{"name":"a","extends":"./b.json"}`)
	writeManifest(t, dir, "b.json", `{"name":"b","extends":"./a.json"}`)

	_, err := Chain(a)
	require.Error(t, err)
	var cycleErr *ExtensionCycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.GreaterOrEqual(t, len(cycleErr.Chain), 2)
}

func TestChainMergesProjectWins(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "base.json", `{"name":"base","toolchain":{"node":"18.0.0","npm":"9.0.0"}}`)
	proj := writeManifest(t, dir, "proj.json", `{"name":"proj","extends":"./base.json","toolchain":{"node":"20.0.0"}}`)

	chain, err := Chain(proj)
	require.NoError(t, err)
	require.Len(t, chain, 2)

	merged := MergeToolchain(chain)
	require.NotNil(t, merged)
	assert.Equal(t, "20.0.0", merged.Node)
	assert.Equal(t, "9.0.0", merged.Npm)
}

func TestPinRewritesToolchain(t *testing.T) {
	dir := t.TempDir()
	p := writeManifest(t, dir, "package.json", `{"name":"p"}`)

	spec, err := toolspec.Parse("node")
	require.NoError(t, err)

	require.NoError(t, Pin(p, spec, "6.19.62"))

	m, err := Read(p)
	require.NoError(t, err)
	require.NotNil(t, m.Toolchain)
	assert.Equal(t, "6.19.62", m.Toolchain.Node)
	assert.Equal(t, "", m.Toolchain.Npm)
}
