package hooks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHooks(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "hooks.toml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "array", cfg.YarnFormat())
}

func TestLoadValidConfig(t *testing.T) {
	p := writeHooks(t, `
[node.distro]
template = "https://example/hook/default/node/{{version}}"

[yarn]
format = "npm"
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	url, ok, err := cfg.DistroURL("node", "1.2.3", "linux", "x64")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://example/hook/default/node/1.2.3", url)

	assert.Equal(t, "npm", cfg.YarnFormat())
}

func TestLoadRejectsMultipleFields(t *testing.T) {
	p := writeHooks(t, `
[node.distro]
prefix = "https://example/"
template = "https://example/{{version}}"
`)
	_, err := Load(p)
	require.Error(t, err)
}

func TestLoadRejectsZeroFields(t *testing.T) {
	p := writeHooks(t, `
[node]
distro = {}
`)
	_, err := Load(p)
	require.Error(t, err)
}

func TestPublishHookBothURLAndBin(t *testing.T) {
	p := writeHooks(t, `
[events.publish]
url = "https://example/events"
bin = "/usr/local/bin/publish"
`)
	_, err := Load(p)
	assert.ErrorIs(t, err, ErrPublishHookBothURLAndBin)
}

func TestPublishHookNeither(t *testing.T) {
	p := writeHooks(t, `
[events]
publish = {}
`)
	_, err := Load(p)
	assert.ErrorIs(t, err, ErrPublishHookNeither)
}
