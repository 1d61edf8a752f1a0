package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesHomeEnvVar(t *testing.T) {
	root := t.TempDir()
	t.Setenv(HomeEnvVar, root)

	l, err := New()
	require.NoError(t, err)
	assert.Equal(t, root, l.Root())
}

func TestNewWithRootOption(t *testing.T) {
	t.Setenv(HomeEnvVar, "")
	root := filepath.Join(t.TempDir(), "custom")

	l, err := New(WithRoot(root))
	require.NoError(t, err)
	assert.Equal(t, root, l.Root())
}

func TestAccessorsCreateDirectories(t *testing.T) {
	root := t.TempDir()
	l, err := New(WithRoot(root))
	require.NoError(t, err)

	paths := []string{
		l.InventoryDir(),
		l.InventoryToolDir("node"),
		l.ImageDir(),
		l.ImageToolVersionDir("node", "20.0.0"),
		l.ImagePackageDir("left-pad"),
		l.ShimDir(),
		l.TmpDir(),
		l.CacheDir("node"),
		l.LogDir(),
		l.PackageConfigDir(),
		l.BinConfigDir(),
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.True(t, info.IsDir())
	}
}

func TestFileAccessors(t *testing.T) {
	root := t.TempDir()
	l, err := New(WithRoot(root))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "tools", "hooks.toml"), l.HooksFile())
	assert.Equal(t, filepath.Join(root, "tools", "user", "platform.json"), l.UserPlatformFile())
	assert.Equal(t, filepath.Join(root, "tools", "user", "packages", "foo.json"), l.PackageConfigFile("foo"))
	assert.Equal(t, filepath.Join(root, "tools", "user", "bins", "foo.json"), l.BinConfigFile("foo"))
	assert.Equal(t, filepath.Join(root, "cache", "node", "index.json"), l.IndexFile("node"))
	assert.Equal(t, filepath.Join(root, "cache", "node", "index.json.expires"), l.IndexExpiryFile("node"))
	assert.Equal(t, filepath.Join(root, "tools", "image", "node.lock"), l.ToolLockFile("node"))
}

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := Expand("~/foo/bar")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "foo/bar"), got)

	got, err = Expand("~")
	require.NoError(t, err)
	assert.Equal(t, home, got)

	got, err = Expand("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}
