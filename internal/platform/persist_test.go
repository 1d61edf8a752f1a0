package platform

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPlatformRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platform.json")

	p := Platform{
		Node: newSourced(mustVersion(t, "20.11.0"), SourceDefault),
		Npm:  newSourced(mustVersion(t, "10.2.0"), SourceDefault),
	}
	require.NoError(t, WriteDefault(path, p))

	got, err := ReadDefault(path)
	require.NoError(t, err)
	require.True(t, got.Node.IsSet())
	assert.Equal(t, "20.11.0", got.Node.Value.String())
	assert.Equal(t, SourceDefault, got.Node.Source)
	require.True(t, got.Npm.IsSet())
	assert.Equal(t, "10.2.0", got.Npm.Value.String())
	assert.False(t, got.Pnpm.IsSet())
	assert.False(t, got.Yarn.IsSet())
}

func TestReadDefaultMissingFileIsNone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "platform.json")
	got, err := ReadDefault(path)
	require.NoError(t, err)
	assert.True(t, got.IsNone())
}
