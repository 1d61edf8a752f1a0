package shim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terassyi/jsvm/internal/layout"
)

func TestCreateAndRemove(t *testing.T) {
	l, err := layout.New(layout.WithRoot(t.TempDir()))
	require.NoError(t, err)

	shimBinary := filepath.Join(t.TempDir(), "jsvm-shim")
	require.NoError(t, os.WriteFile(shimBinary, []byte("#!/bin/sh\n"), 0o755))

	require.NoError(t, Create(l, "node", shimBinary))

	target, err := os.Readlink(l.ShimPath("node", ""))
	require.NoError(t, err)
	assert.Equal(t, shimBinary, target)

	require.NoError(t, Remove(l, "node"))
	_, err = os.Lstat(l.ShimPath("node", ""))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveMissingIsNoop(t *testing.T) {
	l, err := layout.New(layout.WithRoot(t.TempDir()))
	require.NoError(t, err)
	assert.NoError(t, Remove(l, "does-not-exist"))
}

func TestToolName(t *testing.T) {
	assert.Equal(t, "node", ToolName("/home/user/.jsvm/bin/node"))
	assert.Equal(t, "npm", ToolName("npm"))
}
