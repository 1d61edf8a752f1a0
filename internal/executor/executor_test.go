package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeNpmLocalInstallIsTool(t *testing.T) {
	p := Categorize("npm", []string{"install", "lodash"}, false)
	assert.Equal(t, KindTool, p.Kind)
}

func TestCategorizeNpmGlobalInstallSinglePackage(t *testing.T) {
	p := Categorize("npm", []string{"install", "--global", "eslint"}, false)
	require.Equal(t, KindPackageInstall, p.Kind)
	require.Len(t, p.Targets, 1)
	assert.Equal(t, "eslint", p.Targets[0].Raw)
}

func TestCategorizeNpmGlobalInstallAlias(t *testing.T) {
	p := Categorize("npm", []string{"i", "-g", "eslint"}, false)
	assert.Equal(t, KindPackageInstall, p.Kind)
}

func TestCategorizeNpmGlobalInstallBuiltinTool(t *testing.T) {
	p := Categorize("npm", []string{"install", "-g", "node@20"}, false)
	require.Equal(t, KindInternalInstall, p.Kind)
	require.NotNil(t, p.Targets[0].Spec)
}

func TestCategorizeNpmGlobalInstallMultipleTargets(t *testing.T) {
	p := Categorize("npm", []string{"install", "-g", "eslint", "prettier"}, false)
	require.Equal(t, KindMultiple, p.Kind)
	require.Len(t, p.Sub, 2)
	assert.Equal(t, KindPackageInstall, p.Sub[0].Kind)
	assert.Equal(t, KindPackageInstall, p.Sub[1].Kind)
}

func TestCategorizeNpmGlobalEmptyTailIsPassthrough(t *testing.T) {
	p := Categorize("npm", []string{"install", "--global"}, false)
	assert.Equal(t, KindTool, p.Kind)
}

func TestCategorizeNpmUninstallGlobal(t *testing.T) {
	p := Categorize("npm", []string{"uninstall", "-g", "eslint"}, false)
	assert.Equal(t, KindUninstall, p.Kind)
}

func TestCategorizeNpmLinkNoTail(t *testing.T) {
	p := Categorize("npm", []string{"link"}, false)
	require.Equal(t, KindPackageLink, p.Kind)
	assert.Empty(t, p.Targets)
}

func TestCategorizeNpmLinkWithTail(t *testing.T) {
	p := Categorize("npm", []string{"link", "my-pkg"}, false)
	require.Equal(t, KindPackageLink, p.Kind)
	require.Len(t, p.Targets, 1)
	assert.Equal(t, "my-pkg", p.Targets[0].Raw)
}

func TestCategorizeYarnRequiresLiteralGlobalAdd(t *testing.T) {
	p := Categorize("yarn", []string{"add", "eslint"}, false)
	assert.Equal(t, KindTool, p.Kind)
}

func TestCategorizeYarnGlobalAdd(t *testing.T) {
	p := Categorize("yarn", []string{"global", "add", "eslint"}, false)
	assert.Equal(t, KindPackageInstall, p.Kind)
}

func TestCategorizeYarnGlobalRemove(t *testing.T) {
	p := Categorize("yarn", []string{"global", "remove", "eslint"}, false)
	assert.Equal(t, KindUninstall, p.Kind)
}

func TestCategorizeUnsafeGlobalBypassesInterception(t *testing.T) {
	p := Categorize("npm", []string{"install", "-g", "eslint"}, true)
	assert.Equal(t, KindTool, p.Kind)
}

func TestLinkVersionMismatch(t *testing.T) {
	active := mustVersion(t, "20.11.0")

	mismatch, err := LinkVersionMismatch(active, "18.19.0")
	require.NoError(t, err)
	assert.True(t, mismatch)

	match, err := LinkVersionMismatch(active, "20.1.0")
	require.NoError(t, err)
	assert.False(t, match)

	none, err := LinkVersionMismatch(active, "")
	require.NoError(t, err)
	assert.False(t, none)
}
