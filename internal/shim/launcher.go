package shim

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/terassyi/jsvm/internal/layout"
	"github.com/terassyi/jsvm/internal/platform"
	"github.com/terassyi/jsvm/internal/version"
)

// AssemblePath builds the PATH a tool is exec'd under: the platform's
// node bin directory, then its package-manager bin directory, then (for
// a package-owned binary) the package's own image bin directory, then
// the inherited system PATH with the shim directory stripped out so a
// dispatched tool can never recursively re-enter the shim.
func AssemblePath(l *layout.Layout, p platform.Platform, packageBinDir, systemPath string) string {
	var dirs []string

	if d := ToolBinDir(l, "node", p.Node); d != "" {
		dirs = append(dirs, d)
	}

	pkgMgrDir := packageManagerBinDir(l, p)
	if pkgMgrDir != "" {
		dirs = append(dirs, pkgMgrDir)
	}

	if packageBinDir != "" {
		dirs = append(dirs, packageBinDir)
	}

	dirs = append(dirs, stripShimDir(l, systemPath)...)

	return strings.Join(dirs, string(os.PathListSeparator))
}

// packageManagerBinDir picks whichever package manager is pinned,
// preferring the highest-provenance source when more than one is set.
func packageManagerBinDir(l *layout.Layout, p platform.Platform) string {
	type candidate struct {
		tool string
		v    platform.Sourced[version.Version]
	}
	candidates := []candidate{
		{"yarn", p.Yarn},
		{"pnpm", p.Pnpm},
		{"npm", p.Npm},
	}

	best := -1
	var bestDir string
	for _, c := range candidates {
		if !c.v.IsSet() {
			continue
		}
		if int(c.v.Source) > best {
			best = int(c.v.Source)
			bestDir = ToolBinDir(l, c.tool, c.v)
		}
	}
	return bestDir
}

// stripShimDir removes the shim directory from a colon-separated system
// PATH, returning the remaining entries in order.
func stripShimDir(l *layout.Layout, systemPath string) []string {
	shimDir := l.ShimDir()
	var out []string
	for _, p := range filepath.SplitList(systemPath) {
		if p == shimDir {
			continue
		}
		out = append(out, p)
	}
	return out
}
