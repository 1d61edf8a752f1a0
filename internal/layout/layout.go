// Package layout is the canonical on-disk path façade for jsvm. Every
// other package reaches the filesystem through a *Layout rather than
// constructing paths itself.
package layout

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultHomeSuffix = ".jsvm"

// HomeEnvVar is the environment variable that overrides the layout root.
const HomeEnvVar = "JSVM_HOME"

// Layout holds the configured root and derives every path jsvm persists
// state under.
type Layout struct {
	root string
}

// Option is a functional option for configuring a Layout.
type Option func(*Layout)

// WithRoot overrides the layout root directory.
func WithRoot(root string) Option {
	return func(l *Layout) {
		l.root = root
	}
}

// New creates a Layout. The root defaults to $JSVM_HOME, or ~/.jsvm if
// that variable is unset, before options are applied.
func New(opts ...Option) (*Layout, error) {
	root := os.Getenv(HomeEnvVar)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		root = filepath.Join(home, defaultHomeSuffix)
	}

	expanded, err := Expand(root)
	if err != nil {
		return nil, err
	}

	l := &Layout{root: expanded}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Root returns the layout root directory.
func (l *Layout) Root() string { return l.root }

// EnsureDir creates path and any missing parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (l *Layout) dir(elem ...string) string {
	d := filepath.Join(append([]string{l.root}, elem...)...)
	_ = EnsureDir(d)
	return d
}

// InventoryDir is tools/inventory.
func (l *Layout) InventoryDir() string { return l.dir("tools", "inventory") }

// InventoryToolDir is tools/inventory/<tool>.
func (l *Layout) InventoryToolDir(tool string) string { return l.dir("tools", "inventory", tool) }

// InventoryArchivePath is the cached archive path for a tool version, with
// the given file extension (including the leading dot).
func (l *Layout) InventoryArchivePath(tool, version, ext string) string {
	return filepath.Join(l.InventoryToolDir(tool), tool+"-"+version+ext)
}

// ImageDir is tools/image.
func (l *Layout) ImageDir() string { return l.dir("tools", "image") }

// ImageToolVersionDir is tools/image/<tool>/<version>.
func (l *Layout) ImageToolVersionDir(tool, version string) string {
	return l.dir("tools", "image", tool, version)
}

// ImagePackageDir is tools/image/packages/<name>.
func (l *Layout) ImagePackageDir(name string) string {
	return l.dir("tools", "image", "packages", name)
}

// ShimDir is bin, the directory added to PATH.
func (l *Layout) ShimDir() string { return l.dir("bin") }

// ShimPath is bin/<name>[ext].
func (l *Layout) ShimPath(name, ext string) string {
	return filepath.Join(l.ShimDir(), name+ext)
}

// TmpDir is tmp, scratch space for downloads and unpacking.
func (l *Layout) TmpDir() string { return l.dir("tmp") }

// CacheDir is cache/<tool>.
func (l *Layout) CacheDir(tool string) string { return l.dir("cache", tool) }

// IndexFile is cache/<tool>/index.json.
func (l *Layout) IndexFile(tool string) string {
	return filepath.Join(l.CacheDir(tool), "index.json")
}

// IndexExpiryFile is cache/<tool>/index.json.expires.
func (l *Layout) IndexExpiryFile(tool string) string {
	return filepath.Join(l.CacheDir(tool), "index.json.expires")
}

// HooksFile is tools/hooks.toml.
func (l *Layout) HooksFile() string { return filepath.Join(l.dir("tools"), "hooks.toml") }

// UserPlatformFile is tools/user/platform.json.
func (l *Layout) UserPlatformFile() string {
	return filepath.Join(l.dir("tools", "user"), "platform.json")
}

// PackageConfigFile is tools/user/packages/<name>.json.
func (l *Layout) PackageConfigFile(name string) string {
	return filepath.Join(l.dir("tools", "user", "packages"), name+".json")
}

// PackageConfigDir is tools/user/packages.
func (l *Layout) PackageConfigDir() string { return l.dir("tools", "user", "packages") }

// BinConfigFile is tools/user/bins/<name>.json.
func (l *Layout) BinConfigFile(name string) string {
	return filepath.Join(l.dir("tools", "user", "bins"), name+".json")
}

// BinConfigDir is tools/user/bins.
func (l *Layout) BinConfigDir() string { return l.dir("tools", "user", "bins") }

// LogDir is log.
func (l *Layout) LogDir() string { return l.dir("log") }

// ToolLockFile is the per-tool advisory lock guarding an image
// directory's install/uninstall lifecycle.
func (l *Layout) ToolLockFile(tool string) string {
	return filepath.Join(l.dir("tools", "image"), tool+".lock")
}

// BundledNpmVersionFile is the side-car file recording the npm version
// bundled with a Node image, written after a Node install.
func (l *Layout) BundledNpmVersionFile(nodeVersion string) string {
	return filepath.Join(l.ImageToolVersionDir("node", nodeVersion), ".bundled-npm-version")
}

// Expand expands a leading "~" to the user's home directory.
func Expand(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}
