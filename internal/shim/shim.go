// Package shim creates and removes the small redirector executables
// that appear in a user's PATH, and assembles the runtime PATH a shim
// execs the real binary under.
package shim

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/terassyi/jsvm/internal/layout"
	"github.com/terassyi/jsvm/internal/platform"
	"github.com/terassyi/jsvm/internal/version"
)

// shimExt is the shim file's platform-specific suffix.
func shimExt() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

// Create installs (or refreshes) a shim named name pointing at
// shimBinary, the absolute path to the jsvm-shim executable. On unix
// this is a symlink; platforms without symlink support fall back to a
// hard copy.
func Create(l *layout.Layout, name, shimBinary string) error {
	path := l.ShimPath(name, shimExt())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create shim directory: %w", err)
	}

	_ = os.Remove(path)
	if err := os.Symlink(shimBinary, path); err != nil {
		return copyFile(shimBinary, path)
	}
	return nil
}

// Remove deletes a shim, tolerating absence (the shim may already have
// been removed by a prior partial operation).
func Remove(l *layout.Layout, name string) error {
	path := l.ShimPath(name, shimExt())
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove shim %s: %w", name, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read shim source %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o755); err != nil {
		return fmt.Errorf("failed to write shim %s: %w", dst, err)
	}
	return nil
}

// ToolName extracts the dispatch name from argv[0], stripping any
// directory components and platform-specific extension.
func ToolName(argv0 string) string {
	base := filepath.Base(argv0)
	return strings.TrimSuffix(base, shimExt())
}

// ToolBinDir returns a tool's image bin directory for a resolved
// version, or "" if the tool has no pinned version.
func ToolBinDir(l *layout.Layout, tool string, v platform.Sourced[version.Version]) string {
	if !v.IsSet() {
		return ""
	}
	return filepath.Join(l.ImageToolVersionDir(tool, v.Value.String()), "bin")
}
