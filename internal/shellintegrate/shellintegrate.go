// Package shellintegrate renders the shell-integration postscript that
// the setup command writes into a user's profile: a snippet adding the
// shim directory (and user bin directory) to PATH.
package shellintegrate

import (
	"os"
	"strings"
)

// Shell variable references and commands used in generated output.
const (
	shellHome   = "$HOME"
	shellPath   = "$PATH"
	fishAddPath = "fish_add_path"
)

// ShellType represents a shell syntax type.
type ShellType string

const (
	// ShellPosix represents POSIX-compatible shells (bash, zsh, sh).
	ShellPosix ShellType = "posix"
	// ShellFish represents the fish shell.
	ShellFish ShellType = "fish"
)

// ParseShellType parses a string into a ShellType.
func ParseShellType(s string) (ShellType, error) {
	switch s {
	case "posix", "bash", "sh", "zsh", "":
		return ShellPosix, nil
	case "fish":
		return ShellFish, nil
	default:
		return "", &unsupportedShellError{shell: s}
	}
}

type unsupportedShellError struct{ shell string }

func (e *unsupportedShellError) Error() string {
	return "unsupported shell type: \"" + e.shell + "\" (supported: posix, fish)"
}

// Generate produces the PATH statement(s) that add binDirs (shim
// directory first, then any package-owned bin directories) to the
// user's shell PATH, deduplicated and in priority order.
func Generate(binDirs []string, f Formatter) []string {
	dirs := dedupStrings(toShellPaths(binDirs))
	if len(dirs) == 0 {
		return nil
	}
	return []string{f.ExportPath(dirs)}
}

// toShellPaths converts absolute paths under $HOME to $HOME/... form for
// shell portability, e.g. "/home/user/.jsvm/bin" -> "$HOME/.jsvm/bin".
func toShellPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = toShellPath(p)
	}
	return out
}

func toShellPath(p string) string {
	home, _ := os.UserHomeDir()
	if home != "" && strings.HasPrefix(p, home+"/") {
		return shellHome + "/" + p[len(home)+1:]
	}
	if p != "" && p == home {
		return shellHome
	}
	return p
}

// dedupStrings removes duplicate strings while preserving order.
func dedupStrings(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	result := make([]string, 0, len(ss))
	for _, s := range ss {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		result = append(result, s)
	}
	return result
}
