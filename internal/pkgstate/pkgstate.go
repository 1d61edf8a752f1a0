// Package pkgstate persists the two JSON records the global-package
// installer writes once per installed package and once per shim:
// PackageConfig and BinConfig.
package pkgstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/terassyi/jsvm/internal/distro"
	"github.com/terassyi/jsvm/internal/layout"
)

// PackageConfig is the per-installed-global-package record.
type PackageConfig struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Platform string   `json:"platform"`
	Bins     []string `json:"bins"`
	Manager  string   `json:"manager"`
}

// BinConfig is the per-installed-binary record.
type BinConfig struct {
	Name     string               `json:"name"`
	Package  string               `json:"package"`
	Version  string               `json:"version"`
	Path     string               `json:"path"`
	Platform string               `json:"platform"`
	Loader   *distro.ScriptLoader `json:"loader,omitempty"`
}

// ReadPackageConfig loads name's PackageConfig, or nil if it doesn't
// exist.
func ReadPackageConfig(l *layout.Layout, name string) (*PackageConfig, error) {
	return readJSON[PackageConfig](l.PackageConfigFile(name))
}

// WritePackageConfig atomically persists pc.
func WritePackageConfig(l *layout.Layout, pc *PackageConfig) error {
	return writeJSON(l.PackageConfigFile(pc.Name), pc)
}

// DeletePackageConfig removes name's PackageConfig, tolerating absence.
func DeletePackageConfig(l *layout.Layout, name string) error {
	return removeIfExists(l.PackageConfigFile(name))
}

// ReadBinConfig loads name's BinConfig, or nil if it doesn't exist.
func ReadBinConfig(l *layout.Layout, name string) (*BinConfig, error) {
	return readJSON[BinConfig](l.BinConfigFile(name))
}

// WriteBinConfig atomically persists bc.
func WriteBinConfig(l *layout.Layout, bc *BinConfig) error {
	return writeJSON(l.BinConfigFile(bc.Name), bc)
}

// DeleteBinConfig removes name's BinConfig, tolerating absence.
func DeleteBinConfig(l *layout.Layout, name string) error {
	return removeIfExists(l.BinConfigFile(name))
}

// BinConfigsForPackage returns every BinConfig (including orphans not
// backed by a PackageConfig) whose Package field equals pkgName, sorted
// by bin name for deterministic iteration.
func BinConfigsForPackage(l *layout.Layout, pkgName string) ([]*BinConfig, error) {
	entries, err := os.ReadDir(l.BinConfigDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read bin config directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, trimJSONExt(e.Name()))
	}
	sort.Strings(names)

	var out []*BinConfig
	for _, n := range names {
		bc, err := ReadBinConfig(l, n)
		if err != nil {
			return nil, err
		}
		if bc != nil && bc.Package == pkgName {
			out = append(out, bc)
		}
	}
	return out, nil
}

func trimJSONExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

func readJSON[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &v, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, ".jsvm-"+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
