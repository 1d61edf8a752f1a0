// Package pkginstall installs and uninstalls named global packages by
// shelling out to the foreign package manager with its prefix
// environment variable pointed into a staging directory under the
// layout, then enumerating the installed package's declared binaries
// into shims.
package pkginstall

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/terassyi/jsvm/internal/distro"
	"github.com/terassyi/jsvm/internal/layout"
	"github.com/terassyi/jsvm/internal/pkgstate"
	"github.com/terassyi/jsvm/internal/shim"
)

// ErrBinCollision reports a binary name already owned by a different
// package.
type ErrBinCollision struct {
	Name  string
	Owner string
}

func (e *ErrBinCollision) Error() string {
	return fmt.Sprintf("binary %q is already installed by package %q", e.Name, e.Owner)
}

// prefixEnvVar is the environment variable each foreign manager honors
// to redirect a global install into a staging directory.
var prefixEnvVar = map[string]string{
	"npm":  "npm_config_prefix",
	"yarn": "npm_config_prefix",
	"pnpm": "NPM_CONFIG_PREFIX",
}

// packageJSON is the subset of an installed package's manifest needed
// to enumerate its declared binaries.
type packageJSON struct {
	Name string          `json:"name"`
	Bin  json.RawMessage `json:"bin"`
}

// bins returns the package's declared {name: relative-path} binaries.
// The "bin" field is a tagged variant: a bare string names a single
// binary matching the package's own name; an object maps arbitrary
// names to paths.
func (p packageJSON) bins() (map[string]string, error) {
	if len(p.Bin) == 0 {
		return nil, nil
	}
	var asString string
	if err := json.Unmarshal(p.Bin, &asString); err == nil {
		if asString == "" {
			return nil, nil
		}
		return map[string]string{p.Name: asString}, nil
	}
	var asMap map[string]string
	if err := json.Unmarshal(p.Bin, &asMap); err != nil {
		return nil, fmt.Errorf("malformed \"bin\" field in package manifest: %w", err)
	}
	return asMap, nil
}

// Installer shells out to a foreign package manager to install global
// packages into a staged, per-package image directory.
type Installer struct {
	Layout     *layout.Layout
	ShimBinary string
}

// Install installs pkgName@versionSpec via manager, enumerates its
// declared binaries, writes PackageConfig/BinConfig records, and
// refreshes shims. platformVersion identifies the active node version
// string recorded for later npm-link comparisons.
func (in *Installer) Install(ctx context.Context, manager, pkgName, versionSpec, managerBin, platformVersion string) (*pkgstate.PackageConfig, error) {
	lock, err := distro.AcquireLock(in.Layout, pkgName)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire install lock for %s: %w", pkgName, err)
	}
	defer lock.Release()

	stagingDir := in.Layout.ImagePackageDir(pkgName)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	target := pkgName
	if versionSpec != "" {
		target = pkgName + "@" + versionSpec
	}

	installArgs := installArgsFor(manager, target)
	cmd := exec.CommandContext(ctx, managerBin, installArgs...)
	cmd.Env = append(os.Environ(), prefixEnvVar[manager]+"="+stagingDir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s install of %s failed: %w", manager, target, err)
	}

	pkgDir := filepath.Join(stagingDir, "lib", "node_modules", pkgName)
	data, err := os.ReadFile(filepath.Join(pkgDir, "package.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read installed package manifest for %s: %w", pkgName, err)
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse installed package manifest for %s: %w", pkgName, err)
	}
	declaredBins, err := pkg.bins()
	if err != nil {
		return nil, err
	}

	installedVersion := versionSpec
	var versionDoc struct {
		Version string `json:"version"`
	}
	if json.Unmarshal(data, &versionDoc) == nil && versionDoc.Version != "" {
		installedVersion = versionDoc.Version
	}

	binNames := make([]string, 0, len(declaredBins))
	for name := range declaredBins {
		binNames = append(binNames, name)
	}

	for name, relPath := range declaredBins {
		existing, err := pkgstate.ReadBinConfig(in.Layout, name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.Package != pkgName {
			return nil, &ErrBinCollision{Name: name, Owner: existing.Package}
		}

		binPath := filepath.Join(pkgDir, relPath)
		var loader *distro.ScriptLoader
		if runtime.GOOS == "windows" {
			loader, _ = distro.DetectScriptLoader(binPath)
		}

		bc := &pkgstate.BinConfig{
			Name:     name,
			Package:  pkgName,
			Version:  installedVersion,
			Path:     filepath.Join("lib", "node_modules", pkgName, relPath),
			Platform: platformVersion,
			Loader:   loader,
		}
		if err := pkgstate.WriteBinConfig(in.Layout, bc); err != nil {
			return nil, err
		}
		if err := shim.Create(in.Layout, name, in.ShimBinary); err != nil {
			return nil, fmt.Errorf("failed to create shim for %s: %w", name, err)
		}
	}

	pc := &pkgstate.PackageConfig{
		Name:     pkgName,
		Version:  installedVersion,
		Platform: platformVersion,
		Bins:     binNames,
		Manager:  manager,
	}
	if err := pkgstate.WritePackageConfig(in.Layout, pc); err != nil {
		return nil, err
	}

	return pc, nil
}

// Uninstall removes a package's shims, BinConfigs, PackageConfig, and
// staged image tree. A missing PackageConfig is not an error: any
// orphan BinConfigs still naming pkgName are removed as a best-effort
// cleanup.
func (in *Installer) Uninstall(pkgName string) error {
	lock, err := distro.AcquireLock(in.Layout, pkgName)
	if err != nil {
		return fmt.Errorf("failed to acquire uninstall lock for %s: %w", pkgName, err)
	}
	defer lock.Release()

	pc, err := pkgstate.ReadPackageConfig(in.Layout, pkgName)
	if err != nil {
		return err
	}

	if pc == nil {
		orphans, err := pkgstate.BinConfigsForPackage(in.Layout, pkgName)
		if err != nil {
			return err
		}
		for _, bc := range orphans {
			if err := shim.Remove(in.Layout, bc.Name); err != nil {
				return err
			}
			if err := pkgstate.DeleteBinConfig(in.Layout, bc.Name); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range pc.Bins {
		if err := shim.Remove(in.Layout, name); err != nil {
			return err
		}
		if err := pkgstate.DeleteBinConfig(in.Layout, name); err != nil {
			return err
		}
	}
	if err := pkgstate.DeletePackageConfig(in.Layout, pkgName); err != nil {
		return err
	}

	return os.RemoveAll(in.Layout.ImagePackageDir(pkgName))
}

func installArgsFor(manager, target string) []string {
	switch manager {
	case "yarn":
		return []string{"global", "add", target}
	default: // npm, pnpm
		return []string{"install", "--global", target}
	}
}
