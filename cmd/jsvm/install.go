package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/terassyi/jsvm/internal/distro"
	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
	"github.com/terassyi/jsvm/internal/inventory"
	"github.com/terassyi/jsvm/internal/pkginstall"
	"github.com/terassyi/jsvm/internal/platform"
	"github.com/terassyi/jsvm/internal/shim"
	"github.com/terassyi/jsvm/internal/toolspec"
	"github.com/terassyi/jsvm/internal/ui"
	"github.com/terassyi/jsvm/internal/version"
)

var installCmd = &cobra.Command{
	Use:   "install <tool[@version]>...",
	Short: "Install one or more tools and set them as the default",
	Long: `Install fetches and unpacks the requested tools (node, npm, pnpm,
yarn, or an arbitrary global package) and records them as the user's
default platform, so every shim dispatch falls back to them outside
any pinned project.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := toolspec.ParseArgs(args)
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeInvalidToolName, "invalid install argument", err)
		}

		h, err := app.sess.Hooks()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeReadHooks, "failed to load hooks config", err)
		}

		installer := distro.NewInstaller(app.layout, h)
		installer.Progress = ui.NewProgressManager(cmd.OutOrStdout())

		def, err := app.sess.DefaultPlatform()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeReadPlatform, "failed to read default platform", err)
		}

		for _, spec := range specs {
			if spec.Class == toolspec.ClassPackage {
				if err := installPackage(cmd.Context(), cmd, spec, def); err != nil {
					return err
				}
				continue
			}

			entry, err := resolveEntry(cmd.Context(), spec.Name, spec.Version)
			if err != nil {
				return err
			}
			if _, _, err := installer.Install(cmd.Context(), spec.Name, entry.Version); err != nil {
				return err
			}
			installer.Progress.Wait()

			v, err := version.Parse(entry.Version)
			if err != nil {
				return jsvmerrors.Wrap(jsvmerrors.CodeParsePlatform, "failed to parse resolved version", err)
			}
			setPlatformField(&def, spec.Class, v)
			fmt.Fprintf(cmd.OutOrStdout(), "installed %s@%s\n", spec.Name, entry.Version)
		}

		if err := app.sess.SetDefaultPlatform(def); err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeWriteCounterparts, "failed to persist default platform", err)
		}
		return nil
	},
}

func resolveEntry(ctx context.Context, tool string, spec version.Spec) (inventory.Entry, error) {
	idx, err := app.sess.Index(ctx, tool)
	if err != nil {
		return inventory.Entry{}, jsvmerrors.Wrap(jsvmerrors.CodeRegistryFetch, "failed to load "+tool+" index", err)
	}
	entry, err := inventory.Resolve(tool, idx, spec)
	if err != nil {
		return inventory.Entry{}, jsvmerrors.Wrap(jsvmerrors.CodeNoMatchNode, "no matching "+tool+" version", err)
	}
	return entry, nil
}

// installPackage installs a global package through npm, located on the
// active platform's PATH by resolveManagerBinary.
func installPackage(ctx context.Context, cmd *cobra.Command, spec toolspec.Spec, p platform.Platform) error {
	managerName, managerBin, err := resolveManagerBinary(p)
	if err != nil {
		return err
	}

	versionSpec := ""
	if !(spec.Version.Kind == version.KindTag && spec.Version.Tag == version.TagLTS && spec.Version.TagName == "") {
		versionSpec = spec.Version.Render()
	}

	nodeVersion := ""
	if p.Node.IsSet() {
		nodeVersion = p.Node.Value.String()
	}

	in := &pkginstall.Installer{Layout: app.layout, ShimBinary: shimBinaryPath()}
	if _, err := in.Install(ctx, managerName, spec.Name, versionSpec, managerBin, nodeVersion); err != nil {
		return jsvmerrors.Wrap(jsvmerrors.CodePackageUnpack, "failed to install "+spec.Name, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "installed %s via %s\n", spec.Name, managerName)
	return nil
}

// resolveManagerBinary picks npm to drive global package installs: npm
// ships bundled with every Node release, so it is always present once
// node itself is installed.
func resolveManagerBinary(p platform.Platform) (name, path string, err error) {
	name = "npm"
	abs, lookErr := lookupInPath(assembleLookupPath(p), name)
	if lookErr != nil {
		return "", "", jsvmerrors.Wrap(jsvmerrors.CodeBinaryNotFound, "npm is not available in the resolved platform", lookErr).
			WithHint("run `jsvm install node` first to get a bundled npm")
	}
	return name, abs, nil
}

// assembleLookupPath builds the PATH used to locate a package manager
// binary ahead of the inherited system PATH.
func assembleLookupPath(p platform.Platform) string {
	return shim.AssemblePath(app.layout, p, "", os.Getenv("PATH"))
}

// lookupInPath searches the colon-separated dirs for the first
// non-directory entry named name, honoring shim.AssemblePath's priority
// order.
func lookupInPath(pathEnv, name string) (string, error) {
	for _, dir := range filepath.SplitList(pathEnv) {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		return candidate, nil
	}
	return "", fmt.Errorf("%s not found in %s", name, pathEnv)
}

func shimBinaryPath() string {
	return app.layout.ShimPath("jsvm-shim", "")
}

func setPlatformField(p *platform.Platform, c toolspec.Class, v version.Version) {
	switch c {
	case toolspec.ClassNode:
		p.Node = platform.NewSourced(v, platform.SourceDefault)
	case toolspec.ClassNpm:
		p.Npm = platform.NewSourced(v, platform.SourceDefault)
	case toolspec.ClassPnpm:
		p.Pnpm = platform.NewSourced(v, platform.SourceDefault)
	case toolspec.ClassYarn:
		p.Yarn = platform.NewSourced(v, platform.SourceDefault)
	}
}
