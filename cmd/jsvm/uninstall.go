package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/terassyi/jsvm/internal/distro"
	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
	"github.com/terassyi/jsvm/internal/pkginstall"
	"github.com/terassyi/jsvm/internal/platform"
	"github.com/terassyi/jsvm/internal/toolspec"
	"github.com/terassyi/jsvm/internal/version"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <tool[@version]>...",
	Short: "Remove an installed tool image or global package",
	Long: `Uninstall removes a built-in runtime's image directory (or, for an
arbitrary package, its staged install and shims), clearing the
default platform's field if it currently points at what was removed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := toolspec.ParseArgs(args)
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeInvalidToolName, "invalid uninstall argument", err)
		}

		def, err := app.sess.DefaultPlatform()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeReadPlatform, "failed to read default platform", err)
		}
		changed := false

		for _, spec := range specs {
			if spec.Class == toolspec.ClassPackage {
				in := &pkginstall.Installer{Layout: app.layout, ShimBinary: shimBinaryPath()}
				if err := in.Uninstall(spec.Name); err != nil {
					return jsvmerrors.Wrap(jsvmerrors.CodeDeleteDir, "failed to uninstall "+spec.Name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "uninstalled %s\n", spec.Name)
				continue
			}

			entry, err := resolveEntry(cmd.Context(), spec.Name, spec.Version)
			if err != nil {
				return err
			}
			lock, err := distro.AcquireLock(app.layout, spec.Name)
			if err != nil {
				return jsvmerrors.Wrap(jsvmerrors.CodeLockAcquire, "failed to acquire uninstall lock", err)
			}
			imageDir := app.layout.ImageToolVersionDir(spec.Name, entry.Version)
			removeErr := os.RemoveAll(imageDir)
			lock.Release()
			if removeErr != nil {
				return jsvmerrors.Wrap(jsvmerrors.CodeDeleteDir, "failed to remove "+spec.Name+"@"+entry.Version, removeErr)
			}

			if fieldVersion(def, spec.Class) == entry.Version {
				if spec.Class == toolspec.ClassNode {
					def = platform.Platform{}
				} else {
					clearPlatformField(&def, spec.Class)
				}
				changed = true
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uninstalled %s@%s\n", spec.Name, entry.Version)
		}

		if changed {
			if err := app.sess.SetDefaultPlatform(def); err != nil {
				return jsvmerrors.Wrap(jsvmerrors.CodeWriteCounterparts, "failed to persist default platform", err)
			}
		}
		return nil
	},
}

func fieldVersion(p platform.Platform, c toolspec.Class) string {
	switch c {
	case toolspec.ClassNode:
		if p.Node.IsSet() {
			return p.Node.Value.String()
		}
	case toolspec.ClassNpm:
		if p.Npm.IsSet() {
			return p.Npm.Value.String()
		}
	case toolspec.ClassPnpm:
		if p.Pnpm.IsSet() {
			return p.Pnpm.Value.String()
		}
	case toolspec.ClassYarn:
		if p.Yarn.IsSet() {
			return p.Yarn.Value.String()
		}
	}
	return ""
}

func clearPlatformField(p *platform.Platform, c toolspec.Class) {
	switch c {
	case toolspec.ClassNpm:
		p.Npm = platform.Sourced[version.Version]{}
	case toolspec.ClassPnpm:
		p.Pnpm = platform.Sourced[version.Version]{}
	case toolspec.ClassYarn:
		p.Yarn = platform.Sourced[version.Version]{}
	}
}
