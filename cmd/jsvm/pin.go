package main

import (
	"fmt"

	"github.com/spf13/cobra"

	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
	"github.com/terassyi/jsvm/internal/manifest"
	"github.com/terassyi/jsvm/internal/toolspec"
)

var pinCmd = &cobra.Command{
	Use:   "pin <tool[@version]>...",
	Short: "Pin resolved runtime versions into the current project's manifest",
	Long: `Pin resolves each requested runtime against its index and records
the exact version in package.json's "toolchain" block, fetching it
into the image tree if it is not already installed. Pin only accepts
node, npm, pnpm, and yarn — arbitrary packages cannot be pinned.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := toolspec.ParseArgs(args)
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeInvalidToolName, "invalid pin argument", err)
		}

		m, err := app.sess.Project()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeReadPlatform, "failed to resolve current project", err)
		}
		if m == nil {
			return jsvmerrors.New(jsvmerrors.CodeNotInPackage, "no package.json found in this directory or any ancestor").
				WithHint("run `jsvm pin` from inside a project with a package.json")
		}

		h, err := app.sess.Hooks()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeReadHooks, "failed to load hooks config", err)
		}
		installer := installerFor(h, cmd)

		chain, err := manifest.Chain(m.Path())
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeReadPlatform, "failed to resolve the project's extension chain", err)
		}
		nodePinned := false
		if tc := manifest.MergeToolchain(chain); tc != nil && tc.Node != "" {
			nodePinned = true
		}

		for _, spec := range specs {
			if spec.Class == toolspec.ClassPackage {
				return jsvmerrors.New(jsvmerrors.CodeCannotPinPackage, "cannot pin package "+spec.Name+": only node, npm, pnpm, and yarn can be pinned")
			}
			if spec.Class != toolspec.ClassNode && !nodePinned {
				return jsvmerrors.New(jsvmerrors.CodeNoPinnedNode, fmt.Sprintf("cannot pin %s because the Node version is not pinned", spec.Name)).
					WithHint("run `jsvm pin node` first")
			}

			entry, err := resolveEntry(cmd.Context(), spec.Name, spec.Version)
			if err != nil {
				return err
			}
			if _, _, err := installer.Install(cmd.Context(), spec.Name, entry.Version); err != nil {
				return err
			}
			if err := manifest.Pin(m.Path(), spec, entry.Version); err != nil {
				return jsvmerrors.Wrap(jsvmerrors.CodeWriteCounterparts, "failed to pin "+spec.Name, err)
			}
			if spec.Class == toolspec.ClassNode {
				nodePinned = true
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pinned %s@%s in %s\n", spec.Name, entry.Version, m.Path())
		}
		return nil
	},
}
