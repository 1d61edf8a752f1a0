package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terassyi/jsvm/internal/distro"
	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
	"github.com/terassyi/jsvm/internal/hooks"
	"github.com/terassyi/jsvm/internal/toolspec"
	"github.com/terassyi/jsvm/internal/ui"
)

// installerFor builds a distro.Installer reporting progress to cmd's
// output stream, shared by pin and fetch.
func installerFor(h *hooks.Config, cmd *cobra.Command) *distro.Installer {
	in := distro.NewInstaller(app.layout, h)
	in.Progress = ui.NewProgressManager(cmd.OutOrStdout())
	return in
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <tool[@version]>...",
	Short: "Download a runtime into the image tree without activating it",
	Long: `Fetch resolves and downloads the requested runtimes, leaving the
default platform and any project's manifest untouched. Useful for
pre-warming the image tree ahead of a pin or install that needs to
run offline.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := toolspec.ParseArgs(args)
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeInvalidToolName, "invalid fetch argument", err)
		}

		h, err := app.sess.Hooks()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeReadHooks, "failed to load hooks config", err)
		}
		installer := installerFor(h, cmd)

		for _, spec := range specs {
			if spec.Class == toolspec.ClassPackage {
				return jsvmerrors.New(jsvmerrors.CodeCannotPinPackage, "cannot fetch package "+spec.Name+": fetch only supports node, npm, pnpm, and yarn")
			}

			entry, err := resolveEntry(cmd.Context(), spec.Name, spec.Version)
			if err != nil {
				return err
			}
			if _, _, err := installer.Install(cmd.Context(), spec.Name, entry.Version); err != nil {
				return err
			}
			installer.Progress.Wait()
			fmt.Fprintf(cmd.OutOrStdout(), "fetched %s@%s\n", spec.Name, entry.Version)
		}
		return nil
	},
}
