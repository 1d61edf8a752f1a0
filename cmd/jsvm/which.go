package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
	"github.com/terassyi/jsvm/internal/pkgstate"
	"github.com/terassyi/jsvm/internal/platform"
	"github.com/terassyi/jsvm/internal/printer"
	"github.com/terassyi/jsvm/internal/shim"
)

var whichFormat string

var whichCmd = &cobra.Command{
	Use:   "which <tool>",
	Short: "Print the resolved absolute path of a tool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := printer.ParseFormat(whichFormat)
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeInvalidToolName, "invalid --format", err)
		}

		tool := args[0]
		def, err := app.sess.DefaultPlatform()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeReadPlatform, "failed to read default platform", err)
		}
		proj, err := app.sess.ProjectPlatform()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeParsePlatform, "failed to resolve project platform", err)
		}
		merged := platform.OverlayChain(def, []platform.Platform{proj})

		packageBinDir := ""
		if bc, err := pkgstate.ReadBinConfig(app.layout, tool); err == nil && bc != nil {
			packageBinDir = filepath.Dir(filepath.Join(app.layout.ImagePackageDir(bc.Package), bc.Path))
		}

		pathEnv := shim.AssemblePath(app.layout, merged, packageBinDir, os.Getenv("PATH"))
		abs, err := lookupInPath(pathEnv, tool)
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeBinaryNotFound, tool+" is not available in the resolved platform", err).
				WithHint("run `jsvm install " + tool + "` to fetch it")
		}

		printer.PrintWhich(cmd.OutOrStdout(), tool, abs, format)
		return nil
	},
}

func init() {
	whichCmd.Flags().StringVar(&whichFormat, "format", "human", "Output format (human, plain)")
}
