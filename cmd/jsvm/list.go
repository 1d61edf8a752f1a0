package main

import (
	"github.com/spf13/cobra"

	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
	"github.com/terassyi/jsvm/internal/platform"
	"github.com/terassyi/jsvm/internal/printer"
)

var (
	listCurrent bool
	listDefault bool
	listFormat  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the resolved tool versions for the current directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := printer.ParseFormat(listFormat)
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeInvalidToolName, "invalid --format", err)
		}

		def, err := app.sess.DefaultPlatform()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeReadPlatform, "failed to read default platform", err)
		}
		proj, err := app.sess.ProjectPlatform()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeParsePlatform, "failed to resolve project platform", err)
		}
		merged := platform.OverlayChain(def, []platform.Platform{proj})

		if listDefault {
			merged = def
		}

		rows := rowsFor(merged)
		printer.PrintList(cmd.OutOrStdout(), rows, format)
		return nil
	},
}

func rowsFor(p platform.Platform) []printer.Row {
	var rows []printer.Row
	if p.Node.IsSet() {
		rows = append(rows, printer.Row{Tool: "node", Version: p.Node.Value.String(), Source: p.Node.Source})
	}
	if p.Npm.IsSet() {
		rows = append(rows, printer.Row{Tool: "npm", Version: p.Npm.Value.String(), Source: p.Npm.Source})
	}
	if p.Pnpm.IsSet() {
		rows = append(rows, printer.Row{Tool: "pnpm", Version: p.Pnpm.Value.String(), Source: p.Pnpm.Source})
	}
	if p.Yarn.IsSet() {
		rows = append(rows, printer.Row{Tool: "yarn", Version: p.Yarn.Value.String(), Source: p.Yarn.Source})
	}
	return rows
}

func init() {
	listCmd.Flags().BoolVarP(&listCurrent, "current", "c", false, "Show only the currently active platform (same as default output)")
	listCmd.Flags().BoolVarP(&listDefault, "default", "d", false, "Show only the user default platform, ignoring any project")
	listCmd.Flags().StringVar(&listFormat, "format", "human", "Output format (human, plain)")
}
