package main

import (
	"github.com/spf13/cobra"

	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
)

var useCmd = &cobra.Command{
	Use:    "use <tool[@version]>",
	Short:  "Deprecated: use install or pin instead",
	Hidden: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		return jsvmerrors.New(jsvmerrors.CodeDeprecatedCommand, "`jsvm use` has been removed").
			WithHint("run `jsvm install <tool>` to set a default, or `jsvm pin <tool>` inside a project")
	},
}
