package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
	"github.com/terassyi/jsvm/internal/shellintegrate"
)

var setupShell string

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Print the shell integration snippet that adds jsvm's shims to PATH",
	Long: `Setup prints a PATH export statement for the requested shell type
(defaulting to $SHELL), meant to be appended once to a shell's profile:

    jsvm setup >> ~/.bashrc`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		shellArg := setupShell
		if shellArg == "" {
			shellArg = detectShellFromEnv()
		}

		st, err := shellintegrate.ParseShellType(shellArg)
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeInvalidToolName, "invalid --shell", err)
		}

		f := shellintegrate.NewFormatter(st)
		lines := shellintegrate.Generate([]string{app.layout.ShimDir()}, f)
		for _, line := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func detectShellFromEnv() string {
	shellPath := os.Getenv("SHELL")
	if shellPath == "" {
		return "posix"
	}
	base := shellPath[strings.LastIndex(shellPath, "/")+1:]
	return base
}

func init() {
	setupCmd.Flags().StringVar(&setupShell, "shell", "", "Shell type (posix, fish); defaults to $SHELL")
}
