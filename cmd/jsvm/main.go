package main

import (
	"fmt"
	"os"

	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jsvm:", err)
		var je *jsvmerrors.Error
		if as, ok := err.(*jsvmerrors.Error); ok {
			je = as
			if je.Hint != "" {
				fmt.Fprintln(os.Stderr, "  "+je.Hint)
			}
			os.Exit(je.ExitCode())
		}
		os.Exit(1)
	}
}
