package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
	"github.com/terassyi/jsvm/internal/layout"
	"github.com/terassyi/jsvm/internal/session"
)

// logLevelFlag implements pflag.Value for slog.Level.
type logLevelFlag struct {
	level slog.Level
}

func (f *logLevelFlag) String() string { return strings.ToLower(f.level.String()) }
func (f *logLevelFlag) Type() string   { return "string" }
func (f *logLevelFlag) Set(s string) error {
	switch strings.ToLower(s) {
	case "debug":
		f.level = slog.LevelDebug
	case "info":
		f.level = slog.LevelInfo
	case "warn":
		f.level = slog.LevelWarn
	case "error":
		f.level = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", s)
	}
	return nil
}

func (f *logLevelFlag) Level() slog.Level { return f.level }

var globalLogLevel = &logLevelFlag{level: slog.LevelWarn}

// appContext bundles the layout and session every subcommand needs,
// built once in PersistentPreRunE.
type appContext struct {
	layout *layout.Layout
	sess   *session.Session
}

var app appContext

var rootCmd = &cobra.Command{
	Use:   "jsvm",
	Short: "A per-user JavaScript toolchain manager",
	Long: `jsvm installs and pins Node, npm, pnpm, and Yarn per project,
dispatching through small shims on PATH so the right version runs
without activating a shell or switching directories.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if env := os.Getenv("JSVM_LOGLEVEL"); env != "" && !cmd.Flags().Changed("log-level") {
			_ = globalLogLevel.Set(env)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: globalLogLevel.Level()})))

		l, err := layout.New()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeCreateDir, "failed to resolve jsvm layout", err)
		}
		app.layout = l
		app.sess = session.New(l)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Var(globalLogLevel, "log-level", "Log level (debug, info, warn, error)")
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		versionCmd,
		installCmd,
		pinCmd,
		fetchCmd,
		uninstallCmd,
		runCmd,
		listCmd,
		whichCmd,
		setupCmd,
		completionCmd,
		useCmd,
	)
}
