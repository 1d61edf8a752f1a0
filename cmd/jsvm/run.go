package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
	"github.com/terassyi/jsvm/internal/platform"
	"github.com/terassyi/jsvm/internal/procexec"
	"github.com/terassyi/jsvm/internal/shim"
	"github.com/terassyi/jsvm/internal/version"
)

var (
	runNode    string
	runNpm     string
	runPnpm    string
	runYarn    string
	runNoNpm   bool
	runNoPnpm  bool
	runNoYarn  bool
	runEnvVars []string
)

var runCmd = &cobra.Command{
	Use:   "run -- <command> [args...]",
	Short: "Run a command under an ad-hoc platform override",
	Long: `Run assembles a PATH from the merged default/project platform, with
any --node/--npm/--pnpm/--yarn flags overriding individual fields for
this invocation only, then execs command under it. Nothing is
persisted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := buildOverrides()
		if err != nil {
			return err
		}

		def, err := app.sess.DefaultPlatform()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeReadPlatform, "failed to read default platform", err)
		}
		proj, err := app.sess.ProjectPlatform()
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeParsePlatform, "failed to resolve project platform", err)
		}
		base := platform.OverlayChain(def, []platform.Platform{proj})
		merged := platform.Merge(base, overrides, bundledNpmResolver)

		if merged.IsNone() {
			return jsvmerrors.New(jsvmerrors.CodeNoPlatform, "no node version is pinned for this project or as a default").
				WithHint("run `jsvm install node` to set a default, or pass --node explicitly")
		}

		pathEnv := shim.AssemblePath(app.layout, merged, "", os.Getenv("PATH"))
		env := append(os.Environ(), "PATH="+pathEnv)
		env = append(env, runEnvVars...)

		code, err := procexec.Run(cmd.Context(), args[0], args[1:], env)
		if err != nil {
			return jsvmerrors.Wrap(jsvmerrors.CodeBinaryExec, "failed to run "+args[0], err)
		}
		os.Exit(code)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runNode, "node", "", "Override the node version for this invocation")
	runCmd.Flags().StringVar(&runNpm, "npm", "", "Override the npm version for this invocation")
	runCmd.Flags().StringVar(&runPnpm, "pnpm", "", "Override the pnpm version for this invocation")
	runCmd.Flags().StringVar(&runYarn, "yarn", "", "Override the yarn version for this invocation")
	runCmd.Flags().BoolVar(&runNoNpm, "no-npm", false, "Remove npm from the resolved platform")
	runCmd.Flags().BoolVar(&runNoPnpm, "no-pnpm", false, "Remove pnpm from the resolved platform")
	runCmd.Flags().BoolVar(&runNoYarn, "no-yarn", false, "Remove yarn from the resolved platform")
	runCmd.Flags().StringArrayVar(&runEnvVars, "env", nil, "Additional NAME=value environment variable (repeatable)")
}

func buildOverrides() (platform.Overrides, error) {
	var out platform.Overrides

	if runNode != "" {
		v, err := version.Parse(runNode)
		if err != nil {
			return out, jsvmerrors.Wrap(jsvmerrors.CodeParsePlatform, "invalid --node version", err)
		}
		out.Node = platform.Spec{Mode: platform.SpecSome, Value: v}
	}

	pkgSpec := func(raw string, no bool) (platform.Spec, error) {
		switch {
		case no:
			return platform.Spec{Mode: platform.SpecNone}, nil
		case raw != "":
			v, err := version.Parse(raw)
			if err != nil {
				return platform.Spec{}, err
			}
			return platform.Spec{Mode: platform.SpecSome, Value: v}, nil
		default:
			return platform.Spec{Mode: platform.SpecInherit}, nil
		}
	}

	var err error
	if out.Npm, err = pkgSpec(runNpm, runNoNpm); err != nil {
		return out, jsvmerrors.Wrap(jsvmerrors.CodeParsePlatform, "invalid --npm version", err)
	}
	if out.Pnpm, err = pkgSpec(runPnpm, runNoPnpm); err != nil {
		return out, jsvmerrors.Wrap(jsvmerrors.CodeParsePlatform, "invalid --pnpm version", err)
	}
	if out.Yarn, err = pkgSpec(runYarn, runNoYarn); err != nil {
		return out, jsvmerrors.Wrap(jsvmerrors.CodeParsePlatform, "invalid --yarn version", err)
	}
	return out, nil
}

// bundledNpmResolver reads back the npm version recorded alongside a
// Node image during install.
func bundledNpmResolver(nodeVersion version.Version) (version.Version, bool) {
	data, err := os.ReadFile(app.layout.BundledNpmVersionFile(nodeVersion.String()))
	if err != nil {
		return version.Version{}, false
	}
	v, err := version.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return version.Version{}, false
	}
	return v, true
}
