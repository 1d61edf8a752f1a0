// Package executor categorizes a tool invocation into a dispatchable
// plan and, via the Runner interface, runs it — including intercepting
// npm/yarn's own global-install/link/uninstall subcommands so they
// route through jsvm's own installer instead of the foreign tool.
package executor

import (
	"strings"

	"github.com/terassyi/jsvm/internal/toolspec"
)

// Kind discriminates a Plan's category.
type Kind int

const (
	// KindTool execs the binary directly with its original arguments.
	KindTool Kind = iota
	// KindPackageInstall shells out to the foreign package manager to
	// install a non-built-in global package.
	KindPackageInstall
	// KindPackageLink links a package into, or as, the current project.
	KindPackageLink
	// KindPackageUpgrade re-installs an already-installed global
	// package at a newer version.
	KindPackageUpgrade
	// KindInternalInstall installs a built-in tool (node/npm/pnpm/yarn)
	// through jsvm's own installer rather than the foreign manager.
	KindInternalInstall
	// KindUninstall removes a previously-installed global target.
	KindUninstall
	// KindMultiple runs each Sub plan in order, stopping at the first
	// failure.
	KindMultiple
)

// Target is a single positional argument from the intercepted
// invocation, with its built-in ToolSpec parse if it parsed as one.
type Target struct {
	Raw  string
	Spec *toolspec.Spec
}

// Plan is the result of categorizing one invocation.
type Plan struct {
	Kind    Kind
	Binary  string
	Args    []string // original argv tail, populated for KindTool
	Targets []Target
	Sub     []Plan // populated for KindMultiple
}

var npmInstallAliases = set("i", "in", "ins", "inst", "insta", "instal", "install", "isnt", "isnta", "isntal", "isntall", "add")
var npmUninstallAliases = set("un", "uninstall", "unlink", "remove", "rm", "r")
var npmLinkAliases = set("link", "ln")

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// Categorize classifies a tool invocation. unsafeGlobal is the
// JSVM_UNSAFE_GLOBAL opt-out: when set, every invocation is a plain
// KindTool pass-through regardless of binary or arguments.
func Categorize(binary string, args []string, unsafeGlobal bool) Plan {
	if unsafeGlobal {
		return Plan{Kind: KindTool, Binary: binary, Args: args}
	}
	switch binary {
	case "npm":
		return categorizeNpm(args)
	case "yarn":
		return categorizeYarn(args)
	default:
		return Plan{Kind: KindTool, Binary: binary, Args: args}
	}
}

func categorizeNpm(args []string) Plan {
	if len(args) == 0 {
		return Plan{Kind: KindTool, Binary: "npm", Args: args}
	}
	sub, rest := args[0], args[1:]
	global, positionals := splitFlags(rest)

	switch {
	case npmInstallAliases[sub]:
		if global && len(positionals) > 0 {
			return planGlobalInstall("npm", positionals)
		}
		return Plan{Kind: KindTool, Binary: "npm", Args: args}
	case npmUninstallAliases[sub]:
		if global && len(positionals) > 0 {
			return planGlobalUninstall("npm", positionals)
		}
		return Plan{Kind: KindTool, Binary: "npm", Args: args}
	case npmLinkAliases[sub]:
		return planLink("npm", positionals)
	default:
		return Plan{Kind: KindTool, Binary: "npm", Args: args}
	}
}

func categorizeYarn(args []string) Plan {
	switch {
	case len(args) >= 2 && args[0] == "global" && args[1] == "add":
		_, positionals := splitFlags(args[2:])
		if len(positionals) == 0 {
			return Plan{Kind: KindTool, Binary: "yarn", Args: args}
		}
		return planGlobalInstall("yarn", positionals)
	case len(args) >= 2 && args[0] == "global" && args[1] == "remove":
		_, positionals := splitFlags(args[2:])
		if len(positionals) == 0 {
			return Plan{Kind: KindTool, Binary: "yarn", Args: args}
		}
		return planGlobalUninstall("yarn", positionals)
	case len(args) >= 1 && args[0] == "link":
		_, positionals := splitFlags(args[1:])
		return planLink("yarn", positionals)
	default:
		return Plan{Kind: KindTool, Binary: "yarn", Args: args}
	}
}

// splitFlags separates a --global/-g flag from the remaining positional
// (non-flag) arguments, in order.
func splitFlags(args []string) (global bool, positionals []string) {
	for _, a := range args {
		switch {
		case a == "--global" || a == "-g":
			global = true
		case strings.HasPrefix(a, "-"):
			// other flags are ignored by the intercept parser
		default:
			positionals = append(positionals, a)
		}
	}
	return global, positionals
}

// planLink builds a PackageLink plan: linking named packages into the
// project, or (with no positional tail) linking the current project as
// a global.
func planLink(manager string, positionals []string) Plan {
	return Plan{Kind: KindPackageLink, Binary: manager, Targets: toTargets(positionals)}
}

// planGlobalInstall builds an install plan per target, classifying each
// as InternalInstall (built-in node/npm/pnpm/yarn) or PackageInstall
// (everything else), wrapping multiple targets in KindMultiple.
func planGlobalInstall(manager string, raws []string) Plan {
	subs := make([]Plan, 0, len(raws))
	for _, raw := range raws {
		subs = append(subs, planSingleGlobalInstall(manager, raw))
	}
	if len(subs) == 1 {
		return subs[0]
	}
	return Plan{Kind: KindMultiple, Binary: manager, Sub: subs}
}

func planSingleGlobalInstall(manager, raw string) Plan {
	spec, err := toolspec.Parse(raw)
	if err == nil && spec.Class != toolspec.ClassPackage {
		s := spec
		return Plan{Kind: KindInternalInstall, Binary: manager, Targets: []Target{{Raw: raw, Spec: &s}}}
	}
	return Plan{Kind: KindPackageInstall, Binary: manager, Targets: []Target{{Raw: raw}}}
}

func planGlobalUninstall(manager string, raws []string) Plan {
	subs := make([]Plan, 0, len(raws))
	for _, raw := range raws {
		subs = append(subs, Plan{Kind: KindUninstall, Binary: manager, Targets: []Target{{Raw: raw}}})
	}
	if len(subs) == 1 {
		return subs[0]
	}
	return Plan{Kind: KindMultiple, Binary: manager, Sub: subs}
}

// NewPackageUpgrade builds a KindPackageUpgrade plan directly; npm/yarn
// interception never produces this kind.
func NewPackageUpgrade(manager, raw string) Plan {
	return Plan{Kind: KindPackageUpgrade, Binary: manager, Targets: []Target{{Raw: raw}}}
}

func toTargets(raws []string) []Target {
	if len(raws) == 0 {
		return nil
	}
	out := make([]Target, 0, len(raws))
	for _, r := range raws {
		out = append(out, Target{Raw: r})
	}
	return out
}
