// Command jsvm-shim is the small redirector binary installed under every
// name in bin/: node, npm, pnpm, yarn, npx, and every bin a globally
// installed package declares. It inspects argv[0] to recover the tool
// name, resolves the active platform, and either execs the real binary
// directly or routes an npm/yarn global-install/link/uninstall
// invocation through jsvm's own planner.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/terassyi/jsvm/internal/distro"
	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
	"github.com/terassyi/jsvm/internal/executor"
	"github.com/terassyi/jsvm/internal/hooks"
	"github.com/terassyi/jsvm/internal/inventory"
	"github.com/terassyi/jsvm/internal/layout"
	"github.com/terassyi/jsvm/internal/pkginstall"
	"github.com/terassyi/jsvm/internal/pkgstate"
	"github.com/terassyi/jsvm/internal/platform"
	"github.com/terassyi/jsvm/internal/procexec"
	"github.com/terassyi/jsvm/internal/session"
	"github.com/terassyi/jsvm/internal/shim"
	"github.com/terassyi/jsvm/internal/toolspec"
	"github.com/terassyi/jsvm/internal/version"
)

const (
	logLevelEnvVar       = "JSVM_LOGLEVEL"
	bypassEnvVar         = "JSVM_BYPASS"
	unsafeGlobalEnvVar   = "JSVM_UNSAFE_GLOBAL"
	recursionSentinelVar = "JSVM_RECURSION_SENTINEL"
)

// builtinTools are the tool names the shim dispatches through platform
// resolution rather than a package's own BinConfig.
var builtinTools = map[string]bool{"node": true, "npm": true, "pnpm": true, "yarn": true, "npx": true}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(os.Getenv(logLevelEnvVar))})))
	os.Exit(run())
}

func run() int {
	toolName := shim.ToolName(os.Args[0])
	args := os.Args[1:]

	if os.Getenv(recursionSentinelVar) != "" {
		return renderErr(jsvmerrors.New(jsvmerrors.CodeRecursionLimit, fmt.Sprintf("%s re-invoked itself through its own shim", toolName)).
			WithHint("this is a jsvm bug; rerun with JSVM_LOGLEVEL=debug and file a report"))
	}

	l, err := layout.New()
	if err != nil {
		return renderErr(jsvmerrors.Wrap(jsvmerrors.CodeCreateDir, "failed to resolve jsvm layout", err))
	}

	if os.Getenv(bypassEnvVar) != "" {
		return runBypass(l, toolName, args)
	}

	sess := session.New(l)
	h, err := sess.Hooks()
	if err != nil {
		return renderErr(jsvmerrors.Wrap(jsvmerrors.CodeReadHooks, "failed to load hooks config", err))
	}

	resolved, binConfig, err := resolvePlatform(l, sess, toolName)
	if err != nil {
		return renderErr(err)
	}

	r := &dispatchRunner{
		sess:      sess,
		layout:    l,
		platform:  resolved,
		hooks:     h,
		toolName:  toolName,
		binConfig: binConfig,
		distro:    distro.NewInstaller(l, h),
		pkginst:   &pkginstall.Installer{Layout: l, ShimBinary: shimBinaryPath()},
	}

	unsafeGlobal := os.Getenv(unsafeGlobalEnvVar) != ""
	plan := executor.Categorize(toolName, args, unsafeGlobal)

	ctx := context.Background()
	code, err := executor.Execute(ctx, r, plan)
	if err != nil {
		return renderErr(wrapExecErr(err))
	}

	if publishErr := sess.Publish(ctx); publishErr != nil {
		slog.Warn("failed to publish events", "error", publishErr)
	}

	return code
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func renderErr(err error) int {
	var je *jsvmerrors.Error
	if as, ok := err.(*jsvmerrors.Error); ok {
		je = as
	} else {
		je = jsvmerrors.Wrap(jsvmerrors.CodeUnknown, err.Error(), err)
	}
	fmt.Fprintln(os.Stderr, "jsvm:", je.Error())
	if je.Hint != "" {
		fmt.Fprintln(os.Stderr, "  "+je.Hint)
	}
	return je.ExitCode()
}

func wrapExecErr(err error) error {
	if _, ok := err.(*jsvmerrors.Error); ok {
		return err
	}
	return jsvmerrors.Wrap(jsvmerrors.CodeBinaryExec, "failed to run tool", err)
}

func shimBinaryPath() string {
	self, err := os.Executable()
	if err != nil {
		return os.Args[0]
	}
	return self
}

// runBypass execs toolName found on the inherited system PATH (with the
// shim directory itself excluded), entirely skipping platform
// resolution — for JSVM_BYPASS's "get out of the way" contract.
func runBypass(l *layout.Layout, toolName string, args []string) int {
	shimDir := l.ShimDir()
	var dirs []string
	for _, d := range filepath.SplitList(os.Getenv("PATH")) {
		if d != shimDir {
			dirs = append(dirs, d)
		}
	}
	abs, err := lookupInPath(strings.Join(dirs, string(os.PathListSeparator)), toolName)
	if err != nil {
		return renderErr(jsvmerrors.Wrap(jsvmerrors.CodeBinaryNotFound, fmt.Sprintf("%s not found on PATH outside jsvm", toolName), err).
			WithHint("install " + toolName + " outside jsvm or unset JSVM_BYPASS"))
	}
	code, err := procexec.Run(context.Background(), abs, args, os.Environ())
	if err != nil {
		return renderErr(jsvmerrors.Wrap(jsvmerrors.CodeBinaryExec, "failed to exec "+toolName, err))
	}
	return code
}

// resolvePlatform merges the user default and the active project's
// chain per §4.4, and looks up toolName's BinConfig when it names a
// package-owned binary rather than a built-in tool.
func resolvePlatform(l *layout.Layout, sess *session.Session, toolName string) (platform.Platform, *pkgstate.BinConfig, error) {
	var bc *pkgstate.BinConfig
	if !builtinTools[toolName] {
		found, err := pkgstate.ReadBinConfig(l, toolName)
		if err != nil {
			return platform.Platform{}, nil, jsvmerrors.Wrap(jsvmerrors.CodeReadBinConfig, "failed to read bin config for "+toolName, err)
		}
		bc = found
	}

	def, err := sess.DefaultPlatform()
	if err != nil {
		return platform.Platform{}, nil, jsvmerrors.Wrap(jsvmerrors.CodeReadPlatform, "failed to read default platform", err)
	}
	proj, err := sess.ProjectPlatform()
	if err != nil {
		return platform.Platform{}, nil, jsvmerrors.Wrap(jsvmerrors.CodeParsePlatform, "failed to resolve project platform", err)
	}

	base := platform.OverlayChain(def, []platform.Platform{proj})
	merged := platform.Merge(base, platform.Overrides{}, bundledNpmResolver(l))

	if merged.IsNone() && bc == nil {
		return platform.Platform{}, nil, jsvmerrors.New(jsvmerrors.CodeNoPlatform, "no node version is pinned for this project or as a default").
			WithHint("run `jsvm install node` to set a default, or `jsvm pin node` inside a project")
	}
	return merged, bc, nil
}

// bundledNpmResolver reads back the npm version recorded alongside a
// Node image during install, implementing §4.4 step 4.
func bundledNpmResolver(l *layout.Layout) platform.BundledResolver {
	return func(nodeVersion version.Version) (version.Version, bool) {
		data, err := os.ReadFile(l.BundledNpmVersionFile(nodeVersion.String()))
		if err != nil {
			return version.Version{}, false
		}
		v, err := version.Parse(strings.TrimSpace(string(data)))
		if err != nil {
			return version.Version{}, false
		}
		return v, true
	}
}

// lookupInPath searches the colon-separated dirs for the first
// non-directory entry named name, honoring shim.AssemblePath's priority
// order.
func lookupInPath(pathEnv, name string) (string, error) {
	for _, dir := range filepath.SplitList(pathEnv) {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		return candidate, nil
	}
	return "", fmt.Errorf("%s not found in %s", name, pathEnv)
}

// dispatchRunner implements executor.Runner against the real
// filesystem: direct exec for tools, the sandboxed installer for
// global packages, and jsvm's own distro installer for built-in tools.
type dispatchRunner struct {
	sess      *session.Session
	layout    *layout.Layout
	platform  platform.Platform
	hooks     *hooks.Config
	toolName  string
	binConfig *pkgstate.BinConfig
	distro    *distro.Installer
	pkginst   *pkginstall.Installer
}

func (r *dispatchRunner) packageBinDir() string {
	if r.binConfig == nil {
		return ""
	}
	return filepath.Dir(filepath.Join(r.layout.ImagePackageDir(r.binConfig.Package), r.binConfig.Path))
}

func (r *dispatchRunner) RunTool(ctx context.Context, p executor.Plan) (int, error) {
	binary := p.Binary
	if binary == "" {
		binary = r.toolName
	}

	pathEnv := shim.AssemblePath(r.layout, r.platform, r.packageBinDir(), os.Getenv("PATH"))
	abs, err := lookupInPath(pathEnv, binary)
	if err != nil {
		return 0, jsvmerrors.Wrap(jsvmerrors.CodeBinaryNotFound, binary+" is not available in the resolved platform", err).
			WithHint(fmt.Sprintf("run `jsvm install %s` to fetch it", binary))
	}

	command, args := abs, p.Args
	if r.binConfig != nil && r.binConfig.Loader != nil {
		loaderArgs := strings.Fields(r.binConfig.Loader.Args)
		command = r.binConfig.Loader.Command
		args = append(append(append([]string{}, loaderArgs...), abs), p.Args...)
	}

	env := append(os.Environ(), "PATH="+pathEnv, recursionSentinelVar+"=1")
	code, err := procexec.Run(ctx, command, args, env)
	r.sess.Record("exec", binary, map[string]string{"path": abs})
	return code, err
}

func (r *dispatchRunner) RunPackageInstall(ctx context.Context, p executor.Plan) (int, error) {
	t := p.Targets[0]
	spec, err := toolspec.Parse(t.Raw)
	if err != nil {
		return 0, jsvmerrors.Wrap(jsvmerrors.CodeInvalidToolName, "invalid package name "+t.Raw, err)
	}

	managerBinPath, err := r.managerBinary(p.Binary)
	if err != nil {
		return 0, err
	}

	versionSpec := explicitVersionSpec(spec)
	nodeVersion := ""
	if r.platform.Node.IsSet() {
		nodeVersion = r.platform.Node.Value.String()
	}

	if _, err := r.pkginst.Install(ctx, p.Binary, spec.Name, versionSpec, managerBinPath, nodeVersion); err != nil {
		return 0, jsvmerrors.Wrap(jsvmerrors.CodePackageUnpack, "failed to install "+t.Raw, err)
	}
	r.sess.Record("package-install", spec.Name, map[string]string{"manager": p.Binary})
	return 0, nil
}

func (r *dispatchRunner) RunPackageUpgrade(ctx context.Context, p executor.Plan) (int, error) {
	return r.RunPackageInstall(ctx, p)
}

func (r *dispatchRunner) RunPackageLink(ctx context.Context, p executor.Plan) (int, error) {
	for _, t := range p.Targets {
		pc, err := pkgstate.ReadPackageConfig(r.layout, packageNameOf(t.Raw))
		if err != nil {
			return 0, jsvmerrors.Wrap(jsvmerrors.CodeReadPackageConfig, "failed to read package config for "+t.Raw, err)
		}
		if pc == nil || !r.platform.Node.IsSet() {
			continue
		}
		mismatch, err := executor.LinkVersionMismatch(r.platform.Node.Value, pc.Platform)
		if err != nil {
			return 0, err
		}
		if mismatch {
			fmt.Fprintf(os.Stderr, "jsvm: warning: %s was linked under a different major Node version (%s); proceeding anyway\n", pc.Name, pc.Platform)
		}
	}

	args := append([]string{"link"}, rawsOf(p.Targets)...)
	return r.RunTool(ctx, executor.Plan{Kind: executor.KindTool, Binary: p.Binary, Args: args})
}

func (r *dispatchRunner) RunInternalInstall(ctx context.Context, p executor.Plan) (int, error) {
	t := p.Targets[0]
	entry, err := r.resolveEntry(ctx, t.Spec.Name, t.Spec.Version)
	if err != nil {
		return 0, err
	}

	if _, _, err := r.distro.Install(ctx, t.Spec.Name, entry.Version); err != nil {
		return 0, err
	}

	def, err := r.sess.DefaultPlatform()
	if err != nil {
		return 0, jsvmerrors.Wrap(jsvmerrors.CodeReadPlatform, "failed to read default platform", err)
	}
	v, err := version.Parse(entry.Version)
	if err != nil {
		return 0, jsvmerrors.Wrap(jsvmerrors.CodeParsePlatform, "failed to parse resolved version", err)
	}
	setPlatformField(&def, t.Spec.Class, v)
	if err := r.sess.SetDefaultPlatform(def); err != nil {
		return 0, jsvmerrors.Wrap(jsvmerrors.CodeWriteCounterparts, "failed to persist default platform", err)
	}

	r.sess.Record("internal-install", t.Spec.Name+"@"+entry.Version, nil)
	return 0, nil
}

func (r *dispatchRunner) RunUninstall(ctx context.Context, p executor.Plan) (int, error) {
	t := p.Targets[0]
	spec, err := toolspec.Parse(t.Raw)
	if err != nil {
		return 0, jsvmerrors.Wrap(jsvmerrors.CodeInvalidToolName, "invalid uninstall target "+t.Raw, err)
	}

	if spec.Class == toolspec.ClassPackage {
		if err := r.pkginst.Uninstall(spec.Name); err != nil {
			return 0, jsvmerrors.Wrap(jsvmerrors.CodeDeleteDir, "failed to uninstall "+spec.Name, err)
		}
		r.sess.Record("uninstall", spec.Name, nil)
		return 0, nil
	}

	entry, err := r.resolveEntry(ctx, spec.Name, spec.Version)
	if err != nil {
		return 0, err
	}
	lock, err := distro.AcquireLock(r.layout, spec.Name)
	if err != nil {
		return 0, jsvmerrors.Wrap(jsvmerrors.CodeLockAcquire, "failed to acquire uninstall lock", err)
	}
	removeErr := os.RemoveAll(r.layout.ImageToolVersionDir(spec.Name, entry.Version))
	lock.Release()
	if removeErr != nil {
		return 0, jsvmerrors.Wrap(jsvmerrors.CodeDeleteDir, "failed to remove "+spec.Name+"@"+entry.Version, removeErr)
	}

	def, err := r.sess.DefaultPlatform()
	if err == nil && fieldVersion(def, spec.Class) == entry.Version {
		if spec.Class == toolspec.ClassNode {
			def = platform.Platform{}
		} else {
			clearPlatformField(&def, spec.Class)
		}
		_ = r.sess.SetDefaultPlatform(def)
	}

	r.sess.Record("uninstall", spec.Name+"@"+entry.Version, nil)
	return 0, nil
}

func (r *dispatchRunner) resolveEntry(ctx context.Context, tool string, spec version.Spec) (inventory.Entry, error) {
	idx, err := r.sess.Index(ctx, tool)
	if err != nil {
		return inventory.Entry{}, jsvmerrors.Wrap(jsvmerrors.CodeRegistryFetch, "failed to load "+tool+" index", err)
	}
	entry, err := inventory.Resolve(tool, idx, spec)
	if err != nil {
		return inventory.Entry{}, jsvmerrors.Wrap(jsvmerrors.CodeNoMatchNode, "no matching "+tool+" version", err)
	}
	return entry, nil
}

// managerBinary locates the already-pinned package manager's own
// executable, the one pkginstall shells out to.
func (r *dispatchRunner) managerBinary(manager string) (string, error) {
	pathEnv := shim.AssemblePath(r.layout, r.platform, "", os.Getenv("PATH"))
	abs, err := lookupInPath(pathEnv, manager)
	if err != nil {
		return "", jsvmerrors.Wrap(jsvmerrors.CodeBinaryNotFound, manager+" is not available in the resolved platform", err).
			WithHint(fmt.Sprintf("run `jsvm install %s` to fetch it", manager))
	}
	return abs, nil
}

func packageNameOf(raw string) string {
	spec, err := toolspec.Parse(raw)
	if err != nil {
		return raw
	}
	return spec.Name
}

func rawsOf(targets []executor.Target) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.Raw)
	}
	return out
}

// explicitVersionSpec returns the rendered version spec, or "" when
// spec carries jsvm's implicit bare-package default (Tag(Lts)) —
// letting the foreign manager fall back to its own notion of latest
// rather than forwarding a tag it may not recognize.
func explicitVersionSpec(spec toolspec.Spec) string {
	v := spec.Version
	if v.Kind == version.KindTag && v.Tag == version.TagLTS && v.TagName == "" {
		return ""
	}
	return v.Render()
}

func fieldVersion(p platform.Platform, c toolspec.Class) string {
	switch c {
	case toolspec.ClassNode:
		if p.Node.IsSet() {
			return p.Node.Value.String()
		}
	case toolspec.ClassNpm:
		if p.Npm.IsSet() {
			return p.Npm.Value.String()
		}
	case toolspec.ClassPnpm:
		if p.Pnpm.IsSet() {
			return p.Pnpm.Value.String()
		}
	case toolspec.ClassYarn:
		if p.Yarn.IsSet() {
			return p.Yarn.Value.String()
		}
	}
	return ""
}

func setPlatformField(p *platform.Platform, c toolspec.Class, v version.Version) {
	switch c {
	case toolspec.ClassNode:
		p.Node = platform.NewSourced(v, platform.SourceDefault)
	case toolspec.ClassNpm:
		p.Npm = platform.NewSourced(v, platform.SourceDefault)
	case toolspec.ClassPnpm:
		p.Pnpm = platform.NewSourced(v, platform.SourceDefault)
	case toolspec.ClassYarn:
		p.Yarn = platform.NewSourced(v, platform.SourceDefault)
	}
}

// clearPlatformField fully unsets a single package-manager field,
// leaving its Sourced zero value rather than a set-but-zero Version.
func clearPlatformField(p *platform.Platform, c toolspec.Class) {
	switch c {
	case toolspec.ClassNpm:
		p.Npm = platform.Sourced[version.Version]{}
	case toolspec.ClassPnpm:
		p.Pnpm = platform.Sourced[version.Version]{}
	case toolspec.ClassYarn:
		p.Yarn = platform.Sourced[version.Version]{}
	}
}
