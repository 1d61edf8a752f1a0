// Package platform implements the core resolution algorithm: merging a
// user default, a workspace-extension chain, and command-line overrides
// into a single, fully-sourced set of tool versions.
package platform

import (
	"github.com/terassyi/jsvm/internal/version"
)

// Source is the provenance tag attached to every resolved version.
// Ordering for merging: CommandLine > Binary > Project > Default > None.
type Source int

const (
	SourceNone Source = iota
	SourceDefault
	SourceProject
	SourceBinary
	SourceCommandLine
)

// Sourced pairs a value with its provenance.
type Sourced[T any] struct {
	Value  T
	Source Source
	set    bool
}

// IsSet reports whether the Sourced value was ever assigned.
func (s Sourced[T]) IsSet() bool { return s.set }

// newSourced builds a set Sourced value.
func newSourced[T any](v T, src Source) Sourced[T] {
	return Sourced[T]{Value: v, Source: src, set: true}
}

// NewSourced builds a Sourced value with explicit provenance, for
// callers outside this package that materialize a Platform from
// another source of truth (a manifest's toolchain block, a persisted
// default platform).
func NewSourced[T any](v T, src Source) Sourced[T] {
	return newSourced(v, src)
}

// Spec is the unresolved intent for a single field: present, explicitly
// removed, or inherited from the base during an override application.
type Spec struct {
	Mode  SpecMode
	Value version.Version
}

// SpecMode discriminates a Spec's tagged variant.
type SpecMode int

const (
	// SpecInherit keeps whatever the base platform already has.
	SpecInherit SpecMode = iota
	// SpecSome replaces the base field with Value.
	SpecSome
	// SpecNone removes the base field entirely.
	SpecNone
)

// PlatformSpec is the unresolved project/user intent: node plus optional
// package managers.
type PlatformSpec struct {
	Node version.Version
	Npm  *version.Version
	Pnpm *version.Version
	Yarn *version.Version
}

// Platform is the resolved, materialized output of a merge: every field
// carries its Source.
type Platform struct {
	Node Sourced[version.Version]
	Npm  Sourced[version.Version]
	Pnpm Sourced[version.Version]
	Yarn Sourced[version.Version]
}

// IsNone reports whether the platform has no pinned runtime at all, the
// only state in which non-node fields must also be unset.
func (p Platform) IsNone() bool { return !p.Node.IsSet() }

// Overrides holds the per-field CLI override intent and, for package
// managers, an explicit opt-out ("--no-npm" etc).
type Overrides struct {
	Node Spec
	Npm  Spec
	Pnpm Spec
	Yarn Spec
}

// BundledResolver returns the package-manager version bundled with a
// given runtime version, for the "built-in" substitution step. Only npm
// is recognized as built-in in the current ecosystem.
type BundledResolver func(nodeVersion version.Version) (version.Version, bool)

// Merge runs the four-step merge algorithm from a user default, an
// optional workspace-extension chain (root-first, project-last — callers
// pass the already project-overlaid base directly), CLI overrides, and a
// bundled-version resolver.
func Merge(base Platform, overrides Overrides, bundled BundledResolver) Platform {
	out := base

	out.Node = applyOverride(out.Node, overrides.Node, SourceCommandLine)
	out.Npm = applyOverride(out.Npm, overrides.Npm, SourceCommandLine)
	out.Pnpm = applyOverride(out.Pnpm, overrides.Pnpm, SourceCommandLine)
	out.Yarn = applyOverride(out.Yarn, overrides.Yarn, SourceCommandLine)

	// Step 4: substitute the bundled npm version if still unset.
	if !out.Npm.IsSet() && out.Node.IsSet() && bundled != nil {
		if v, ok := bundled(out.Node.Value); ok {
			out.Npm = newSourced(v, SourceDefault)
		}
	}

	// Invariant: a platform with no node is None, not partial.
	if !out.Node.IsSet() {
		return Platform{}
	}

	// CLI overrides never create a bare platform without an explicit or
	// default runtime: if any non-node field carries CommandLine
	// provenance while node itself is only Default, rewrite node's
	// source to Default (it is effectively inherited, not overridden).
	if out.Node.Source == SourceDefault {
		if out.Npm.Source == SourceCommandLine || out.Pnpm.Source == SourceCommandLine || out.Yarn.Source == SourceCommandLine {
			out.Node.Source = SourceDefault
		}
	}

	return out
}

func applyOverride(base Sourced[version.Version], spec Spec, src Source) Sourced[version.Version] {
	switch spec.Mode {
	case SpecSome:
		return newSourced(spec.Value, src)
	case SpecNone:
		return Sourced[version.Version]{}
	default: // SpecInherit
		return base
	}
}

// OverlayChain overlays a sequence of platforms (ancestor-first,
// project-last per manifest.Chain's convention reversed by the caller)
// onto a base, with later entries winning field-by-field only where they
// define a value.
func OverlayChain(base Platform, chain []Platform) Platform {
	out := base
	for _, p := range chain {
		if p.Node.IsSet() {
			out.Node = p.Node
		}
		if p.Npm.IsSet() {
			out.Npm = p.Npm
		}
		if p.Pnpm.IsSet() {
			out.Pnpm = p.Pnpm
		}
		if p.Yarn.IsSet() {
			out.Yarn = p.Yarn
		}
	}
	return out
}

// Max returns the higher-priority of two sources.
func Max(a, b Source) Source {
	if a > b {
		return a
	}
	return b
}
