// Package version parses and renders tool versions and version specs:
// exact semantic versions, ranges, and the literal tags jsvm accepts on
// the command line and in manifests.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a semantic version.
type Version struct {
	v *semver.Version
}

// Parse parses an exact semantic version string.
func Parse(s string) (Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return Version{v: v}, nil
}

// String renders the version in canonical form.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// Major returns the major version component, used by the executor to
// compare the active Node against a package's linked platform.
func (v Version) Major() uint64 {
	if v.v == nil {
		return 0
	}
	return v.v.Major()
}

// Compare compares v to other using standard semver precedence.
func (v Version) Compare(other Version) int {
	return v.v.Compare(other.v)
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool { return v.v == nil }

// Tag is the kind of literal tag a Spec may carry.
type Tag int

const (
	// TagLatest resolves to the newest entry in an index.
	TagLatest Tag = iota
	// TagLTS resolves to the newest long-term-support entry (Node only).
	TagLTS
	// TagCustom resolves via an index's dist-tags map under Name.
	TagCustom
)

// SpecKind discriminates the tagged variant a Spec holds.
type SpecKind int

const (
	// KindExact matches a single version by equality.
	KindExact SpecKind = iota
	// KindRange matches the newest version satisfying a constraint.
	KindRange
	// KindTag matches via a named tag.
	KindTag
)

// Spec is the tagged variant {Exact(Version), Range(constraint), Tag(...)}
// describing a requested version before it is resolved against an index.
type Spec struct {
	Kind       SpecKind
	Exact      Version
	RangeRaw   string
	constraint *semver.Constraints
	Tag        Tag
	TagName    string // populated when Tag == TagCustom
}

// DefaultSpec is the spec applied when a tool is requested with no
// explicit version: the Lts tag.
func DefaultSpec() Spec {
	return Spec{Kind: KindTag, Tag: TagLTS}
}

// ParseSpec parses a version spec string: an exact version, a range
// (caret/tilde/comparator syntax, possibly "||"-joined), or a literal
// tag ("latest", "lts", or a custom tag name).
func ParseSpec(s string) (Spec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSpec(), nil
	}

	switch s {
	case "latest":
		return Spec{Kind: KindTag, Tag: TagLatest}, nil
	case "lts":
		return Spec{Kind: KindTag, Tag: TagLTS}, nil
	}

	if v, err := semver.NewVersion(s); err == nil && looksExact(s) {
		return Spec{Kind: KindExact, Exact: Version{v: v}}, nil
	}

	if c, err := semver.NewConstraint(s); err == nil {
		return Spec{Kind: KindRange, RangeRaw: s, constraint: c}, nil
	}

	// Anything else is treated as a custom tag name (e.g. "next", "canary").
	if isValidTagName(s) {
		return Spec{Kind: KindTag, Tag: TagCustom, TagName: s}, nil
	}

	return Spec{}, fmt.Errorf("invalid version spec %q", s)
}

// looksExact restricts semver's lenient NewVersion (which also accepts
// partial versions such as "6" or "6.1") to fully-qualified exact
// versions, since those partial forms must instead be treated as ranges.
func looksExact(s string) bool {
	trimmed := strings.TrimPrefix(s, "v")
	parts := strings.SplitN(strings.SplitN(trimmed, "-", 2)[0], "+", 2)[0]
	return strings.Count(parts, ".") == 2
}

func isValidTagName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == ' ' || r == '@' {
			return false
		}
	}
	return true
}

// Render renders a Spec back to its canonical string form so that
// parse(render(spec)) == spec.
func (s Spec) Render() string {
	switch s.Kind {
	case KindExact:
		return s.Exact.String()
	case KindRange:
		return s.RangeRaw
	case KindTag:
		switch s.Tag {
		case TagLatest:
			return "latest"
		case TagLTS:
			return "lts"
		default:
			return s.TagName
		}
	}
	return ""
}

// Match reports whether candidate satisfies a Range spec.
func (s Spec) Match(candidate Version) bool {
	if s.Kind != KindRange || s.constraint == nil || candidate.v == nil {
		return false
	}
	return s.constraint.Check(candidate.v)
}
