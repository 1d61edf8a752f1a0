// Package toolspec parses the "name[@spec]" arguments jsvm's CLI accepts
// for install, pin, fetch, and uninstall, and orders a batch of parsed
// specs so runtimes install before anything that might depend on them.
package toolspec

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/terassyi/jsvm/internal/version"
)

// ErrBareVersion is returned when a single positional argument looks
// like a bare version with no tool name attached.
var ErrBareVersion = errors.New("bare version with no tool name")

// ErrVersionWithoutAt is returned for "<name> <version>" pairs missing
// the required "@" separator.
var ErrVersionWithoutAt = errors.New("tool and version given without '@'")

// Class orders tool kinds so that runtimes are always installed before
// anything depending on them.
type Class int

const (
	ClassNode Class = iota
	ClassNpm
	ClassPnpm
	ClassYarn
	ClassPackage
)

// Spec is the tagged variant {Node, Npm, Pnpm, Yarn, Package(name)}, each
// carrying a version.Spec.
type Spec struct {
	Class   Class
	Name    string // populated for Package; "node"/"npm"/"pnpm"/"yarn" otherwise
	Version version.Spec
}

var nameVersionRE = regexp.MustCompile(`^(?P<name>(@[^/]+/)?[^/]+?)(@(?P<version>.+))?$`)

var bareVersionLikeRE = regexp.MustCompile(`^v?\d+(\.\d+)*([-+].*)?$`)

// packageNameRE implements npm's package-name validity rules: lowercase,
// optional "@scope/" prefix, no leading dot or underscore, URL-safe.
var packageNameRE = regexp.MustCompile(`^(@[a-z0-9][a-z0-9._-]*\/)?[a-z0-9][a-z0-9._-]*$`)

// Parse parses a single "name[@spec]" argument into a Spec.
func Parse(arg string) (Spec, error) {
	m := nameVersionRE.FindStringSubmatch(arg)
	if m == nil {
		return Spec{}, fmt.Errorf("malformed tool spec %q", arg)
	}
	name := m[1]
	versionStr := m[4]

	if err := validateName(name); err != nil {
		return Spec{}, err
	}

	vspec := version.DefaultSpec()
	if versionStr != "" {
		var err error
		vspec, err = version.ParseSpec(versionStr)
		if err != nil {
			return Spec{}, err
		}
	}

	switch name {
	case "node":
		return Spec{Class: ClassNode, Name: "node", Version: vspec}, nil
	case "npm":
		return Spec{Class: ClassNpm, Name: "npm", Version: vspec}, nil
	case "pnpm":
		return Spec{Class: ClassPnpm, Name: "pnpm", Version: vspec}, nil
	case "yarn":
		return Spec{Class: ClassYarn, Name: "yarn", Version: vspec}, nil
	default:
		return Spec{Class: ClassPackage, Name: name, Version: vspec}, nil
	}
}

func validateName(name string) error {
	switch name {
	case "node", "npm", "pnpm", "yarn":
		return nil
	}
	if !packageNameRE.MatchString(name) {
		return fmt.Errorf("invalid package name %q", name)
	}
	return nil
}

// Render renders a Spec back to "name@spec" form.
func (s Spec) Render() string {
	return s.Name + "@" + s.Version.Render()
}

// ParseArgs batch-parses a positional argument list, rejecting a single
// bare version-like argument and a "<name> <version>" pair with no "@",
// then stably sorts the result with Node < Npm < Pnpm < Yarn < Package,
// preserving input order within a class.
func ParseArgs(args []string) ([]Spec, error) {
	if len(args) == 1 && bareVersionLikeRE.MatchString(args[0]) {
		return nil, ErrBareVersion
	}
	if len(args) == 2 && bareVersionLikeRE.MatchString(args[1]) && !strings.Contains(args[0], "@") {
		return nil, ErrVersionWithoutAt
	}

	specs := make([]Spec, 0, len(args))
	for _, a := range args {
		s, err := Parse(a)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}

	sort.SliceStable(specs, func(i, j int) bool {
		return specs[i].Class < specs[j].Class
	})

	return specs, nil
}
