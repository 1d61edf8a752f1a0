package manifest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/terassyi/jsvm/internal/toolspec"
)

// ExtensionCycleError reports a workspace-extension chain that revisits a
// manifest path, together with the full sequence walked.
type ExtensionCycleError struct {
	Chain []string
}

func (e *ExtensionCycleError) Error() string {
	return fmt.Sprintf("extension chain cycle detected: %s", strings.Join(e.Chain, " -> "))
}

// Chain walks the workspace-extension chain starting at path, following
// each manifest's "extends" field. The chain must be acyclic and finite;
// the first repeated path is reported as an *ExtensionCycleError carrying
// the full walked sequence. Returns manifests ordered root-first,
// ancestor-last (i.e. chain[0] is the project's own manifest).
func Chain(path string) ([]*Manifest, error) {
	visited := map[string]struct{}{}
	var order []string
	var manifests []*Manifest

	cur := path
	for {
		abs, err := filepath.Abs(cur)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve manifest path %s: %w", cur, err)
		}
		if _, ok := visited[abs]; ok {
			order = append(order, abs)
			return nil, &ExtensionCycleError{Chain: order}
		}
		visited[abs] = struct{}{}
		order = append(order, abs)

		m, err := Read(cur)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)

		if m.Extends == "" {
			break
		}
		next := m.Extends
		if !filepath.IsAbs(next) {
			next = filepath.Join(filepath.Dir(abs), next)
		}
		cur = next
	}

	return manifests, nil
}

// MergeToolchain merges a Chain's toolchain blocks: the project's own
// block (chain[0]) wins field-by-field over ancestors; missing keys
// inherit from the nearest ancestor that defines them.
func MergeToolchain(chain []*Manifest) *Toolchain {
	merged := &Toolchain{}
	for i := len(chain) - 1; i >= 0; i-- {
		tc := chain[i].Toolchain
		if tc == nil {
			continue
		}
		if tc.Node != "" {
			merged.Node = tc.Node
		}
		if tc.Npm != "" {
			merged.Npm = tc.Npm
		}
		if tc.Pnpm != "" {
			merged.Pnpm = tc.Pnpm
		}
		if tc.Yarn != "" {
			merged.Yarn = tc.Yarn
		}
	}
	if merged.Node == "" && merged.Npm == "" && merged.Pnpm == "" && merged.Yarn == "" {
		return nil
	}
	return merged
}

// Pin rewrites the manifest at path, recording spec's resolved version in
// the appropriate toolchain field, preserving all unrelated fields.
func Pin(path string, spec toolspec.Spec, resolvedVersion string) error {
	m, err := Read(path)
	if err != nil {
		return err
	}

	if m.Toolchain == nil {
		m.Toolchain = &Toolchain{}
	}

	switch spec.Class {
	case toolspec.ClassNode:
		m.Toolchain.Node = resolvedVersion
	case toolspec.ClassNpm:
		m.Toolchain.Npm = resolvedVersion
	case toolspec.ClassPnpm:
		m.Toolchain.Pnpm = resolvedVersion
	case toolspec.ClassYarn:
		m.Toolchain.Yarn = resolvedVersion
	default:
		return fmt.Errorf("cannot pin package %q into toolchain block", spec.Name)
	}

	return m.Write()
}
