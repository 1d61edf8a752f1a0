// Package session is the process-wide registry of lazily-loaded state:
// the inventory handle, the hooks handle, the current-project handle,
// and the default-platform handle. Each is loaded at most once per
// process and threaded explicitly as a *Session parameter — there are
// no package-level globals.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/terassyi/jsvm/internal/hooks"
	"github.com/terassyi/jsvm/internal/inventory"
	"github.com/terassyi/jsvm/internal/layout"
	"github.com/terassyi/jsvm/internal/manifest"
	"github.com/terassyi/jsvm/internal/platform"
	"github.com/terassyi/jsvm/internal/version"
)

// Session holds every piece of state a jsvm invocation may need loaded
// from disk or network, each materialized on first use.
type Session struct {
	Layout  *layout.Layout
	Fetcher *inventory.Fetcher

	hooksOnce sync.Once
	hooksVal  *hooks.Config
	hooksErr  error

	projectOnce sync.Once
	projectVal  *manifest.Manifest
	projectErr  error

	defaultOnce sync.Once
	defaultVal  platform.Platform
	defaultErr  error

	indexMu   sync.Mutex
	indexOnce map[string]*sync.Once
	indexVal  map[string]*inventory.Index
	indexErr  map[string]error

	eventsMu sync.Mutex
	events   []Event
}

// New returns a Session rooted at l, with a plain HTTP-backed inventory
// fetcher.
func New(l *layout.Layout) *Session {
	return &Session{
		Layout:    l,
		Fetcher:   inventory.NewFetcher(),
		indexOnce: map[string]*sync.Once{},
		indexVal:  map[string]*inventory.Index{},
		indexErr:  map[string]error{},
	}
}

// Hooks loads and caches tools/hooks.toml.
func (s *Session) Hooks() (*hooks.Config, error) {
	s.hooksOnce.Do(func() {
		s.hooksVal, s.hooksErr = hooks.Load(s.Layout.HooksFile())
	})
	return s.hooksVal, s.hooksErr
}

// Project finds and caches the nearest ancestor manifest to the current
// working directory. It returns nil, nil when no manifest is found —
// the invocation is not inside a project.
func (s *Session) Project() (*manifest.Manifest, error) {
	s.projectOnce.Do(func() {
		cwd, err := os.Getwd()
		if err != nil {
			s.projectErr = err
			return
		}
		path, ok := findManifestUpward(cwd)
		if !ok {
			return
		}
		s.projectVal, s.projectErr = manifest.Read(path)
	})
	return s.projectVal, s.projectErr
}

// ProjectPlatform resolves the active project's merged extension-chain
// toolchain into a Platform sourced as SourceProject, or the zero
// Platform if there is no project or its chain pins nothing.
func (s *Session) ProjectPlatform() (platform.Platform, error) {
	m, err := s.Project()
	if err != nil || m == nil {
		return platform.Platform{}, err
	}

	chain, err := manifest.Chain(m.Path())
	if err != nil {
		return platform.Platform{}, err
	}

	tc := manifest.MergeToolchain(chain)
	if tc == nil {
		return platform.Platform{}, nil
	}
	return toolchainToPlatform(tc)
}

// DefaultPlatform loads and caches the user's default platform from
// tools/user/platform.json.
func (s *Session) DefaultPlatform() (platform.Platform, error) {
	s.defaultOnce.Do(func() {
		s.defaultVal, s.defaultErr = platform.ReadDefault(s.Layout.UserPlatformFile())
	})
	return s.defaultVal, s.defaultErr
}

// SetDefaultPlatform persists p as the user's default platform and
// refreshes the cached value for the remainder of this process.
func (s *Session) SetDefaultPlatform(p platform.Platform) error {
	if err := platform.WriteDefault(s.Layout.UserPlatformFile(), p); err != nil {
		return err
	}
	s.defaultOnce.Do(func() {})
	s.defaultVal, s.defaultErr = p, nil
	return nil
}

func findManifestUpward(dir string) (string, bool) {
	for {
		candidate := filepath.Join(dir, "package.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func toolchainToPlatform(tc *manifest.Toolchain) (platform.Platform, error) {
	var out platform.Platform
	if tc.Node == "" {
		return out, nil
	}

	nodeVersion, err := version.Parse(tc.Node)
	if err != nil {
		return platform.Platform{}, fmt.Errorf("invalid toolchain node version %q: %w", tc.Node, err)
	}
	out.Node = platform.NewSourced(nodeVersion, platform.SourceProject)

	for _, f := range []struct {
		raw string
		set func(version.Version)
	}{
		{tc.Npm, func(v version.Version) { out.Npm = platform.NewSourced(v, platform.SourceProject) }},
		{tc.Pnpm, func(v version.Version) { out.Pnpm = platform.NewSourced(v, platform.SourceProject) }},
		{tc.Yarn, func(v version.Version) { out.Yarn = platform.NewSourced(v, platform.SourceProject) }},
	} {
		if f.raw == "" {
			continue
		}
		v, err := version.Parse(f.raw)
		if err != nil {
			return platform.Platform{}, fmt.Errorf("invalid toolchain version %q: %w", f.raw, err)
		}
		f.set(v)
	}

	return out, nil
}
