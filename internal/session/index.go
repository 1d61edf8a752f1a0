package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/terassyi/jsvm/internal/hooks"
	"github.com/terassyi/jsvm/internal/inventory"
)

// Index loads and caches tool's version index, consulting the on-disk
// cache, a configured index hook, or a built-in default URL, in that
// order. Each tool's index is fetched at most once per process.
func (s *Session) Index(ctx context.Context, tool string) (*inventory.Index, error) {
	h, err := s.Hooks()
	if err != nil {
		return nil, err
	}

	s.indexMu.Lock()
	once, ok := s.indexOnce[tool]
	if !ok {
		once = &sync.Once{}
		s.indexOnce[tool] = once
	}
	s.indexMu.Unlock()

	once.Do(func() {
		url, ok := h.IndexURL(tool)
		if !ok {
			url = defaultIndexURL(tool)
		}

		body, err := s.Fetcher.Load(ctx, tool, url, s.Layout.IndexFile(tool), s.Layout.IndexExpiryFile(tool))
		if err != nil {
			s.setIndexResult(tool, nil, fmt.Errorf("failed to load %s index: %w", tool, err))
			return
		}

		idx, err := parseIndex(tool, h, body)
		if err != nil {
			s.setIndexResult(tool, nil, fmt.Errorf("failed to parse %s index: %w", tool, err))
			return
		}
		s.setIndexResult(tool, idx, nil)
	})

	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.indexVal[tool], s.indexErr[tool]
}

func (s *Session) setIndexResult(tool string, idx *inventory.Index, err error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.indexVal[tool] = idx
	s.indexErr[tool] = err
}

// parseIndex picks the index wire format for tool: the GitHub-releases
// array shape for Node and (unless overridden) Yarn, the npm-registry
// name-versions shape for Pnpm, Npm, and every package index.
func parseIndex(tool string, h *hooks.Config, body []byte) (*inventory.Index, error) {
	switch tool {
	case "node":
		return inventory.ParseArrayOfReleases(body)
	case "yarn":
		if h.YarnFormat() == "npm" {
			return inventory.ParseNameVersions(body)
		}
		return inventory.ParseArrayOfReleases(body)
	default: // npm, pnpm, and arbitrary package names
		return inventory.ParseNameVersions(body)
	}
}

// defaultIndexURL is the built-in per-tool index location used when no
// hook overrides it.
func defaultIndexURL(tool string) string {
	switch tool {
	case "node":
		return "https://nodejs.org/dist/index.json"
	case "yarn":
		return "https://api.github.com/repos/yarnpkg/yarn/releases"
	case "pnpm":
		return "https://registry.npmjs.org/pnpm"
	case "npm":
		return "https://registry.npmjs.org/npm"
	default:
		return "https://registry.npmjs.org/" + tool
	}
}
