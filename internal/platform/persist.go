package platform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/terassyi/jsvm/internal/version"
)

// defaultDoc is the on-disk shape of tools/user/platform.json: plain
// version strings, present only for fields the user has pinned as
// their default.
type defaultDoc struct {
	Node string `json:"node,omitempty"`
	Npm  string `json:"npm,omitempty"`
	Pnpm string `json:"pnpm,omitempty"`
	Yarn string `json:"yarn,omitempty"`
}

// ReadDefault loads the user's default platform from path. A missing
// file yields the zero (none) Platform, not an error.
func ReadDefault(path string) (Platform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Platform{}, nil
		}
		return Platform{}, fmt.Errorf("failed to read default platform %s: %w", path, err)
	}

	var doc defaultDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Platform{}, fmt.Errorf("failed to parse default platform %s: %w", path, err)
	}

	if doc.Node == "" {
		return Platform{}, nil
	}

	var out Platform
	nodeVersion, err := version.Parse(doc.Node)
	if err != nil {
		return Platform{}, fmt.Errorf("invalid default node version %q: %w", doc.Node, err)
	}
	out.Node = newSourced(nodeVersion, SourceDefault)

	for _, f := range []struct {
		raw string
		set func(version.Version)
	}{
		{doc.Npm, func(v version.Version) { out.Npm = newSourced(v, SourceDefault) }},
		{doc.Pnpm, func(v version.Version) { out.Pnpm = newSourced(v, SourceDefault) }},
		{doc.Yarn, func(v version.Version) { out.Yarn = newSourced(v, SourceDefault) }},
	} {
		if f.raw == "" {
			continue
		}
		v, err := version.Parse(f.raw)
		if err != nil {
			return Platform{}, fmt.Errorf("invalid default version %q: %w", f.raw, err)
		}
		f.set(v)
	}

	return out, nil
}

// WriteDefault atomically persists p as the user's default platform.
func WriteDefault(path string, p Platform) error {
	var doc defaultDoc
	if p.Node.IsSet() {
		doc.Node = p.Node.Value.String()
	}
	if p.Npm.IsSet() {
		doc.Npm = p.Npm.Value.String()
	}
	if p.Pnpm.IsSet() {
		doc.Pnpm = p.Pnpm.Value.String()
	}
	if p.Yarn.IsSet() {
		doc.Yarn = p.Yarn.Value.String()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode default platform: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, ".jsvm-platform-"+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp default platform: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit default platform %s: %w", path, err)
	}
	return nil
}
