// Package manifest reads and writes project manifests (package.json
// shaped), walks workspace extension chains, and pins resolved tool
// versions back into a manifest's toolchain block.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Toolchain is the {node, npm?, pnpm?, yarn?} block of a manifest.
type Toolchain struct {
	Node string `json:"node,omitempty"`
	Npm  string `json:"npm,omitempty"`
	Pnpm string `json:"pnpm,omitempty"`
	Yarn string `json:"yarn,omitempty"`
}

// Manifest is the subset of package.json fields the core consumes, plus
// an Extra bucket preserving every other top-level key across a
// read-modify-write round trip.
type Manifest struct {
	Name            string            `json:"name,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	Toolchain       *Toolchain        `json:"toolchain,omitempty"`
	Extends         string            `json:"extends,omitempty"`
	Engines         *Engines          `json:"engines,omitempty"`

	// Extra holds every top-level key not modeled above, so Write can
	// re-emit them unchanged.
	Extra map[string]json.RawMessage `json:"-"`

	path string
}

// Engines is the tolerant view of a manifest's "engines" field: only a
// well-formed {"node": "<string>"} object is honored, anything else
// (missing key, non-string, or a non-object engines field) is treated as
// absent per the tagged-variant tolerance rule.
type Engines struct {
	Node string
}

func (e *Engines) UnmarshalJSON(data []byte) error {
	var raw struct {
		Node *string `json:"node"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		// Malformed engines field (e.g. a JSON array): tolerate as absent.
		*e = Engines{}
		return nil
	}
	if raw.Node != nil {
		e.Node = *raw.Node
	}
	return nil
}

func (e Engines) MarshalJSON() ([]byte, error) {
	if e.Node == "" {
		return []byte("{}"), nil
	}
	return json.Marshal(struct {
		Node string `json:"node"`
	}{Node: e.Node})
}

// Read deserializes the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return decode(path, data)
}

func decode(path string, data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	var extra map[string]json.RawMessage
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	for _, known := range []string{"name", "dependencies", "devDependencies", "toolchain", "extends", "engines"} {
		delete(extra, known)
	}
	m.Extra = extra
	m.path = path
	return &m, nil
}

// Write serializes m back to its source path using a temp-file-then-rename
// sequence, preserving unrelated fields via Extra.
func (m *Manifest) Write() error {
	return m.WriteTo(m.path)
}

// WriteTo serializes m to an arbitrary path, for callers that loaded the
// manifest from bytes rather than Read.
func (m *Manifest) WriteTo(path string) error {
	out := map[string]json.RawMessage{}
	for k, v := range m.Extra {
		out[k] = v
	}

	marshal := func(v interface{}) (json.RawMessage, error) {
		b, err := json.Marshal(v)
		return json.RawMessage(b), err
	}

	if m.Name != "" {
		if v, err := marshal(m.Name); err == nil {
			out["name"] = v
		}
	}
	if m.Dependencies != nil {
		if v, err := marshal(m.Dependencies); err == nil {
			out["dependencies"] = v
		}
	}
	if m.DevDependencies != nil {
		if v, err := marshal(m.DevDependencies); err == nil {
			out["devDependencies"] = v
		}
	}
	if m.Toolchain != nil {
		if v, err := marshal(m.Toolchain); err == nil {
			out["toolchain"] = v
		}
	}
	if m.Extends != "" {
		if v, err := marshal(m.Extends); err == nil {
			out["extends"] = v
		}
	}
	if m.Engines != nil {
		if v, err := marshal(*m.Engines); err == nil {
			out["engines"] = v
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, ".jsvm-manifest-"+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit manifest %s: %w", path, err)
	}
	return nil
}

// Path returns the manifest's source path.
func (m *Manifest) Path() string { return m.path }
