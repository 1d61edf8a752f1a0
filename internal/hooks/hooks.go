// Package hooks loads the user's tools/hooks.toml, the per-tool URL
// templating and subprocess indirections used to override index/latest/
// distro lookups and to publish lifecycle events.
package hooks

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
)

// Entry is a single hook: exactly one of Prefix, Template, or Bin must be
// set. Zero or multiple is a configuration error.
type Entry struct {
	Prefix   string `toml:"prefix"`
	Template string `toml:"template"`
	Bin      string `toml:"bin"`
}

// ErrHookFieldCount is returned when an Entry carries zero or more than
// one of prefix/template/bin.
type ErrHookFieldCount struct {
	Section string
}

func (e *ErrHookFieldCount) Error() string {
	return fmt.Sprintf("hook %q must set exactly one of prefix, template, or bin", e.Section)
}

func (e Entry) validate(section string) error {
	count := 0
	if e.Prefix != "" {
		count++
	}
	if e.Template != "" {
		count++
	}
	if e.Bin != "" {
		count++
	}
	if count != 1 {
		return &ErrHookFieldCount{Section: section}
	}
	return nil
}

func (e Entry) isZero() bool {
	return e.Prefix == "" && e.Template == "" && e.Bin == ""
}

// ToolHooks is a single [node]/[npm]/[pnpm]/[yarn] section.
type ToolHooks struct {
	Index  *Entry `toml:"index"`
	Latest *Entry `toml:"latest"`
	Distro *Entry `toml:"distro"`
	// Format selects the Yarn index shape: "array" (default, GitHub
	// releases) or "npm" (dist-tags/versions registry shape).
	Format string `toml:"format"`
}

// EventsPublish is the [events.publish] section: exactly one of Url or
// Bin, never both or neither.
type EventsPublish struct {
	URL string `toml:"url"`
	Bin string `toml:"bin"`
}

// ErrPublishHookBothURLAndBin and ErrPublishHookNeither report malformed
// [events.publish] sections.
var (
	ErrPublishHookBothURLAndBin = fmt.Errorf("events.publish must not set both url and bin")
	ErrPublishHookNeither       = fmt.Errorf("events.publish must set one of url or bin")
)

func (p EventsPublish) validate() error {
	if p.URL != "" && p.Bin != "" {
		return ErrPublishHookBothURLAndBin
	}
	if p.URL == "" && p.Bin == "" {
		return ErrPublishHookNeither
	}
	return nil
}

// Events wraps the optional [events] table.
type Events struct {
	Publish *EventsPublish `toml:"publish"`
}

// Config is the parsed tools/hooks.toml document.
type Config struct {
	Node   *ToolHooks `toml:"node"`
	Npm    *ToolHooks `toml:"npm"`
	Pnpm   *ToolHooks `toml:"pnpm"`
	Yarn   *ToolHooks `toml:"yarn"`
	Events *Events    `toml:"events"`
}

// Load parses and validates the hooks document at path. A missing file
// is not an error: it yields an empty Config.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse hooks config %s: %w", path, err)
	}

	for name, th := range map[string]*ToolHooks{"node": cfg.Node, "npm": cfg.Npm, "pnpm": cfg.Pnpm, "yarn": cfg.Yarn} {
		if th == nil {
			continue
		}
		for entryName, e := range map[string]*Entry{"index": th.Index, "latest": th.Latest, "distro": th.Distro} {
			if e == nil {
				continue
			}
			if err := e.validate(name + "." + entryName); err != nil {
				return nil, err
			}
		}
	}

	if cfg.Events != nil && cfg.Events.Publish != nil {
		if err := cfg.Events.Publish.validate(); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// toolHooksFor selects a Config's section for a tool name.
func (c *Config) toolHooksFor(tool string) *ToolHooks {
	if c == nil {
		return nil
	}
	switch tool {
	case "node":
		return c.Node
	case "npm":
		return c.Npm
	case "pnpm":
		return c.Pnpm
	case "yarn":
		return c.Yarn
	}
	return nil
}

// IndexURL returns the prefix of tool's index hook, if one is set; an
// index hook given as a template or bin reports false.
func (c *Config) IndexURL(tool string) (string, bool) {
	th := c.toolHooksFor(tool)
	if th == nil || th.Index == nil {
		return "", false
	}
	return th.Index.Prefix, th.Index.Prefix != ""
}

// YarnFormat returns the configured Yarn index format, defaulting to
// "array" when unspecified (the documented backward-compatible default).
func (c *Config) YarnFormat() string {
	if c == nil || c.Yarn == nil || c.Yarn.Format == "" {
		return "array"
	}
	return c.Yarn.Format
}

// DistroURL renders the distro hook template for tool with the given
// substitution values, or returns its prefix; it reports ok=false if no
// distro hook is configured or the hook is given as a bin.
func (c *Config) DistroURL(tool, version, os, arch string) (string, bool, error) {
	th := c.toolHooksFor(tool)
	if th == nil || th.Distro == nil {
		return "", false, nil
	}
	e := th.Distro
	switch {
	case e.Template != "":
		url, err := renderTemplate(e.Template, map[string]string{"version": version, "os": os, "arch": arch})
		return url, true, err
	case e.Prefix != "":
		return e.Prefix, true, nil
	default:
		return "", false, nil
	}
}

// templateVarRE rewrites the hook config's documented bare substitution
// markers ("{{version}}") into the dotted field references text/template
// requires ("{{.Version}}").
var templateVarRE = regexp.MustCompile(`\{\{\s*(version|os|arch)\s*\}\}`)

func renderTemplate(tmpl string, vars map[string]string) (string, error) {
	rewritten := templateVarRE.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := templateVarRE.FindStringSubmatch(m)[1]
		return "{{." + strings.Title(name) + "}}"
	})

	t, err := template.New("hook").Parse(rewritten)
	if err != nil {
		return "", fmt.Errorf("invalid hook template %q: %w", tmpl, err)
	}

	data := struct{ Version, Os, Arch string }{
		Version: vars["version"],
		Os:      vars["os"],
		Arch:    vars["arch"],
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render hook template %q: %w", tmpl, err)
	}
	return buf.String(), nil
}
