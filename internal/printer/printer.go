// Package printer renders the "list" and "which" subcommands' output in
// either human (tabular) or plain (script-friendly) format.
package printer

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/terassyi/jsvm/internal/platform"
)

// Format selects list/which's output shape.
type Format string

const (
	FormatHuman Format = "human"
	FormatPlain Format = "plain"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatHuman, "":
		return FormatHuman, nil
	case FormatPlain:
		return FormatPlain, nil
	default:
		return "", fmt.Errorf("unknown format %q, valid formats: human, plain", s)
	}
}

// Row is a single tool's resolved version for display.
type Row struct {
	Tool    string
	Version string
	Source  platform.Source
	Current bool
	Default bool
}

func sourceLabel(s platform.Source) string {
	switch s {
	case platform.SourceCommandLine:
		return "command-line"
	case platform.SourceBinary:
		return "binary"
	case platform.SourceProject:
		return "project"
	case platform.SourceDefault:
		return "default"
	default:
		return "none"
	}
}

// PrintList renders a platform's resolved rows according to format.
func PrintList(w io.Writer, rows []Row, format Format) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Tool < rows[j].Tool })

	if format == FormatPlain {
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Tool, r.Version, sourceLabel(r.Source))
		}
		return
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No tool versions found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join([]string{"TOOL", "VERSION", "SOURCE"}, "\t"))
	for _, r := range rows {
		marker := ""
		switch {
		case r.Current:
			marker = " (current)"
		case r.Default:
			marker = " (default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s%s\n", r.Tool, r.Version, sourceLabel(r.Source), marker)
	}
	tw.Flush()
}

// PrintWhich renders the resolved absolute path of a binary.
func PrintWhich(w io.Writer, tool, path string, format Format) {
	if format == FormatPlain {
		fmt.Fprintln(w, path)
		return
	}
	fmt.Fprintf(w, "%s -> %s\n", tool, path)
}
