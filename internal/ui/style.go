// Package ui renders download progress and status lines for the jsvm
// CLI: a TTY-aware progress bar when stdout is a terminal, and plain
// colorized status lines otherwise.
package ui

import "github.com/fatih/color"

// Style holds common output styling for CLI commands.
type Style struct {
	SuccessMark string
	FailMark    string
	WarnMark    string
	Header      *color.Color
	Path        *color.Color
	Success     *color.Color
	Dim         *color.Color
}

// NewStyle creates a new Style with standard colors.
func NewStyle() *Style {
	return &Style{
		SuccessMark: color.New(color.FgGreen).Sprint("✓"),
		FailMark:    color.New(color.FgRed).Sprint("✗"),
		WarnMark:    color.New(color.FgYellow).Sprint("⚠"),
		Header:      color.New(color.FgCyan, color.Bold),
		Path:        color.New(color.FgCyan),
		Success:     color.New(color.FgGreen, color.Bold),
		Dim:         color.New(color.FgHiBlack),
	}
}
