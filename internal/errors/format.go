//nolint:revive // Package name intentionally shadows stdlib errors for convenience.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders *Error values for CLI display.
type Formatter struct {
	NoColor bool
	Writer  io.Writer

	errorColor *color.Color
	codeColor  *color.Color
	dimColor   *color.Color
	hintColor  *color.Color
}

// NewFormatter creates a new Formatter.
func NewFormatter(w io.Writer, noColor bool) *Formatter {
	if noColor {
		color.NoColor = true
	}

	return &Formatter{
		NoColor:    noColor,
		Writer:     w,
		errorColor: color.New(color.FgRed, color.Bold),
		codeColor:  color.New(color.FgRed),
		dimColor:   color.New(color.FgHiBlack),
		hintColor:  color.New(color.FgGreen),
	}
}

// Format renders err for CLI display: a header with code and message,
// a line per detail, the cause chain, and a remediation hint.
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}

	var je *Error
	if !stderrors.As(err, &je) {
		return f.errorColor.Sprint("Error: ") + err.Error() + "\n"
	}

	var sb strings.Builder
	sb.WriteString(f.errorColor.Sprint("Error"))
	sb.WriteString(" ")
	sb.WriteString(f.codeColor.Sprintf("[%s]", je.Code))
	sb.WriteString(f.errorColor.Sprint(": "))
	sb.WriteString(je.Message)
	sb.WriteString("\n")

	if len(je.Details) > 0 {
		sb.WriteString("\n")
		keys := make([]string, 0, len(je.Details))
		for k := range je.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString("  ")
			sb.WriteString(f.dimColor.Sprintf("%s: ", k))
			fmt.Fprintf(&sb, "%v", je.Details[k])
			sb.WriteString("\n")
		}
	}

	if je.Cause != nil {
		sb.WriteString("\n  ")
		sb.WriteString(f.dimColor.Sprint("Cause: "))
		sb.WriteString(je.Cause.Error())
		sb.WriteString("\n")
	}

	if je.Hint != "" {
		sb.WriteString("\n")
		sb.WriteString(f.hintColor.Sprint("Hint: "))
		lines := strings.Split(je.Hint, "\n")
		sb.WriteString(lines[0])
		sb.WriteString("\n")
		for _, line := range lines[1:] {
			sb.WriteString("      ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// FormatJSON renders err as JSON for machine-readable output.
func (f *Formatter) FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return nil, nil
	}

	var je *Error
	if !stderrors.As(err, &je) {
		return json.MarshalIndent(map[string]string{"error": err.Error()}, "", "  ")
	}
	return json.MarshalIndent(je, "", "  ")
}
