package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Prefix starts every line the installer prints for the user.
const Prefix = "[snailer]"

// Style holds common output styling for CLI commands.
type Style struct {
	SuccessMark string
	FailMark    string
	WarnMark    string
	Prefix      *color.Color
	Header      *color.Color
	Path        *color.Color
	Success     *color.Color
	Step        *color.Color
}

// NewStyle creates a new Style with standard colors.
func NewStyle() *Style {
	return &Style{
		SuccessMark: color.New(color.FgGreen).Sprint("✓"),
		FailMark:    color.New(color.FgRed).Sprint("✗"),
		WarnMark:    color.New(color.FgYellow).Sprint("⚠"),
		Prefix:      color.New(color.FgMagenta, color.Bold),
		Header:      color.New(color.FgCyan, color.Bold),
		Path:        color.New(color.FgCyan),
		Success:     color.New(color.FgGreen, color.Bold),
		Step:        color.New(color.FgYellow),
	}
}

// Println writes a prefixed message line to w.
func (s *Style) Println(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", s.Prefix.Sprint(Prefix), fmt.Sprintf(format, args...))
}
