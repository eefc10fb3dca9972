// Package statusline assembles the single status line printed for the host.
package statusline

import (
	"fmt"

	"github.com/muesli/termenv"
)

// Catppuccin colors from the 256-color palette.
const (
	colorBranch  = "111" // blue
	colorAdded   = "151" // green
	colorRemoved = "211" // pink
	colorModel   = "183" // mauve
	colorTokens  = "216" // peach
)

// Palette holds one style per colored field. Styled wraps a value in its
// color sequence and leaves the value itself untouched.
type Palette struct {
	Branch  termenv.Style
	Added   termenv.Style
	Removed termenv.Style
	Model   termenv.Style
	Tokens  termenv.Style
}

// NewPalette builds the styles. The host captures stdout through a pipe, so
// the profile is fixed instead of detected: ANSI256 when color is true,
// plain text otherwise.
func NewPalette(color bool) Palette {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	fg := func(c string) termenv.Style {
		return profile.String().Foreground(profile.Color(c))
	}
	return Palette{
		Branch:  fg(colorBranch),
		Added:   fg(colorAdded),
		Removed: fg(colorRemoved),
		Model:   fg(colorModel),
		Tokens:  fg(colorTokens),
	}
}

// Fields are the values shown on the status line.
type Fields struct {
	Branch  string
	Added   int
	Removed int
	Model   string
	Gauge   string // uncolored; empty omits it
}

// Format renders "<branch> | +<added> -<removed> | <model> | <gauge>".
// The separator before the gauge is kept even when the gauge is empty.
func (p Palette) Format(f Fields) string {
	gauge := ""
	if f.Gauge != "" {
		gauge = p.Tokens.Styled(f.Gauge)
	}
	return fmt.Sprintf("%s | %s %s | %s | %s",
		p.Branch.Styled(f.Branch),
		p.Added.Styled(fmt.Sprintf("+%d", f.Added)),
		p.Removed.Styled(fmt.Sprintf("-%d", f.Removed)),
		p.Model.Styled(f.Model),
		gauge,
	)
}
