// Package gauge renders the five-segment context window usage bar.
package gauge

import (
	"fmt"
	"strings"

	"github.com/fakeyudi/statusline/internal/session"
)

const (
	// Segments is the total width of the bar.
	Segments = 5

	Filled = "\u25b0"
	Hollow = "\u25b1"
)

// Gauge is the computed usage of a context window.
type Gauge struct {
	Current uint64 // tokens in use
	Size    uint64 // window size, never zero
	Percent uint64
	Filled  int
}

// Compute derives a Gauge from the context window report. ok is false when
// there is no report or the window size is absent or zero.
func Compute(cw *session.ContextWindow) (g Gauge, ok bool) {
	size := cw.WindowSize()
	if size == 0 {
		return Gauge{}, false
	}
	current := cw.CurrentUsage.Tokens()
	pct := current * 100 / size

	// Usage above the window size still shows a full bar.
	filled := pct / 20
	if filled > Segments {
		filled = Segments
	}
	return Gauge{Current: current, Size: size, Percent: pct, Filled: int(filled)}, true
}

// Bar returns the segments, filled first.
func (g Gauge) Bar() string {
	return strings.Repeat(Filled, g.Filled) + strings.Repeat(Hollow, Segments-g.Filled)
}

// String renders the bar followed by the usage in thousands of tokens,
// e.g. "▰▰▱▱▱  84k/200k tokens".
func (g Gauge) String() string {
	return fmt.Sprintf("%s  %dk/%dk tokens", g.Bar(), g.Current/1000, g.Size/1000)
}

// Render returns the uncolored gauge text, or "" when there is nothing to show.
func Render(cw *session.ContextWindow) string {
	g, ok := Compute(cw)
	if !ok {
		return ""
	}
	return g.String()
}
