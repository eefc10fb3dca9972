package netdiff

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Comparator compares two files line by line and returns the comparison as
// normal diff output: lines only in the first file start with "<", lines
// only in the second start with ">".
type Comparator interface {
	Compare(ctx context.Context, originalFile, currentFile string) (string, error)
}

// ExecComparator runs an external diff binary.
type ExecComparator struct {
	Bin string // defaults to "diff"
}

// Compare implements Comparator. diff exits 1 when the inputs differ, which
// is not a failure; any other non-zero exit is.
func (e *ExecComparator) Compare(ctx context.Context, originalFile, currentFile string) (string, error) {
	bin := "diff"
	if e != nil && strings.TrimSpace(e.Bin) != "" {
		bin = e.Bin
	}
	cmd := exec.CommandContext(ctx, bin, originalFile, currentFile)
	out, err := cmd.Output()
	if err != nil && !isDifferenceExit(err) {
		return "", fmt.Errorf("%s: %w", bin, err)
	}
	return string(out), nil
}

// isDifferenceExit reports whether err is an *exec.ExitError with exit code 1.
func isDifferenceExit(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == 1
	}
	return false
}

// BuiltinComparator diffs in process with diffmatchpatch, so no external
// binary is needed. Its output uses the same markers as ExecComparator.
type BuiltinComparator struct{}

// Compare implements Comparator.
func (BuiltinComparator) Compare(ctx context.Context, originalFile, currentFile string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	before, err := os.ReadFile(originalFile)
	if err != nil {
		return "", err
	}
	after, err := os.ReadFile(currentFile)
	if err != nil {
		return "", err
	}

	enc := &lineEncoder{index: map[string]rune{}}
	a := enc.encode(string(before))
	b := enc.encode(string(after))

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMainRunes(a, b, false)

	var sb strings.Builder
	for _, d := range diffs {
		var marker string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			marker = "< "
		case diffmatchpatch.DiffInsert:
			marker = "> "
		default:
			continue
		}
		for _, r := range d.Text {
			sb.WriteString(marker)
			sb.WriteString(strings.TrimSuffix(enc.lines[enc.position(r)], "\n"))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// lineEncoder maps each distinct line to a single rune so that a character
// diff over the encoded strings is a line diff over the originals.
type lineEncoder struct {
	index map[string]rune
	lines []string
}

// surrogates cannot round-trip through a Go string, so positions at or above
// the surrogate block are shifted past it.
const (
	surrogateMin = 0xD800
	surrogateLen = 0x800
)

func (e *lineEncoder) encode(text string) []rune {
	var out []rune
	for len(text) > 0 {
		line := text
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line = text[:i+1]
		}
		text = text[len(line):]

		r, ok := e.index[line]
		if !ok {
			r = rune(len(e.lines))
			if r >= surrogateMin {
				r += surrogateLen
			}
			e.index[line] = r
			e.lines = append(e.lines, line)
		}
		out = append(out, r)
	}
	return out
}

func (e *lineEncoder) position(r rune) int {
	if r >= surrogateMin+surrogateLen {
		r -= surrogateLen
	}
	return int(r)
}
