// Package netdiff computes the net lines added and removed across every file
// a session touched, by comparing each file's pre-session content with what
// is on disk now.
package netdiff

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/fakeyudi/statusline/internal/logging"
	"github.com/fakeyudi/statusline/internal/transcript"
)

// Counts is a pair of added and removed line counts.
type Counts struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Status classifies how a single file contributed to the totals.
type Status string

const (
	StatusModified  Status = "modified"
	StatusUnchanged Status = "unchanged"
	StatusDeleted   Status = "deleted"
	StatusSkipped   Status = "skipped" // original could not be written to scratch
	StatusFailed    Status = "failed"  // comparison could not be run
)

// FileResult is one file's contribution.
type FileResult struct {
	Path   string `json:"path"`
	Status Status `json:"status"`
	Counts
}

// Report holds the session-wide totals and the per-file breakdown, sorted
// by path.
type Report struct {
	Totals Counts       `json:"totals"`
	Files  []FileResult `json:"files"`
}

func (r *Report) add(fr FileResult) {
	r.Totals.Added += fr.Added
	r.Totals.Removed += fr.Removed
	r.Files = append(r.Files, fr)
}

// Aggregator turns transcript originals into a Report.
type Aggregator struct {
	Comparator  Comparator     // if nil, an ExecComparator running "diff"
	ScratchBase string         // parent of the per-run scratch directory; defaults to os.TempDir()
	BaseDir     string         // resolves relative transcript paths; ignored when empty
	Logger      logging.Logger // if nil, nothing is logged
}

// scratchPrefix names the per-run scratch directory under ScratchBase.
const scratchPrefix = "statusline-"

// Aggregate compares every tracked file against its recorded original.
// It never fails: files that cannot be compared contribute nothing.
//
// A uniquely named scratch directory holds the original being compared. It
// is created before the first file and removed when Aggregate returns.
func (a *Aggregator) Aggregate(ctx context.Context, originals transcript.Originals) Report {
	report := Report{Files: make([]FileResult, 0, len(originals))}
	if len(originals) == 0 {
		return report
	}
	log := a.logger()

	scratch, err := a.makeScratch()
	if err != nil {
		log.Warn("creating scratch directory", "err", err)
	} else {
		defer func() {
			if err := os.RemoveAll(scratch); err != nil {
				log.Warn("removing scratch directory", "dir", scratch, "err", err)
			}
		}()
	}

	paths := make([]string, 0, len(originals))
	for p := range originals {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	scratchFile := filepath.Join(scratch, "original")
	for _, p := range paths {
		fr := a.compareFile(ctx, p, originals[p], scratch != "", scratchFile)
		log.Debug("compared file", "path", p, "status", fr.Status, "added", fr.Added, "removed", fr.Removed)
		report.add(fr)
	}
	return report
}

func (a *Aggregator) compareFile(ctx context.Context, path, original string, haveScratch bool, scratchFile string) FileResult {
	fr := FileResult{Path: path}
	current := a.resolve(path)

	if _, err := os.Stat(current); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fr.Status = StatusDeleted
			fr.Removed = CountNonEmptyLines(original)
			return fr
		}
		a.logger().Warn("stat tracked file", "path", current, "err", err)
		fr.Status = StatusFailed
		return fr
	}

	if !haveScratch {
		fr.Status = StatusSkipped
		return fr
	}
	if err := os.WriteFile(scratchFile, []byte(original), 0o600); err != nil {
		a.logger().Warn("writing scratch original", "path", path, "err", err)
		fr.Status = StatusSkipped
		return fr
	}

	out, err := a.comparator().Compare(ctx, scratchFile, current)
	if err != nil {
		a.logger().Warn("comparing file", "path", current, "err", err)
		fr.Status = StatusFailed
		return fr
	}

	fr.Counts = ParseCounts(out)
	if fr.Added == 0 && fr.Removed == 0 {
		fr.Status = StatusUnchanged
	} else {
		fr.Status = StatusModified
	}
	return fr
}

func (a *Aggregator) makeScratch() (string, error) {
	base := a.ScratchBase
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, scratchPrefix+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func (a *Aggregator) resolve(path string) string {
	if a.BaseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.BaseDir, path)
}

func (a *Aggregator) comparator() Comparator {
	if a.Comparator == nil {
		return &ExecComparator{}
	}
	return a.Comparator
}

func (a *Aggregator) logger() logging.Logger {
	if a.Logger == nil {
		return logging.Nop()
	}
	return a.Logger
}

// ParseCounts counts ">" lines as added and "<" lines as removed in normal
// diff output. Hunk headers and "---" separators match neither.
func ParseCounts(output string) Counts {
	var c Counts
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(line, ">"):
			c.Added++
		case strings.HasPrefix(line, "<"):
			c.Removed++
		}
	}
	return c
}

// CountNonEmptyLines counts the lines of s that are not empty. A trailing
// carriage return is stripped before the check.
func CountNonEmptyLines(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSuffix(line, "\r") != "" {
			n++
		}
	}
	return n
}
