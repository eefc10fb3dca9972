package netdiff

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/statusline/internal/transcript"
)

// fakeComparator returns canned output, or err, for every comparison.
type fakeComparator struct {
	out   string
	err   error
	calls int
}

func (f *fakeComparator) Compare(ctx context.Context, originalFile, currentFile string) (string, error) {
	f.calls++
	return f.out, f.err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// assertScratchRemoved fails if anything is left behind under base.
func assertScratchRemoved(t *testing.T, base string) {
	t.Helper()
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("read scratch base: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), scratchPrefix) {
			t.Errorf("scratch directory %s was not removed", e.Name())
		}
	}
}

func TestAggregateDeletedFile(t *testing.T) {
	dir := t.TempDir()
	base := t.TempDir()
	cmp := &fakeComparator{}
	agg := &Aggregator{Comparator: cmp, ScratchBase: base}

	report := agg.Aggregate(context.Background(), transcript.Originals{
		filepath.Join(dir, "a.txt"): "line1\nline2\n",
	})

	if report.Totals != (Counts{Added: 0, Removed: 2}) {
		t.Errorf("want +0 -2, got %+v", report.Totals)
	}
	if cmp.calls != 0 {
		t.Errorf("comparator should not run for deleted files, ran %d times", cmp.calls)
	}
	if len(report.Files) != 1 || report.Files[0].Status != StatusDeleted {
		t.Errorf("want one deleted file, got %+v", report.Files)
	}
	assertScratchRemoved(t, base)
}

func TestAggregateDeletedFileIgnoresBlankLines(t *testing.T) {
	agg := &Aggregator{Comparator: &fakeComparator{}, ScratchBase: t.TempDir()}
	report := agg.Aggregate(context.Background(), transcript.Originals{
		filepath.Join(t.TempDir(), "gone.go"): "package x\n\n\nfunc f() {}\r\n\r\n",
	})
	if report.Totals.Removed != 2 {
		t.Errorf("want 2 removed, got %d", report.Totals.Removed)
	}
}

func TestAggregateModifiedFileBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	writeFile(t, path, "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n")

	base := t.TempDir()
	agg := &Aggregator{Comparator: BuiltinComparator{}, ScratchBase: base}
	report := agg.Aggregate(context.Background(), transcript.Originals{
		path: "package main\n\nfunc main() {\n}\n",
	})

	if report.Totals != (Counts{Added: 1, Removed: 0}) {
		t.Errorf("want +1 -0, got %+v", report.Totals)
	}
	if report.Files[0].Status != StatusModified {
		t.Errorf("want status %q, got %q", StatusModified, report.Files[0].Status)
	}
	assertScratchRemoved(t, base)
}

func TestAggregateComparatorFailureContributesNothing(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.txt")
	writeFile(t, kept, "new\n")

	cmp := &fakeComparator{err: errors.New("diff: executable file not found")}
	base := t.TempDir()
	agg := &Aggregator{Comparator: cmp, ScratchBase: base}
	report := agg.Aggregate(context.Background(), transcript.Originals{
		kept:                          "old\n",
		filepath.Join(dir, "gone.txt"): "a\nb\nc\n",
	})

	if report.Totals != (Counts{Added: 0, Removed: 3}) {
		t.Errorf("want +0 -3, got %+v", report.Totals)
	}
	for _, f := range report.Files {
		if f.Path == kept && f.Status != StatusFailed {
			t.Errorf("want %s to be %q, got %q", kept, StatusFailed, f.Status)
		}
	}
	assertScratchRemoved(t, base)
}

func TestAggregateUnusableScratchSkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.txt")
	writeFile(t, kept, "new\n")

	// A regular file where the scratch base should be makes MkdirAll fail.
	base := filepath.Join(t.TempDir(), "not-a-dir")
	writeFile(t, base, "")

	cmp := &fakeComparator{out: "> new\n"}
	agg := &Aggregator{Comparator: cmp, ScratchBase: base}
	report := agg.Aggregate(context.Background(), transcript.Originals{
		kept:                          "old\n",
		filepath.Join(dir, "gone.txt"): "a\n",
	})

	if report.Totals != (Counts{Added: 0, Removed: 1}) {
		t.Errorf("want +0 -1, got %+v", report.Totals)
	}
	if cmp.calls != 0 {
		t.Errorf("comparator should not run without a scratch file, ran %d times", cmp.calls)
	}
}

func TestAggregateResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rel.txt"), "same\n")

	agg := &Aggregator{Comparator: BuiltinComparator{}, ScratchBase: t.TempDir(), BaseDir: dir}
	report := agg.Aggregate(context.Background(), transcript.Originals{"rel.txt": "same\n"})
	if len(report.Files) != 1 || report.Files[0].Status != StatusUnchanged {
		t.Errorf("want rel.txt unchanged, got %+v", report.Files)
	}
}

func TestAggregateEmptyOriginals(t *testing.T) {
	base := t.TempDir()
	report := (&Aggregator{ScratchBase: base}).Aggregate(context.Background(), transcript.Originals{})
	if report.Totals != (Counts{}) || len(report.Files) != 0 {
		t.Errorf("want empty report, got %+v", report)
	}
	assertScratchRemoved(t, base)
}

func TestAggregateExecDiff(t *testing.T) {
	if _, err := exec.LookPath("diff"); err != nil {
		t.Skip("diff not installed")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "alpha\nBETA\ngamma\ndelta\n")

	agg := &Aggregator{Comparator: &ExecComparator{}, ScratchBase: t.TempDir()}
	report := agg.Aggregate(context.Background(), transcript.Originals{
		path: "alpha\nbeta\ngamma\n",
	})
	if report.Totals != (Counts{Added: 2, Removed: 1}) {
		t.Errorf("want +2 -1, got %+v", report.Totals)
	}
}

func TestExecComparatorMissingBinary(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	writeFile(t, a, "x\n")
	cmp := &ExecComparator{Bin: filepath.Join(dir, "no-such-diff")}
	if _, err := cmp.Compare(context.Background(), a, a); err == nil {
		t.Fatal("expected an error for a missing diff binary")
	}
}

func TestParseCounts(t *testing.T) {
	out := "2c2,3\n< beta\n---\n> BETA\n> delta\n5d5\n< epsilon\n"
	got := ParseCounts(out)
	if got != (Counts{Added: 2, Removed: 2}) {
		t.Errorf("want +2 -2, got %+v", got)
	}
	if got := ParseCounts(""); got != (Counts{}) {
		t.Errorf("empty output: want zero counts, got %+v", got)
	}
}

func TestCountNonEmptyLines(t *testing.T) {
	cases := map[string]int{
		"":                   0,
		"\n\n":               0,
		"line1\nline2\n":     2,
		"line1\nline2":       2,
		"a\n\nb\n\n\n":       2,
		"crlf\r\n\r\nnext\r": 2,
	}
	for in, want := range cases {
		if got := CountNonEmptyLines(in); got != want {
			t.Errorf("CountNonEmptyLines(%q): want %d, got %d", in, want, got)
		}
	}
}

// linesGen draws file content made of short lines, some of them blank.
var linesGen = rapid.Custom(func(t *rapid.T) string {
	lines := rapid.SliceOfN(rapid.StringMatching(`[a-c]{0,3}`), 0, 12).Draw(t, "lines")
	s := strings.Join(lines, "\n")
	if len(lines) > 0 && rapid.Bool().Draw(t, "trailingNewline") {
		s += "\n"
	}
	return s
})

// Feature: statusline, Property 2: deleted files count every non-empty original line as removed
func TestDeletedFileProperty(t *testing.T) {
	dir := t.TempDir()
	base := t.TempDir()
	rapid.Check(t, func(t *rapid.T) {
		original := linesGen.Draw(t, "original")
		want := 0
		for _, l := range strings.Split(original, "\n") {
			if l != "" {
				want++
			}
		}
		agg := &Aggregator{Comparator: BuiltinComparator{}, ScratchBase: base}
		report := agg.Aggregate(context.Background(), transcript.Originals{
			filepath.Join(dir, "missing.txt"): original,
		})
		if report.Totals.Added != 0 || report.Totals.Removed != want {
			t.Fatalf("want +0 -%d, got %+v", want, report.Totals)
		}
	})
}

// Feature: statusline, Property 3: byte-identical files contribute nothing
func TestIdenticalFileProperty(t *testing.T) {
	dir := t.TempDir()
	base := t.TempDir()
	path := filepath.Join(dir, "same.txt")
	rapid.Check(t, func(rt *rapid.T) {
		content := linesGen.Draw(rt, "content")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			rt.Fatalf("write: %v", err)
		}
		agg := &Aggregator{Comparator: BuiltinComparator{}, ScratchBase: base}
		report := agg.Aggregate(context.Background(), transcript.Originals{path: content})
		if report.Totals != (Counts{}) {
			rt.Fatalf("want +0 -0 for identical content, got %+v", report.Totals)
		}
	})
}

// Feature: statusline, Property 4: aggregation is idempotent over unchanged inputs
func TestAggregateIdempotentProperty(t *testing.T) {
	dir := t.TempDir()
	base := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) {
		originals := transcript.Originals{}
		n := rapid.IntRange(1, 4).Draw(rt, "files")
		for i := 0; i < n; i++ {
			path := filepath.Join(dir, rapid.StringMatching(`[a-z]{1,6}\.txt`).Draw(rt, "name"))
			originals[path] = linesGen.Draw(rt, "original")
			if rapid.Bool().Draw(rt, "exists") {
				if err := os.WriteFile(path, []byte(linesGen.Draw(rt, "current")), 0o644); err != nil {
					rt.Fatalf("write: %v", err)
				}
			} else {
				os.Remove(path)
			}
		}

		agg := &Aggregator{Comparator: BuiltinComparator{}, ScratchBase: base}
		first := agg.Aggregate(context.Background(), originals)
		second := agg.Aggregate(context.Background(), originals)
		if first.Totals != second.Totals {
			rt.Fatalf("totals differ between runs: %+v vs %+v", first.Totals, second.Totals)
		}
	})
}

// Feature: statusline, Property 5: builtin comparator agrees with diff(1) on counts
func TestBuiltinMatchesExecProperty(t *testing.T) {
	if _, err := exec.LookPath("diff"); err != nil {
		t.Skip("diff not installed")
	}
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	rapid.Check(t, func(rt *rapid.T) {
		before := linesGen.Draw(rt, "before")
		after := linesGen.Draw(rt, "after")
		if err := os.WriteFile(a, []byte(before), 0o644); err != nil {
			rt.Fatalf("write: %v", err)
		}
		if err := os.WriteFile(b, []byte(after), 0o644); err != nil {
			rt.Fatalf("write: %v", err)
		}

		builtin, err := BuiltinComparator{}.Compare(context.Background(), a, b)
		if err != nil {
			rt.Fatalf("builtin: %v", err)
		}
		external, err := (&ExecComparator{}).Compare(context.Background(), a, b)
		if err != nil {
			rt.Fatalf("exec: %v", err)
		}
		bc, ec := ParseCounts(builtin), ParseCounts(external)
		// Alignments may differ, but added-removed is always the change in
		// line count.
		if bc.Added-bc.Removed != ec.Added-ec.Removed {
			rt.Fatalf("net change differs: builtin %+v, diff %+v", bc, ec)
		}
	})
}
