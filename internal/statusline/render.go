package statusline

import (
	"context"

	"github.com/fakeyudi/statusline/internal/gauge"
	"github.com/fakeyudi/statusline/internal/netdiff"
	"github.com/fakeyudi/statusline/internal/session"
	"github.com/fakeyudi/statusline/internal/transcript"
	"github.com/fakeyudi/statusline/internal/vcs"
)

// Renderer runs the whole pipeline for one session input: branch lookup,
// transcript originals, net diff and token gauge, then formatting.
type Renderer struct {
	Branches    vcs.BranchLookup
	Transcripts *transcript.Reader
	Aggregator  netdiff.Aggregator
	Palette     Palette
}

// Fields computes the values for in. Every step degrades to a neutral value
// on failure, so Fields cannot fail.
func (r *Renderer) Fields(ctx context.Context, in *session.Input) Fields {
	branches := r.Branches
	if branches == nil {
		branches = &vcs.GitCLI{}
	}

	originals := r.Transcripts.ReadFile(in.TranscriptPath)

	agg := r.Aggregator
	agg.BaseDir = in.Cwd
	report := agg.Aggregate(ctx, originals)

	return Fields{
		Branch:  branches.Branch(ctx, in.Cwd),
		Added:   report.Totals.Added,
		Removed: report.Totals.Removed,
		Model:   in.Model.DisplayName,
		Gauge:   gauge.Render(in.ContextWindow),
	}
}

// Render returns the formatted status line for in, without a newline.
func (r *Renderer) Render(ctx context.Context, in *session.Input) string {
	return r.Palette.Format(r.Fields(ctx, in))
}
