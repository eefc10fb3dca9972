package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/statusline/internal/netdiff"
	"github.com/fakeyudi/statusline/internal/statusline"
	"github.com/fakeyudi/statusline/internal/transcript"
)

var (
	diffJSON bool
	diffCwd  string
)

var diffCmd = &cobra.Command{
	Use:   "diff <transcript>",
	Short: "Show the per-file net diff behind the status line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("transcript not found: %s", path)
			}
			return err
		}

		originals := (&transcript.Reader{Logger: logger}).ReadFile(path)
		agg := newAggregator(diffCwd)
		report := agg.Aggregate(cmd.Context(), originals)

		if diffJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printReport(cmd, report, statusline.NewPalette(GetConfig().UseColor()))
		return nil
	},
}

// printReport writes one row per file followed by the totals.
func printReport(cmd *cobra.Command, r netdiff.Report, p statusline.Palette) {
	out := cmd.OutOrStdout()
	if len(r.Files) == 0 {
		fmt.Fprintln(out, "no files touched")
	}
	for _, f := range r.Files {
		fmt.Fprintf(out, "%s %s  %-9s  %s\n",
			p.Added.Styled(fmt.Sprintf("%6s", fmt.Sprintf("+%d", f.Added))),
			p.Removed.Styled(fmt.Sprintf("%6s", fmt.Sprintf("-%d", f.Removed))),
			f.Status,
			f.Path,
		)
	}
	fmt.Fprintf(out, "total %s %s\n",
		p.Added.Styled(fmt.Sprintf("+%d", r.Totals.Added)),
		p.Removed.Styled(fmt.Sprintf("-%d", r.Totals.Removed)),
	)
}

func init() {
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "emit the report as JSON")
	diffCmd.Flags().StringVar(&diffCwd, "cwd", "", "directory for resolving relative transcript paths")
	rootCmd.AddCommand(diffCmd)
}
