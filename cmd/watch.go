package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/statusline/internal/netdiff"
	"github.com/fakeyudi/statusline/internal/transcript"
	"github.com/fakeyudi/statusline/internal/tui"
)

var (
	watchCwd   string
	watchPlain bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <transcript>",
	Short: "Follow a transcript and show its net diff as it changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ctx := cmd.Context()

		reader := &transcript.Reader{Logger: logger}
		agg := newAggregator(watchCwd)
		refresh := func() netdiff.Report {
			return agg.Aggregate(ctx, reader.ReadFile(path))
		}

		if !watchPlain && term.IsTerminal(os.Stdout.Fd()) {
			return tui.Run(ctx, path, watchCwd, refresh)
		}

		out := cmd.OutOrStdout()
		emit := func() {
			r := refresh()
			fmt.Fprintf(out, "+%d -%d\n", r.Totals.Added, r.Totals.Removed)
		}
		emit()
		return transcript.Watch(ctx, path, emit)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchCwd, "cwd", "", "directory for resolving relative transcript paths")
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "print one line per change instead of the interactive view")
	rootCmd.AddCommand(watchCmd)
}
