package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/statusline/internal/config"
	"github.com/fakeyudi/statusline/internal/logging"
	"github.com/fakeyudi/statusline/internal/netdiff"
	"github.com/fakeyudi/statusline/internal/session"
	"github.com/fakeyudi/statusline/internal/statusline"
	"github.com/fakeyudi/statusline/internal/transcript"
	"github.com/fakeyudi/statusline/internal/vcs"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// logger is opened from cfg in PersistentPreRunE; closeLog releases it.
var (
	logger   logging.Logger = logging.Nop()
	closeLog                = func() error { return nil }
)

var (
	configPath string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "statusline",
	Short: "Print a one-line status for an assistant session",
	Long: `Reads the session JSON the host writes to stdin and prints one line:

  <branch> | +<added> -<removed> | <model> | <context gauge>

Added and removed lines are the net change, since the session started, of
every file the transcript shows was touched.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			// The status line must render even with a broken config file;
			// the other commands report the problem.
			if cmd.HasParent() {
				return err
			}
			c = config.Defaults()
		}
		if noColor {
			off := false
			c.Color = &off
		}
		cfg = c

		l, closer, err := logging.OpenFile(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			if cmd.HasParent() {
				return err
			}
			l, closer = logging.Nop(), func() error { return nil }
		}
		logger, closeLog = l, closer
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := session.Decode(cmd.InOrStdin())
		if err != nil {
			logger.Error("reading session input", "err", err)
			return err
		}
		line := newRenderer().Render(cmd.Context(), in)
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (replaces the global config file)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")
}

// Execute runs the root command. Exits with code 1 on error.
// A malformed session input exits silently; other commands print the error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	c, err := rootCmd.ExecuteContextC(ctx)
	stop()
	_ = closeLog()
	if err != nil {
		if c != rootCmd {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// loadConfig merges the global (or --config) file, the project file and
// the environment, then validates the result.
func loadConfig() (config.Config, error) {
	var (
		global *config.Config
		err    error
	)
	if configPath != "" {
		global, err = config.LoadFile(configPath)
	} else {
		global, err = config.LoadGlobal()
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("loading global config: %w", err)
	}
	project, err := config.LoadProject()
	if err != nil {
		return config.Config{}, fmt.Errorf("loading project config: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return config.Config{}, err
	}
	merged := config.Merge(global, project, env)
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

// newBranchLookup selects the branch backend named in cfg.
func newBranchLookup() vcs.BranchLookup {
	if cfg.BranchBackend == config.BackendGoGit {
		return &vcs.GoGit{Fallback: cfg.BranchFallback}
	}
	return &vcs.GitCLI{Bin: cfg.GitBin, Fallback: cfg.BranchFallback, Logger: logger}
}

// newAggregator builds a net diff aggregator for the diff engine in cfg.
func newAggregator(baseDir string) netdiff.Aggregator {
	var cmp netdiff.Comparator = &netdiff.ExecComparator{Bin: cfg.DiffBin}
	if cfg.DiffEngine == config.EngineBuiltin {
		cmp = netdiff.BuiltinComparator{}
	}
	return netdiff.Aggregator{
		Comparator:  cmp,
		ScratchBase: cfg.ScratchDir,
		BaseDir:     baseDir,
		Logger:      logger,
	}
}

func newRenderer() *statusline.Renderer {
	return &statusline.Renderer{
		Branches:    newBranchLookup(),
		Transcripts: &transcript.Reader{Logger: logger},
		Aggregator:  newAggregator(""),
		Palette:     statusline.NewPalette(cfg.UseColor()),
	}
}
