// Package vcs looks up the current version-control branch of a directory.
package vcs

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/fakeyudi/statusline/internal/logging"
)

// DefaultFallback is reported when no branch can be determined.
const DefaultFallback = "no-git"

// BranchLookup reports the current branch for a directory. Implementations
// never fail: they return their fallback instead.
type BranchLookup interface {
	Branch(ctx context.Context, dir string) string
}

// GitRunner executes a git command and returns its output.
// This abstraction allows mocking in tests.
type GitRunner func(ctx context.Context, args ...string) (string, error)

// GitCLI asks the git binary for the current branch.
type GitCLI struct {
	Bin      string    // defaults to "git"
	Fallback string    // defaults to DefaultFallback
	Runner   GitRunner // if nil, runs Bin as a real subprocess
	Logger   logging.Logger
}

// Branch implements BranchLookup by running `git -C dir branch --show-current`.
// A detached HEAD prints nothing and therefore also yields the fallback.
func (g *GitCLI) Branch(ctx context.Context, dir string) string {
	out, err := g.runner()(ctx, "-C", dir, "branch", "--show-current")
	if err != nil {
		if g.Logger != nil {
			if IsNotRepository(err) {
				g.Logger.Debug("not a git repository", "dir", dir)
			} else {
				g.Logger.Warn("git branch lookup failed", "dir", dir, "err", err)
			}
		}
		return fallback(g.Fallback)
	}
	branch := strings.TrimSpace(out)
	if branch == "" {
		return fallback(g.Fallback)
	}
	return branch
}

func (g *GitCLI) runner() GitRunner {
	if g.Runner != nil {
		return g.Runner
	}
	bin := g.Bin
	if strings.TrimSpace(bin) == "" {
		bin = "git"
	}
	return func(ctx context.Context, args ...string) (string, error) {
		cmd := exec.CommandContext(ctx, bin, args...)
		out, err := cmd.Output()
		return string(out), err
	}
}

// IsNotRepository reports whether err is git's exit status 128, which git
// uses for "not a git repository" among other fatal errors.
func IsNotRepository(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == 128
	}
	return false
}

func fallback(s string) string {
	if s == "" {
		return DefaultFallback
	}
	return s
}
