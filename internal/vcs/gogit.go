package vcs

import (
	"context"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// GoGit reads HEAD with go-git, without spawning a process.
type GoGit struct {
	Fallback string // defaults to DefaultFallback
}

// Branch implements BranchLookup. HEAD is read as a symbolic reference so a
// freshly initialised repository without commits still reports its branch,
// matching `git branch --show-current`.
func (g *GoGit) Branch(ctx context.Context, dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fallback(g.Fallback)
	}
	head, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return fallback(g.Fallback)
	}
	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return fallback(g.Fallback)
	}
	return head.Target().Short()
}
