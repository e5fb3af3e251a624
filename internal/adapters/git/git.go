// Package git implements the secondary.Git port on top of the git binary.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/slic/internal/adapters/shell"
	"github.com/example/slic/internal/core/reconcile"
	"github.com/example/slic/internal/ports/secondary"
)

// Client runs git through an injectable executor.
type Client struct {
	exec   secondary.Executor
	binary string
}

// New creates a git client. An empty binary defaults to "git".
func New(exec secondary.Executor, binary string) *Client {
	if binary == "" {
		binary = "git"
	}
	return &Client{exec: exec, binary: binary}
}

// AddWorktree runs `git worktree add <path> -b <branch>` in repo.
func (c *Client) AddWorktree(ctx context.Context, repo, path, branch string) error {
	_, err := c.run(ctx, repo, "worktree", "add", path, "-b", branch)
	return err
}

// RemoveWorktree runs `git worktree remove --force <path>` in repo.
func (c *Client) RemoveWorktree(ctx context.Context, repo, path string) error {
	_, err := c.run(ctx, repo, "worktree", "remove", "--force", path)
	return err
}

// ListWorktrees returns the parsed `git worktree list --porcelain` of repo.
func (c *Client) ListWorktrees(ctx context.Context, repo string) ([]reconcile.WorktreeEntry, error) {
	res, err := c.run(ctx, repo, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return ParseWorktreeList(res.Stdout), nil
}

// CurrentBranch returns the checked-out branch of repo, or "" when HEAD is detached.
func (c *Client) CurrentBranch(ctx context.Context, repo string) (string, error) {
	res, err := c.run(ctx, repo, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	branch := strings.TrimSpace(res.Stdout)
	if branch == "HEAD" {
		return "", nil
	}
	return branch, nil
}

// Checkout switches repo to branch.
func (c *Client) Checkout(ctx context.Context, repo, branch string) error {
	_, err := c.run(ctx, repo, "checkout", branch)
	return err
}

// Merge merges branch into the current branch of repo.
func (c *Client) Merge(ctx context.Context, repo, branch string) error {
	_, err := c.run(ctx, repo, "merge", "--no-edit", branch)
	return err
}

// DeleteBranch deletes a fully merged local branch.
func (c *Client) DeleteBranch(ctx context.Context, repo, branch string) error {
	_, err := c.run(ctx, repo, "branch", "-d", branch)
	return err
}

// IsAncestor reports whether ancestor is reachable from descendant, i.e. whether
// ancestor has been merged into it.
func (c *Client) IsAncestor(ctx context.Context, repo, ancestor, descendant string) (bool, error) {
	res, err := c.run(ctx, repo, "merge-base", "--is-ancestor", ancestor, descendant)
	if err != nil {
		// Exit status 1 is git's "no"; anything else is a real failure.
		if res.ExitCode == 1 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsDirty reports uncommitted or untracked changes in the working tree at path.
func (c *Client) IsDirty(ctx context.Context, path string) (bool, error) {
	res, err := c.run(ctx, path, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

func (c *Client) run(ctx context.Context, dir string, args ...string) (secondary.Result, error) {
	cmd := shell.Command(c.binary, args...).In(dir).Env("GIT_TERMINAL_PROMPT=0").Build()
	res, err := shell.Check(ctx, c.exec, cmd)
	if err != nil {
		return res, fmt.Errorf("git %s: %w", args[0], err)
	}
	return res, nil
}

// ParseWorktreeList parses `git worktree list --porcelain` output. Records are
// separated by blank lines.
func ParseWorktreeList(out string) []reconcile.WorktreeEntry {
	var (
		entries []reconcile.WorktreeEntry
		cur     reconcile.WorktreeEntry
	)

	flush := func() {
		if cur.Path != "" {
			entries = append(entries, cur)
		}
		cur = reconcile.WorktreeEntry{}
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			cur.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "branch refs/heads/"):
			cur.Branch = strings.TrimPrefix(line, "branch refs/heads/")
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(line, "branch ")
		case line == "detached":
			cur.Detached = true
		case line == "bare":
			cur.Bare = true
		case line == "prunable" || strings.HasPrefix(line, "prunable "):
			cur.Prunable = true
		}
	}
	flush()

	return entries
}

var _ secondary.Git = (*Client)(nil)
