// Package gitexec wraps the git CLI for the handful of read-only operations
// packaging needs: resolving the repository root, HEAD metadata, the dirty
// state of the working tree, and exporting tracked files with git archive.
//
// Using git archive (instead of walking the working tree) is what keeps
// untracked test and development artifacts out of the plugin package, and it
// honors .gitattributes export-ignore entries for free.
package gitexec

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// commandTimeout bounds every git invocation that inherits an unbounded
// context, so a stuck credential helper or filesystem doesn't hang a release.
const commandTimeout = 30 * time.Second

// Git runs git commands inside a repository working directory.
type Git struct {
	dir string
}

// New returns a Git bound to dir. It fails when the git binary is not on
// PATH.
func New(dir string) (*Git, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, fmt.Errorf("git executable not found on PATH: %w", err)
	}
	return &Git{dir: dir}, nil
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, commandTimeout)
		defer cancel()
	}

	logrus.Debugf("gitexec: git %s", strings.Join(args, " "))
	cmd := exec.CommandContext(cmdCtx, "git", args...)
	cmd.Dir = g.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		if cmdCtx.Err() != nil {
			return "", fmt.Errorf("git %s: %w", args[0], cmdCtx.Err())
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// TopLevel returns the absolute path of the repository root.
func (g *Git) TopLevel(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "--show-toplevel")
}

// HeadSHA returns the full HEAD commit hash.
func (g *Git) HeadSHA(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "HEAD")
}

// CommitCount returns the number of commits reachable from HEAD.
func (g *Git) CommitCount(ctx context.Context) (int, error) {
	out, err := g.run(ctx, "rev-list", "--count", "HEAD")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("git rev-list: unexpected count %q", out)
	}
	return n, nil
}

// IsDirty reports whether the working tree has uncommitted changes or
// untracked files.
func (g *Git) IsDirty(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// Archive exports the tracked files under each of paths at HEAD into a tar
// file at outTar. Paths are relative to the repository root.
func (g *Git) Archive(ctx context.Context, outTar string, paths ...string) error {
	args := append([]string{"archive", "HEAD", "-o", outTar, "--"}, paths...)
	_, err := g.run(ctx, args...)
	return err
}
