// Package vcs reads revisions and diffs from version control.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
)

// Repository runs version-control commands and returns their output.
type Repository interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// CommandError is a version-control command that exited unsuccessfully.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("git %s: exit status %d: %s", strings.Join(e.Args, " "), e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Transient reports whether retrying the command may help. Only lock
// contention with a concurrent git process qualifies.
func (e *CommandError) Transient() bool {
	return strings.Contains(e.Stderr, ".lock")
}

// Git runs the git binary in a working copy.
type Git struct {
	Dir string
	// Binary defaults to "git".
	Binary string
}

// Run implements Repository.
func (g Git) Run(ctx context.Context, args ...string) (string, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	ctxlog.FromContext(ctx).Debug("Running git.", "args", args, "dir", g.Dir)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = g.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &CommandError{Args: args, ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", fmt.Errorf("running git %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}

// Show returns the content of path at revision.
func Show(ctx context.Context, r Repository, revision, path string) (string, error) {
	out, err := r.Run(ctx, "show", revision+":"+path)
	if err != nil {
		return "", fmt.Errorf("reading %s at %s: %w", path, revision, err)
	}
	return out, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func IsAncestor(ctx context.Context, r Repository, ancestor, descendant string) (bool, error) {
	_, err := r.Run(ctx, "merge-base", "--is-ancestor", ancestor, descendant)
	if err == nil {
		return true, nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
		return false, nil
	}
	return false, err
}

// MergeBase returns the best common ancestor of two revisions.
func MergeBase(ctx context.Context, r Repository, a, b string) (string, error) {
	out, err := r.Run(ctx, "merge-base", a, b)
	if err != nil {
		return "", fmt.Errorf("merge base of %s and %s: %w", a, b, err)
	}
	return strings.TrimSpace(out), nil
}

// ChangedFiles lists the paths changed between two revisions.
func ChangedFiles(ctx context.Context, r Repository, base, head string) ([]string, error) {
	out, err := r.Run(ctx, "diff", "--no-color", "--name-only", base+".."+head)
	if err != nil {
		return nil, fmt.Errorf("diffing %s..%s: %w", base, head, err)
	}
	return splitLines(out), nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
