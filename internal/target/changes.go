package target

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/taskgraphgo/internal/config"
	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
	"github.com/specialistvlad/taskgraphgo/internal/retry"
	"github.com/specialistvlad/taskgraphgo/internal/vcs"
)

// PullRequestLister lists the files a pull request touches.
type PullRequestLister interface {
	PullRequestFiles(ctx context.Context, repoURL string, number int) ([]string, error)
}

// Changes computes the files changed by the revision under decision.
type Changes struct {
	Repo vcs.Repository
	// PullRequests is used for pull request triggers when set.
	PullRequests PullRequestLister
	Retry        retry.Policy
}

// FilesChanged returns the files touched by a pull request, or by the local
// diff between base and head revisions otherwise.
func (c Changes) FilesChanged(ctx context.Context, params config.Parameters) ([]string, error) {
	var files []string
	if params.IsPullRequest() && params.PullRequestNumber != nil && c.PullRequests != nil {
		err := retry.Do(ctx, c.Retry, "pull request files", func(ctx context.Context) error {
			var err error
			files, err = c.PullRequests.PullRequestFiles(ctx, params.BaseRepository, *params.PullRequestNumber)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("listing files of pull request %d: %w", *params.PullRequestNumber, err)
		}
		return files, nil
	}

	if c.Repo == nil {
		return nil, fmt.Errorf("no repository to diff %s..%s", params.BaseRev, params.HeadRev)
	}
	err := retry.Do(ctx, c.Retry, "git diff", func(ctx context.Context) error {
		base, err := c.diffBase(ctx, params.BaseRev, params.HeadRev)
		if err == nil {
			files, err = vcs.ChangedFiles(ctx, c.Repo, base, params.HeadRev)
		}
		var cmdErr *vcs.CommandError
		if errors.As(err, &cmdErr) && !cmdErr.Transient() {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// diffBase returns base, or its merge base with head when base was
// rewritten away (a force push).
func (c Changes) diffBase(ctx context.Context, base, head string) (string, error) {
	ok, err := vcs.IsAncestor(ctx, c.Repo, base, head)
	if err != nil {
		return "", err
	}
	if ok {
		return base, nil
	}
	mb, err := vcs.MergeBase(ctx, c.Repo, base, head)
	if err != nil {
		return "", err
	}
	ctxlog.FromContext(ctx).Warn("Base revision is not an ancestor of head, diffing from the merge base.", "base", base, "merge_base", mb)
	return mb, nil
}
