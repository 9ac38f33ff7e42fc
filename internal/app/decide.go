package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/taskgraphgo/internal/buildconfig"
	"github.com/specialistvlad/taskgraphgo/internal/builder"
	"github.com/specialistvlad/taskgraphgo/internal/config"
	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
	"github.com/specialistvlad/taskgraphgo/internal/morph"
	"github.com/specialistvlad/taskgraphgo/internal/target"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
)

// Result is the outcome of one decision.
type Result struct {
	Mode builder.Mode
	// Params are the decision parameters with project defaults applied.
	Params config.Parameters
	// Full holds every task the configuration describes, aggregators
	// included.
	Full         *taskgraph.Graph
	TargetLabels []string
	// Target is the closure of TargetLabels over Full.
	Target       *taskgraph.Graph
	FilesChanged []string
}

// ModeFor derives the build mode of a trigger. Snapshot runs are always
// release builds.
func ModeFor(tasksFor string, snapshot bool) builder.Mode {
	switch {
	case snapshot || tasksFor == config.TasksForGitHubRelease:
		return builder.ModeRelease
	case tasksFor == config.TasksForPullRequest || tasksFor == config.TasksForPullRequestUntrusted:
		return builder.ModePR
	default:
		return builder.ModePush
	}
}

// Decide builds the full graph, adds the aggregators and selects the target
// graph. Nothing is written.
func (a *App) Decide(ctx context.Context, decision *config.Config, file *buildconfig.File) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	params := decision.Params.WithTrustDomain(file.Project.TrustDomain)

	mode := ModeFor(params.TasksFor, a.cfg.Snapshot)
	if a.cfg.Mode != "" {
		m, err := builder.ParseMode(a.cfg.Mode)
		if err != nil {
			return nil, err
		}
		mode = m
	}
	logger.Debug("Decide: build mode chosen.", "mode", mode)

	version := params.Version
	if version == "" {
		version = file.Project.Version
	}
	full, err := builder.Build(ctx, builder.Config{
		Components: file.Components,
		Overrides:  file.Overrides,
		Version:    version,
		Snapshot:   a.cfg.Snapshot,
		Staging:    a.cfg.Staging,
		Now:        a.deps.Now,
		Level:      params.Level,
		Owner:      params.Owner,
		Source:     params.HeadRepository,
		RepoRoot:   a.cfg.RepoRoot,
		IDGen:      a.deps.IDGen,
	}, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to build task graph: %w", err)
	}
	logger.Debug("Decide: full task graph built.", "tasks", full.Len())

	full, err = morph.AddCompleteTasks(ctx, full, params, morph.Options{
		MaxDependencies: a.cfg.MaxDependencies,
		IDGen:           a.deps.IDGen,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to morph task graph: %w", err)
	}

	filters := target.Builtin(target.Deps{
		Index:      a.deps.Index,
		Repo:       a.deps.Repo,
		Automation: decision.Env.Automation,
		Retry:      a.deps.Retry,
	})
	filter, err := filters.Get(params.TargetTasksMethod)
	if err != nil {
		return nil, err
	}
	labels, err := filter.Select(ctx, full, params)
	if err != nil {
		return nil, fmt.Errorf("failed to select target tasks: %w", err)
	}
	logger.Info("Target tasks selected.", "method", params.TargetTasksMethod, "count", len(labels))

	tg, err := full.Closure(labels...)
	if err != nil {
		return nil, err
	}

	res := &Result{Mode: mode, Params: params, Full: full, TargetLabels: labels, Target: tg}
	if a.cfg.FilesChanged {
		changes := target.Changes{Repo: a.deps.Repo, PullRequests: a.deps.PullRequests, Retry: a.deps.Retry}
		files, err := changes.FilesChanged(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to list changed files: %w", err)
		}
		res.FilesChanged = files
	}
	return res, nil
}
