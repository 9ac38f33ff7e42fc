package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/taskgraphgo/internal/config"
	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
	"github.com/specialistvlad/taskgraphgo/internal/index"
	"github.com/specialistvlad/taskgraphgo/internal/target"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
)

// Artifact names, without extension.
const (
	ArtifactFullTaskGraph = "full-task-graph"
	ArtifactTargetTasks   = "target-tasks"
	ArtifactTaskGraph     = "task-graph"
	ArtifactLabelToTaskID = "label-to-taskid"
	ArtifactFilesChanged  = "files-changed"
)

type artifact struct {
	name string
	v    any
}

func (a *App) writeArtifacts(ctx context.Context, res *Result) error {
	logger := ctxlog.FromContext(ctx)
	w := taskgraph.ArtifactWriter{Dir: a.cfg.ArtifactsDir, Format: a.cfg.Format}

	artifacts := []artifact{
		{ArtifactFullTaskGraph, res.Full},
		{ArtifactTargetTasks, res.TargetLabels},
		{ArtifactTaskGraph, res.Target},
		{ArtifactLabelToTaskID, res.Target.LabelToTaskID()},
	}
	if res.FilesChanged != nil {
		artifacts = append(artifacts, artifact{ArtifactFilesChanged, res.FilesChanged})
	}

	for _, art := range artifacts {
		path, err := w.Write(art.name, art.v)
		if err != nil {
			return fmt.Errorf("failed to write artifact: %w", err)
		}
		logger.Debug("Artifact written.", "path", path)
	}
	return nil
}

// recordNightly indexes this decision under the nightly path when the index
// backend is writable, so later nightlies off the same revision select
// nothing. Taskcluster indexes through task routes instead.
func (a *App) recordNightly(ctx context.Context, decision *config.Config, res *Result) error {
	params := res.Params
	if params.TargetTasksMethod != target.MethodNightly || !decision.Env.Automation || len(res.TargetLabels) == 0 {
		return nil
	}
	rec, ok := a.deps.Index.(index.Recorder)
	if !ok {
		return nil
	}
	logger := ctxlog.FromContext(ctx)
	if decision.Env.TaskID == "" {
		logger.Warn("TASK_ID is not set, nightly decision not indexed.")
		return nil
	}

	path := index.NightlyDecisionPath(params.TrustDomain, params.Project, params.HeadRef, params.HeadRev)
	if err := rec.InsertTask(ctx, path, decision.Env.TaskID); err != nil {
		return fmt.Errorf("failed to index nightly decision: %w", err)
	}
	logger.Info("Nightly decision indexed.", "path", path, "task_id", decision.Env.TaskID)
	return nil
}
