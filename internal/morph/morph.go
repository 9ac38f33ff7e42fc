// Package morph rewrites a finished task graph by adding synthetic tasks.
//
// The only morph today adds "complete" aggregator tasks that report whether
// every code-review task of a push or pull request succeeded. The fan-in of
// any aggregator is bounded by Options.MaxDependencies: when there are more
// code-review tasks than that, they are split into sorted chunks, each chunk
// gets an intermediate aggregator and a final aggregator depends on those.
package morph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/taskgraphgo/internal/builder"
	"github.com/specialistvlad/taskgraphgo/internal/chunk"
	"github.com/specialistvlad/taskgraphgo/internal/config"
	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
	"github.com/specialistvlad/taskgraphgo/internal/slugid"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
)

// ErrMissingUpstream means a task the morph relies on is not in the graph.
var ErrMissingUpstream = errors.New("missing required upstream task")

// DefaultMaxDependencies is the execution backend's fan-in limit.
const DefaultMaxDependencies = 9999

const (
	checkoutDir = "/builds/worker/checkouts/vcs"
	sourcePath  = "internal/morph/morph.go"
)

// Options tune AddCompleteTasks.
type Options struct {
	// MaxDependencies bounds each aggregator's dependency count. Zero means
	// DefaultMaxDependencies.
	MaxDependencies int
	// IDGen creates aggregator task ids. Defaults to slugid.Nice.
	IDGen slugid.Generator
	// SourceURL is recorded in the aggregator metadata. Derived from the
	// head repository and revision when empty.
	SourceURL string
}

func (o Options) withDefaults(params config.Parameters) Options {
	if o.MaxDependencies <= 0 {
		o.MaxDependencies = DefaultMaxDependencies
	}
	if o.IDGen == nil {
		o.IDGen = slugid.Nice
	}
	if o.SourceURL == "" {
		repo := params.HeadRepository
		if repo == "" {
			repo = "https://github.com/mozilla-mobile/firefox-android"
		}
		rev := params.HeadRev
		if rev == "" {
			rev = "main"
		}
		o.SourceURL = fmt.Sprintf("%s/raw/%s/%s", strings.TrimSuffix(repo, "/"), rev, sourcePath)
	}
	return o
}

// CompleteLabel returns the label of the final aggregator for a trigger, and
// false when the trigger gets no aggregator.
func CompleteLabel(tasksFor string) (string, bool) {
	switch tasksFor {
	case config.TasksForPush:
		return "complete-push", true
	case config.TasksForPullRequest, config.TasksForPullRequestUntrusted:
		return "complete-pr", true
	default:
		return "", false
	}
}

// AddCompleteTasks returns g amended with the aggregator tasks. When the
// trigger does not call for aggregation or no task is tagged code-review, g
// itself is returned.
func AddCompleteTasks(ctx context.Context, g *taskgraph.Graph, params config.Parameters, opts Options) (*taskgraph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Morphing: adding complete task.", "tasks_for", params.TasksFor)

	label, ok := CompleteLabel(params.TasksFor)
	if !ok {
		return g, nil
	}

	codeReview := make(map[string]string)
	for _, t := range g.Tasks() {
		if t.BoolAttr(builder.AttrCodeReview) {
			codeReview[t.Label] = t.TaskID
		}
	}
	if len(codeReview) == 0 {
		logger.Debug("Morphing: no code-review tasks, nothing to add.")
		return g, nil
	}

	imageID, ok := g.TaskID(builder.DockerImageBaseLabel)
	if !ok {
		return nil, fmt.Errorf("%w: %q is required by %q", ErrMissingUpstream, builder.DockerImageBaseLabel, label)
	}

	opts = opts.withDefaults(params)
	a := aggregator{params: params, opts: opts, imageID: imageID}

	var added []*taskgraph.Task
	if len(codeReview) <= opts.MaxDependencies {
		added = append(added, a.task(label, codeReview))
	} else {
		if n := chunk.Count(len(codeReview), opts.MaxDependencies); n > opts.MaxDependencies {
			return nil, fmt.Errorf("%d code-review tasks need %d chunk aggregators, more than the fan-in limit of %d", len(codeReview), n, opts.MaxDependencies)
		}
		chunks, err := chunk.Chunk(codeReview, opts.MaxDependencies)
		if err != nil {
			return nil, err
		}
		final := make(map[string]string, len(chunks))
		for i, deps := range chunks {
			t := a.task(fmt.Sprintf("%s-%d", label, i), deps)
			added = append(added, t)
			final[t.Label] = t.TaskID
		}
		added = append(added, a.task(label, final))
	}

	amended, err := g.Amend(added...)
	if err != nil {
		return nil, fmt.Errorf("morphing task graph: %w", err)
	}
	logger.Info("Morphing: added complete task(s).", "count", len(added), "code_review_tasks", len(codeReview))
	return amended, nil
}

type aggregator struct {
	params  config.Parameters
	opts    Options
	imageID string
}

// task crafts one aggregator over deps (label -> task id). Dependencies are
// keyed by label, the definition lists the sorted task ids.
func (a aggregator) task(label string, deps map[string]string) *taskgraph.Task {
	ids := make([]string, 0, len(deps))
	dependencies := make(map[string]string, len(deps))
	for depLabel, id := range deps {
		ids = append(ids, id)
		dependencies[depLabel] = depLabel
	}
	sort.Strings(ids)

	p := a.params
	return &taskgraph.Task{
		Label:        label,
		Kind:         "complete",
		Attributes:   map[string]any{builder.AttrRunOnTasksFor: []string{p.TasksFor}},
		Dependencies: dependencies,
		TaskID:       a.opts.IDGen(),
		Definition: taskgraph.Definition{
			ProvisionerID: "mobile-" + p.Level,
			WorkerType:    "b-linux-gcp",
			Dependencies:  ids,
			Requires:      taskgraph.AllResolved,
			Created:       taskgraph.Relative("0 seconds"),
			Deadline:      taskgraph.Relative("1 day"),
			Expires:       taskgraph.Relative("1 day"),
			Metadata: taskgraph.Metadata{
				Name:        label,
				Description: "Tasks that indicate whether a push/PR is sane",
				Owner:       p.Owner,
				Source:      a.opts.SourceURL,
			},
			Scopes: []string{},
			Routes: []string{"checks"},
			Payload: taskgraph.Payload{
				Command: []string{
					"/usr/local/bin/run-task",
					"--mobile-checkout=" + checkoutDir + "/",
					"--",
					"bash",
					"-cx",
					checkoutDir + "/taskcluster/scripts/are_dependencies_completed.py " + strings.Join(ids, " "),
				},
				Env: map[string]string{
					"VCS_PATH":               checkoutDir,
					"REPOSITORIES":           `{"mobile": "firefox-android"}`,
					"MOZ_SCM_LEVEL":          p.Level,
					"MOZ_AUTOMATION":         "1",
					"MOBILE_HEAD_REF":        p.HeadRef,
					"MOBILE_HEAD_REV":        p.HeadRev,
					"MOBILE_BASE_REPOSITORY": p.BaseRepository,
					"MOBILE_HEAD_REPOSITORY": p.HeadRepository,
					"MOBILE_REPOSITORY_TYPE": "git",
				},
				Features: map[string]bool{"taskclusterProxy": true},
				Image: &taskgraph.Image{
					Type:   "task-image",
					Path:   "public/image.tar.zst",
					TaskID: a.imageID,
				},
				MaxRunTime: 600,
				OnExitStatus: &taskgraph.ExitStatus{
					Retry:       []int{72},
					PurgeCaches: []int{72},
				},
			},
			Extra: map[string]any{},
		},
	}
}
