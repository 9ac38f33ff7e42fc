package target

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/taskgraphgo/internal/builder"
	"github.com/specialistvlad/taskgraphgo/internal/config"
	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
	"github.com/specialistvlad/taskgraphgo/internal/index"
	"github.com/specialistvlad/taskgraphgo/internal/retry"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
)

// legacyKind is always selected by the default filter.
const legacyKind = "old-decision"

// RunsOn reports whether a task runs for the trigger. A task without the
// run-on-tasks-for attribute runs for every trigger, as does one listing
// "all".
func RunsOn(t *taskgraph.Task, tasksFor string) bool {
	if t.Attr(builder.AttrRunOnTasksFor) == nil {
		return true
	}
	triggers, ok := t.StringsAttr(builder.AttrRunOnTasksFor)
	if !ok {
		return false
	}
	return slices.Contains(triggers, "all") || slices.Contains(triggers, tasksFor)
}

// Default selects the tasks that run for the current trigger plus every
// legacy always-run task.
type Default struct{}

// Select implements Filter.
func (Default) Select(_ context.Context, g *taskgraph.Graph, params config.Parameters) ([]string, error) {
	return selectTasks(g, func(t *taskgraph.Task) bool {
		return t.Kind == legacyKind || RunsOn(t, params.TasksFor)
	}), nil
}

// Nightly selects nightly builds, unless a nightly decision already ran for
// the head revision.
type Nightly struct {
	// Index is consulted only when Automation is set.
	Index      index.Lookup
	Automation bool
	Retry      retry.Policy
}

// IsNightly reports whether a task is a nightly build of any product.
func IsNightly(t *taskgraph.Task) bool {
	bt := t.StringAttr(builder.AttrBuildType)
	return bt == "nightly" || bt == "focus-nightly"
}

// Select implements Filter.
func (n Nightly) Select(ctx context.Context, g *taskgraph.Graph, params config.Parameters) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	if n.Automation {
		path := index.NightlyDecisionPath(params.TrustDomain, params.Project, params.HeadRef, params.HeadRev)
		logger.Info("Looking for existing index to avoid triggering multiple nightlies off the same revision.", "path", path)

		var exists bool
		err := retry.Do(ctx, n.Retry, "nightly index lookup", func(ctx context.Context) error {
			var err error
			exists, err = index.Exists(ctx, n.Index, path)
			return err
		})
		if err != nil {
			return nil, err
		}
		if exists {
			logger.Info("Nightly decision already ran for this revision, selecting nothing.", "path", path)
			return []string{}, nil
		}
	}
	return selectTasks(g, IsNightly), nil
}

// MatchesReleaseType reports whether a task belongs to the requested release
// channel. The build type matches when it equals the channel or ends with
// "-<channel>" (fenix-beta for beta); an explicit release-type attribute
// must equal it.
func MatchesReleaseType(t *taskgraph.Task, releaseType string) bool {
	if releaseType == "" {
		return false
	}
	if t.StringAttr("release-type") == releaseType {
		return true
	}
	bt := t.StringAttr(builder.AttrBuildType)
	return bt == releaseType || strings.HasSuffix(bt, "-"+releaseType)
}

// Phase selects the tasks of one shipping phase for the requested release
// type.
type Phase struct {
	Name string
}

// Select implements Filter.
func (p Phase) Select(_ context.Context, g *taskgraph.Graph, params config.Parameters) ([]string, error) {
	return selectTasks(g, func(t *taskgraph.Task) bool {
		return t.StringAttr(builder.AttrShippingPhase) == p.Name && MatchesReleaseType(t, params.ReleaseType)
	}), nil
}

// Ship selects the ship phase plus everything Promote selects, so promotion
// artifacts stay referenceable as dependencies.
type Ship struct {
	Promote Filter
}

// Select implements Filter.
func (s Ship) Select(ctx context.Context, g *taskgraph.Graph, params config.Parameters) ([]string, error) {
	promoted, err := s.Promote.Select(ctx, g, params)
	if err != nil {
		return nil, fmt.Errorf("selecting promote tasks: %w", err)
	}
	ship := Phase{Name: "ship"}
	candidates := make(map[string]bool, len(promoted))
	for _, l := range promoted {
		candidates[l] = true
	}
	return selectTasks(g, func(t *taskgraph.Task) bool {
		return candidates[t.Label] ||
			(t.StringAttr(builder.AttrShippingPhase) == ship.Name && MatchesReleaseType(t, params.ReleaseType))
	}), nil
}
