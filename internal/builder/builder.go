package builder

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
)

// Build crafts the full task graph for the given mode.
func Build(ctx context.Context, cfg Config, mode Mode) (*taskgraph.Graph, error) {
	logger := ctxlog.FromContext(ctx).With("mode", mode)
	logger.Debug("Build: Starting graph construction.", "components", len(cfg.Components))

	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if err := checkComponents(cfg); err != nil {
		return nil, err
	}

	c := &crafter{cfg: cfg}
	switch mode {
	case ModePR, ModePush:
		if err := c.moduleTasks(ctx); err != nil {
			return nil, err
		}
		c.staticAnalysisTasks()
		if mode == ModePush {
			c.pushTasks()
		}

	case ModeRelease:
		if cfg.Version == "" {
			return nil, fmt.Errorf("%w: release builds require a version", ErrConfiguration)
		}
		if cfg.Snapshot && c.cfg.Timestamp == "" {
			c.cfg.Timestamp = SnapshotTimestamp(cfg.Now())
			logger.Debug("Build: Generated snapshot timestamp.", "timestamp", c.cfg.Timestamp)
		}
		if err := c.releaseTasks(); err != nil {
			return nil, err
		}
		// Static analysis fails spuriously on release branches and never
		// blocks a release, so only snapshots run it.
		if cfg.Snapshot {
			c.image = c.add(c.dockerImageTask())
			c.staticAnalysisTasks()
		}
	}
	logger.Debug("Build: Task crafting complete.", "task_count", len(c.tasks))

	resolveDefinitionDependencies(c.tasks)

	g, err := taskgraph.New(c.tasks...)
	if err != nil {
		return nil, fmt.Errorf("error validating built task graph: %w", err)
	}
	logger.Info("Build: Graph construction successful.", "tasks", g.Len())
	return g, nil
}

func checkComponents(cfg Config) error {
	seen := make(map[string]bool, len(cfg.Components))
	for i, comp := range cfg.Components {
		switch {
		case comp.Name == "":
			return fmt.Errorf("%w: component #%d has no name", ErrConfiguration, i)
		case comp.Path == "":
			return fmt.Errorf("%w: component %q has no path", ErrConfiguration, comp.Name)
		case seen[comp.Name]:
			return fmt.Errorf("%w: component %q declared more than once", ErrConfiguration, comp.Name)
		}
		seen[comp.Name] = true
	}
	for module := range cfg.Overrides {
		if !seen[module] {
			return fmt.Errorf("%w: module_override %q refers to an unknown component", ErrConfiguration, module)
		}
	}
	return nil
}

// moduleTasks crafts the base image and the per-component build tasks.
// Every policy is resolved before the first build task is crafted.
func (c *crafter) moduleTasks(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	policies := make([]ModulePolicy, len(c.cfg.Components))
	for i, comp := range c.cfg.Components {
		p, err := ResolvePolicy(comp, c.cfg.Overrides)
		if err != nil {
			return err
		}
		policies[i] = p
	}
	logger.Debug("Build: Module policies resolved.", "modules", len(policies))

	c.image = c.add(c.dockerImageTask())
	for i, comp := range c.cfg.Components {
		for _, d := range policies[i].Definitions(":" + comp.Name) {
			c.add(c.moduleBuildTask(comp, d))
		}
	}
	return nil
}

// resolveDefinitionDependencies fills each definition's dependency list with
// the sorted task ids of its dependencies. Unknown labels are left for
// taskgraph.New to report.
func resolveDefinitionDependencies(tasks []*taskgraph.Task) {
	ids := make(map[string]string, len(tasks))
	for _, t := range tasks {
		ids[t.Label] = t.TaskID
	}
	for _, t := range tasks {
		deps := make([]string, 0, len(t.Dependencies))
		for _, label := range t.DependencyLabels() {
			if id, ok := ids[label]; ok {
				deps = append(deps, id)
			}
		}
		sort.Strings(deps)
		t.Definition.Dependencies = deps
	}
}
