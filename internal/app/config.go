package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/taskgraphgo/internal/builder"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
)

// Config holds everything a decision run takes from the command line.
type Config struct {
	ParametersPath   string
	EnvFiles         []string
	BuildConfigPaths []string
	ArtifactsDir     string
	Format           taskgraph.Format

	// Mode forces the build mode. Derived from tasks_for when empty.
	Mode     string
	Snapshot bool
	Staging  bool
	// MaxDependencies bounds aggregator fan-in; zero keeps the default.
	MaxDependencies int
	// RepoRoot is the working copy the build description paths are
	// relative to.
	RepoRoot string
	// FilesChanged also writes the files changed by the revision.
	FilesChanged bool

	LogFormat string
	LogLevel  string
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.ParametersPath == "" {
		errs = append(errs, errors.New("parameters path is required"))
	}
	if len(c.BuildConfigPaths) == 0 {
		errs = append(errs, errors.New("at least one build config path is required"))
	}
	if c.ArtifactsDir == "" {
		errs = append(errs, errors.New("artifacts dir is required"))
	}
	if !slices.Contains([]taskgraph.Format{"", taskgraph.FormatJSON, taskgraph.FormatYAML}, c.Format) {
		errs = append(errs, fmt.Errorf("invalid format %q: must be 'json' or 'yaml'", c.Format))
	}
	if c.Mode != "" {
		if _, err := builder.ParseMode(c.Mode); err != nil {
			errs = append(errs, err)
		}
	}
	if c.MaxDependencies < 0 {
		errs = append(errs, fmt.Errorf("max dependencies must not be negative, got %d", c.MaxDependencies))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid app config: %w", errors.Join(errs...))
	}
	return nil
}
