package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/taskgraphgo/internal/app"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
)

func newGraphCommand(outW io.Writer, logs *logFlags, deps app.Collaborators) *cobra.Command {
	var (
		cfg    app.Config
		format string
	)
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build, morph and filter the task graph, then write its artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Format = taskgraph.Format(format)
			cfg.LogFormat = logs.format
			cfg.LogLevel = logs.level
			if err := cfg.Validate(); err != nil {
				return usageError("%v", err)
			}
			return app.New(outW, cfg, deps).Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.ParametersPath, "parameters", "p", "", "Path to the decision parameters YAML file.")
	f.StringSliceVar(&cfg.BuildConfigPaths, "buildconfig", []string{"buildconfig.hcl"}, "Build description HCL files or directories.")
	f.StringVar(&cfg.ArtifactsDir, "artifacts", "artifacts", "Directory the graph artifacts are written to.")
	f.StringVar(&format, "format", string(taskgraph.FormatJSON), "Artifact format. Options: 'json' or 'yaml'.")
	f.StringVar(&cfg.Mode, "mode", "", "Force the build mode ('pr', 'push' or 'release'). Derived from tasks_for when empty.")
	f.BoolVar(&cfg.Snapshot, "snapshot", false, "Publish timestamped SNAPSHOT artifacts.")
	f.BoolVar(&cfg.Staging, "staging", false, "Sign and publish through the staging services.")
	f.IntVar(&cfg.MaxDependencies, "max-dependencies", 0, "Fan-in limit of the completion aggregators. 0 keeps the default.")
	f.StringVar(&cfg.RepoRoot, "repo-root", ".", "Root of the working copy.")
	f.StringSliceVar(&cfg.EnvFiles, "env-file", nil, "Dotenv files to load. Defaults to ./.env when present.")
	f.BoolVar(&cfg.FilesChanged, "files-changed", false, "Also write the files changed by the revision.")
	_ = cmd.MarkFlagRequired("parameters")
	return cmd
}
