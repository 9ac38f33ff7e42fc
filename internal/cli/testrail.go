package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/taskgraphgo/internal/app"
)

func newTestRailCommand(outW io.Writer, logs *logFlags, deps app.Collaborators) *cobra.Command {
	var (
		signOff  app.SignOff
		envFiles []string
	)
	cmd := &cobra.Command{
		Use:   "testrail",
		Short: "Report a release sign-off milestone and passed smoke run to TestRail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := signOff.Validate(); err != nil {
				return usageError("%v", err)
			}
			cfg := app.Config{EnvFiles: envFiles, LogFormat: logs.format, LogLevel: logs.level}
			return app.New(outW, cfg, deps).ReportSignOff(cmd.Context(), signOff)
		},
	}

	f := cmd.Flags()
	f.StringVar(&signOff.Product, "product", "Firefox", "Product name used in the milestone.")
	f.StringVar(&signOff.Version, "version", "", "Released version, for example 124.0b3.")
	f.IntVar(&signOff.ProjectID, "project-id", 0, "TestRail project id.")
	f.IntVar(&signOff.SuiteID, "suite-id", 0, "TestRail suite id of the smoke tests.")
	f.StringVar(&signOff.RunName, "run-name", "", "Test run name. Defaults to the milestone name.")
	f.StringSliceVar(&envFiles, "env-file", nil, "Dotenv files holding the TESTRAIL_* credentials.")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}
