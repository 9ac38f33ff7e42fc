package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/taskgraphgo/internal/app"
	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// logFlags are shared by every subcommand.
type logFlags struct {
	format string
	level  string
}

func (l *logFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&l.format, "log-format", ctxlog.FormatJSON, "Log output format. Options: 'text' or 'json'.")
	cmd.PersistentFlags().StringVar(&l.level, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
}

func (l *logFlags) validate() error {
	format, err := ctxlog.ParseFormat(l.format)
	if err != nil || l.format == "" {
		return usageError("invalid log-format: must be 'text' or 'json'")
	}
	l.format = format
	if _, err := ctxlog.ParseLevel(l.level); err != nil || l.level == "" {
		return usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	l.level = strings.ToLower(l.level)
	return nil
}

// NewRootCommand builds the decision command tree. deps are handed to every
// App the commands create; zero values are filled from the environment.
func NewRootCommand(outW io.Writer, deps app.Collaborators) *cobra.Command {
	var logs logFlags
	root := &cobra.Command{
		Use:   "decision",
		Short: "Decide which tasks a CI run schedules",
		Long: `decision builds the full task graph of a multi-module Android project,
adds the completion aggregators, selects the target tasks for the trigger and
writes the graph artifacts a CI scheduler consumes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logs.validate()
		},
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})
	logs.register(root)

	root.AddCommand(newGraphCommand(outW, &logs, deps))
	root.AddCommand(newTestRailCommand(outW, &logs, deps))
	return root
}

// Execute runs the command tree with args and maps failures to exit errors:
// usage problems exit with 2, everything else with 1.
func Execute(ctx context.Context, outW io.Writer, args []string, deps app.Collaborators) error {
	root := NewRootCommand(outW, deps)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	if isUsageError(err) {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	return &ExitError{Code: 1, Message: err.Error()}
}

// isUsageError recognises the argument errors cobra reports without going
// through the flag error func.
func isUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "required flag(s)")
}
