package app

import (
	"io"
	"log/slog"

	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
)

// newLogger builds the run's logger. Every record carries the repository
// root the decision is made for. Bad settings fall back to info-level text
// and say so, since the logger must exist before anything can be reported.
func newLogger(cfg Config, outW io.Writer) *slog.Logger {
	logger, err := ctxlog.New(outW, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger, _ = ctxlog.New(outW, "", "")
		logger.Warn("Invalid log settings, using defaults.", "error", err)
	}
	if cfg.RepoRoot != "" {
		logger = logger.With("repo_root", cfg.RepoRoot)
	}
	return logger
}
