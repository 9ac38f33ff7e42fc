package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/specialistvlad/taskgraphgo/internal/buildconfig"
	"github.com/specialistvlad/taskgraphgo/internal/config"
	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
	"github.com/specialistvlad/taskgraphgo/internal/index"
	"github.com/specialistvlad/taskgraphgo/internal/retry"
	"github.com/specialistvlad/taskgraphgo/internal/slugid"
	"github.com/specialistvlad/taskgraphgo/internal/target"
	"github.com/specialistvlad/taskgraphgo/internal/vcs"
)

// GitHubAPIURL is where pull request file listings are fetched from.
const GitHubAPIURL = "https://api.github.com"

// Collaborators are the external services a decision run talks to. Nil
// fields are created from the environment on Run.
type Collaborators struct {
	Index        index.Lookup
	Repo         vcs.Repository
	PullRequests target.PullRequestLister
	IDGen        slugid.Generator
	Reporter     Reporter
	Now          func() time.Time
	Retry        retry.Policy
}

// App encapsulates the decision run's dependencies and configuration.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	cfg     Config
	deps    Collaborators
	closers []io.Closer
}

// New is the constructor for the decision application. It returns an App
// with its own isolated logger.
func New(outW io.Writer, cfg Config, deps Collaborators) *App {
	logger := newLogger(cfg, outW)
	logger.Debug("Logger configured successfully.")
	if deps.IDGen == nil {
		deps.IDGen = slugid.Nice
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Retry.Attempts == 0 {
		deps.Retry = retry.Default()
	}
	return &App{outW: outW, logger: logger, cfg: cfg, deps: deps}
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Run loads the configuration, decides the task graph and writes its
// artifacts.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer a.close()

	decision, err := config.Load(config.LoadOptions{EnvFiles: a.cfg.EnvFiles, ParametersPath: a.cfg.ParametersPath})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.logger.Debug("Configuration loaded.", "tasks_for", decision.Params.TasksFor, "method", decision.Params.TargetTasksMethod)

	file, err := buildconfig.NewLoader().Load(ctx, a.cfg.BuildConfigPaths...)
	if err != nil {
		return fmt.Errorf("failed to load build config: %w", err)
	}
	a.logger.Debug("Build config loaded.", "components", len(file.Components), "overrides", len(file.Overrides))

	if err := a.connect(decision.Env); err != nil {
		return err
	}

	res, err := a.Decide(ctx, decision, file)
	if err != nil {
		return err
	}
	if err := a.writeArtifacts(ctx, res); err != nil {
		return err
	}
	if err := a.recordNightly(ctx, decision, res); err != nil {
		return err
	}
	a.logger.Info("Decision finished.", "full", res.Full.Len(), "target", res.Target.Len(), "artifacts", a.cfg.ArtifactsDir)
	return nil
}

// connect creates the collaborators the caller did not supply.
func (a *App) connect(env config.Env) error {
	if a.deps.Index == nil {
		switch env.IndexBackend {
		case config.IndexBackendS3:
			s3, err := index.NewS3(index.S3Config{
				Endpoint:  env.IndexS3.Endpoint,
				Region:    env.IndexS3.Region,
				AccessKey: env.IndexS3.AccessKey,
				SecretKey: env.IndexS3.SecretKey,
				Bucket:    env.IndexS3.Bucket,
				UseSSL:    env.IndexS3.UseSSL,
			})
			if err != nil {
				return fmt.Errorf("failed to connect index: %w", err)
			}
			a.deps.Index = s3
		default:
			tc := index.NewTaskcluster(env.TaskclusterRootURL)
			a.deps.Index = tc
			a.closers = append(a.closers, tc)
		}
	}
	if a.deps.Repo == nil {
		a.deps.Repo = vcs.Git{Dir: a.cfg.RepoRoot}
	}
	if a.deps.PullRequests == nil && a.cfg.FilesChanged {
		gh := vcs.NewGitHub(GitHubAPIURL, env.GitHubToken)
		a.deps.PullRequests = gh
		a.closers = append(a.closers, gh)
	}
	return nil
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("Failed to close collaborator.", "error", err)
		}
	}
	a.closers = nil
}
