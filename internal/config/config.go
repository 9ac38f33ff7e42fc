package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Trigger types understood by the morpher and the default filter.
const (
	TasksForPush                 = "github-push"
	TasksForPullRequest          = "github-pull-request"
	TasksForPullRequestUntrusted = "github-pull-request-untrusted"
	TasksForCron                 = "cron"
	TasksForAction               = "action"
	TasksForGitHubRelease        = "github-release"
)

const (
	DefaultTargetTasksMethod  = "default"
	DefaultLevel              = "1"
	DefaultTrustDomain        = "mobile"
	IndexBackendTaskcluster   = "taskcluster"
	IndexBackendS3            = "s3"
	defaultTaskclusterRootURL = "https://firefox-ci-tc.services.mozilla.com"
	defaultIndexS3Bucket      = "taskgraph-index"
	defaultIndexS3Region      = "us-east-1"
)

var shippingPhases = []string{"promote", "ship"}

// Parameters describe the event a decision run reacts to.
type Parameters struct {
	TasksFor          string `yaml:"tasks_for"`
	Level             string `yaml:"level"`
	Project           string `yaml:"project"`
	Owner             string `yaml:"owner"`
	TrustDomain       string `yaml:"trust_domain"`
	BaseRepository    string `yaml:"base_repository"`
	HeadRepository    string `yaml:"head_repository"`
	BaseRev           string `yaml:"base_rev"`
	HeadRev           string `yaml:"head_rev"`
	HeadRef           string `yaml:"head_ref"`
	PullRequestNumber *int   `yaml:"pull_request_number"`
	ReleaseType       string `yaml:"release_type"`
	ShippingPhase     string `yaml:"shipping_phase"`
	TargetTasksMethod string `yaml:"target_tasks_method"`
	Version           string `yaml:"version"`
}

// S3 configures the S3-compatible index backend.
type S3 struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// TestRail holds credentials for the test-case-management client.
type TestRail struct {
	Host     string
	Username string
	Password string
}

// Env is the part of the configuration read from the process environment.
type Env struct {
	// Automation is true when running inside CI (MOZ_AUTOMATION=1).
	Automation         bool
	TaskclusterRootURL string
	HeadRepository     string
	HeadRev            string
	IndexBackend       string
	IndexS3            S3
	TestRail           TestRail
	GitHubToken        string
	// TaskID is the id of the running decision task (TASK_ID).
	TaskID string
}

// Config is everything a decision run needs.
type Config struct {
	Params Parameters
	Env    Env
}

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// EnvFiles are loaded with godotenv before reading the environment.
	// When empty, a ./.env file is loaded if present.
	EnvFiles []string
	// ParametersPath is the YAML parameters file. Required.
	ParametersPath string
}

// Load reads the environment and the parameters file, applies defaults and
// validates the result.
func Load(opts LoadOptions) (*Config, error) {
	if err := LoadEnvFiles(opts.EnvFiles...); err != nil {
		return nil, err
	}

	env := LoadEnv()
	params, err := LoadParameters(opts.ParametersPath)
	if err != nil {
		return nil, err
	}
	return New(params, env)
}

// LoadEnvFiles loads the given dotenv files into the process environment
// without overriding variables already set. With no files, a ./.env file is
// loaded if present.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}

// New applies defaults and validates an already assembled configuration.
func New(params Parameters, env Env) (*Config, error) {
	params = params.withDefaults(env)
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &Config{Params: params, Env: env}, nil
}

// LoadParameters decodes a YAML parameters file. Unknown keys are rejected.
func LoadParameters(path string) (Parameters, error) {
	var p Parameters
	if path == "" {
		return p, errors.New("parameters path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return p, fmt.Errorf("opening parameters: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return p, fmt.Errorf("decoding parameters %s: %w", path, err)
	}
	return p, nil
}

// LoadEnv reads the environment keys used by a decision run.
func LoadEnv() Env {
	return Env{
		Automation:         getenv("MOZ_AUTOMATION") == "1",
		TaskclusterRootURL: firstNonEmpty(getenv("TASKCLUSTER_ROOT_URL"), defaultTaskclusterRootURL),
		HeadRepository:     getenv("MOBILE_HEAD_REPOSITORY"),
		HeadRev:            getenv("MOBILE_HEAD_REV"),
		IndexBackend:       firstNonEmpty(getenv("TASKGRAPH_INDEX_BACKEND"), IndexBackendTaskcluster),
		IndexS3: S3{
			Endpoint:  getenv("INDEX_S3_ENDPOINT"),
			Region:    firstNonEmpty(getenv("INDEX_S3_REGION"), defaultIndexS3Region),
			AccessKey: getenv("INDEX_S3_ACCESS_KEY"),
			SecretKey: getenv("INDEX_S3_SECRET_KEY"),
			Bucket:    firstNonEmpty(getenv("INDEX_S3_BUCKET"), defaultIndexS3Bucket),
			UseSSL:    parseBool(getenv("INDEX_S3_USE_SSL"), true),
		},
		TestRail: TestRail{
			Host:     getenv("TESTRAIL_HOST"),
			Username: getenv("TESTRAIL_USERNAME"),
			Password: getenv("TESTRAIL_PASSWORD"),
		},
		GitHubToken: getenv("GITHUB_TOKEN"),
		TaskID:      getenv("TASK_ID"),
	}
}

func (p Parameters) withDefaults(env Env) Parameters {
	p.Level = firstNonEmpty(p.Level, DefaultLevel)
	// A release promotion names its phase, whose filter shares the name.
	p.TargetTasksMethod = firstNonEmpty(p.TargetTasksMethod, p.ShippingPhase, DefaultTargetTasksMethod)
	p.HeadRepository = firstNonEmpty(p.HeadRepository, env.HeadRepository)
	p.HeadRev = firstNonEmpty(p.HeadRev, env.HeadRev)
	p.BaseRepository = firstNonEmpty(p.BaseRepository, p.HeadRepository)
	return p
}

// WithTrustDomain fills an unset trust domain from the project's build
// description, falling back to DefaultTrustDomain.
func (p Parameters) WithTrustDomain(project string) Parameters {
	p.TrustDomain = firstNonEmpty(p.TrustDomain, project, DefaultTrustDomain)
	return p
}

// Validate reports every problem with the parameters at once.
func (p Parameters) Validate() error {
	var errs []error
	if p.TasksFor == "" {
		errs = append(errs, errors.New("tasks_for is required"))
	}
	if !slices.Contains([]string{"1", "2", "3"}, p.Level) {
		errs = append(errs, fmt.Errorf("level must be 1, 2 or 3, got %q", p.Level))
	}
	if p.Project == "" {
		errs = append(errs, errors.New("project is required"))
	}
	if p.HeadRepository == "" {
		errs = append(errs, errors.New("head_repository is required"))
	}
	if p.HeadRev == "" {
		errs = append(errs, errors.New("head_rev is required"))
	}
	if p.ShippingPhase != "" && !slices.Contains(shippingPhases, p.ShippingPhase) {
		errs = append(errs, fmt.Errorf("shipping_phase must be promote or ship, got %q", p.ShippingPhase))
	}
	if p.PullRequestNumber != nil && *p.PullRequestNumber <= 0 {
		errs = append(errs, fmt.Errorf("pull_request_number must be positive, got %d", *p.PullRequestNumber))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

// Validate checks the environment-derived settings.
func (e Env) Validate() error {
	switch e.IndexBackend {
	case IndexBackendTaskcluster:
		return nil
	case IndexBackendS3:
		if e.IndexS3.Endpoint == "" {
			return errors.New("invalid environment: INDEX_S3_ENDPOINT is required for the s3 index backend")
		}
		return nil
	default:
		return fmt.Errorf("invalid environment: unknown TASKGRAPH_INDEX_BACKEND %q", e.IndexBackend)
	}
}

// IsPullRequest reports whether the trigger is a (possibly untrusted) pull
// request.
func (p Parameters) IsPullRequest() bool {
	return p.TasksFor == TasksForPullRequest || p.TasksFor == TasksForPullRequestUntrusted
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
