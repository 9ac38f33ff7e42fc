package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/taskgraphgo/internal/config"
	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
	"github.com/specialistvlad/taskgraphgo/internal/testrail"
)

// Reporter records release sign-off in a test case management system.
type Reporter interface {
	CreateMilestone(ctx context.Context, projectID int, name, description string) (testrail.Milestone, error)
	CreateTestRun(ctx context.Context, projectID, milestoneID int, name string, suiteID int) (testrail.Run, error)
	MarkSuitePassed(ctx context.Context, projectID, runID, suiteID int) error
}

// SignOff describes one release sign-off.
type SignOff struct {
	Product   string
	Version   string
	ProjectID int
	SuiteID   int
	// RunName names the test run. Defaults to the milestone name.
	RunName string
}

// Validate reports every missing field at once.
func (s SignOff) Validate() error {
	var errs []error
	if s.Product == "" {
		errs = append(errs, errors.New("product is required"))
	}
	if s.Version == "" {
		errs = append(errs, errors.New("version is required"))
	}
	if s.ProjectID <= 0 {
		errs = append(errs, fmt.Errorf("project id must be positive, got %d", s.ProjectID))
	}
	if s.SuiteID <= 0 {
		errs = append(errs, fmt.Errorf("suite id must be positive, got %d", s.SuiteID))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid sign-off: %w", errors.Join(errs...))
	}
	return nil
}

// ReportSignOff creates the release milestone, a run of the smoke suite under
// it, and marks every case of the suite as passed.
func (a *App) ReportSignOff(ctx context.Context, s SignOff) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	defer a.close()

	if err := s.Validate(); err != nil {
		return err
	}
	reporter, err := a.reporter()
	if err != nil {
		return err
	}

	name := testrail.MilestoneName(s.Product, testrail.ReleaseType(s.Version), s.Version)
	milestone, err := reporter.CreateMilestone(ctx, s.ProjectID, name, testrail.MilestoneDescription(name, a.deps.Now()))
	if err != nil {
		return fmt.Errorf("failed to create milestone: %w", err)
	}
	runName := s.RunName
	if runName == "" {
		runName = name
	}
	run, err := reporter.CreateTestRun(ctx, s.ProjectID, milestone.ID, runName, s.SuiteID)
	if err != nil {
		return fmt.Errorf("failed to create test run: %w", err)
	}
	if err := reporter.MarkSuitePassed(ctx, s.ProjectID, run.ID, s.SuiteID); err != nil {
		return fmt.Errorf("failed to mark suite passed: %w", err)
	}
	a.logger.Info("Sign-off reported.", "milestone", name, "milestone_id", milestone.ID, "run_id", run.ID)
	return nil
}

func (a *App) reporter() (Reporter, error) {
	if a.deps.Reporter != nil {
		return a.deps.Reporter, nil
	}
	if err := config.LoadEnvFiles(a.cfg.EnvFiles...); err != nil {
		return nil, err
	}
	creds := config.LoadEnv().TestRail
	if creds.Host == "" || creds.Username == "" || creds.Password == "" {
		return nil, errors.New("TESTRAIL_HOST, TESTRAIL_USERNAME and TESTRAIL_PASSWORD must be set")
	}
	client := testrail.New(creds.Host, creds.Username, creds.Password)
	a.closers = append(a.closers, client)
	return client, nil
}
