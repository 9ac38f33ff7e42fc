package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/taskgraphgo/internal/testrail"
)

type fakeReporter struct {
	calls     []string
	milestone string
	runName   string
	failOn    string
}

func (f *fakeReporter) CreateMilestone(_ context.Context, projectID int, name, description string) (testrail.Milestone, error) {
	f.calls = append(f.calls, "milestone")
	f.milestone = name
	if f.failOn == "milestone" {
		return testrail.Milestone{}, errors.New("boom")
	}
	return testrail.Milestone{ID: 11, Name: name, Description: description}, nil
}

func (f *fakeReporter) CreateTestRun(_ context.Context, projectID, milestoneID int, name string, suiteID int) (testrail.Run, error) {
	f.calls = append(f.calls, "run")
	f.runName = name
	return testrail.Run{ID: 22, Name: name, MilestoneID: milestoneID, SuiteID: suiteID}, nil
}

func (f *fakeReporter) MarkSuitePassed(_ context.Context, projectID, runID, suiteID int) error {
	f.calls = append(f.calls, "passed")
	return nil
}

func signOffApp(t *testing.T, r Reporter) *App {
	t.Helper()
	a, _ := testApp(t, Config{}, Collaborators{
		Reporter: r,
		Now:      func() time.Time { return time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC) },
	})
	return a
}

func TestReportSignOff(t *testing.T) {
	r := &fakeReporter{}
	err := signOffApp(t, r).ReportSignOff(context.Background(), SignOff{
		Product: "Firefox", Version: "124.0b3", ProjectID: 53, SuiteID: 45442,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"milestone", "run", "passed"}, r.calls)
	assert.Equal(t, "Build Validation sign-off - Firefox Beta 124.0b3", r.milestone)
	assert.Equal(t, r.milestone, r.runName)
}

func TestReportSignOff_Errors(t *testing.T) {
	t.Run("invalid request", func(t *testing.T) {
		r := &fakeReporter{}
		err := signOffApp(t, r).ReportSignOff(context.Background(), SignOff{})
		require.Error(t, err)
		assert.ErrorContains(t, err, "version is required")
		assert.Empty(t, r.calls)
	})

	t.Run("milestone failure stops the run", func(t *testing.T) {
		r := &fakeReporter{failOn: "milestone"}
		err := signOffApp(t, r).ReportSignOff(context.Background(), SignOff{
			Product: "Focus", Version: "124.0", ProjectID: 1, SuiteID: 2, RunName: "smoke",
		})
		require.Error(t, err)
		assert.ErrorContains(t, err, "failed to create milestone")
		assert.Equal(t, []string{"milestone"}, r.calls)
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Setenv("TESTRAIL_HOST", "")
		t.Setenv("TESTRAIL_USERNAME", "")
		t.Setenv("TESTRAIL_PASSWORD", "")
		a, _ := testApp(t, Config{EnvFiles: []string{writeEmptyEnv(t)}}, Collaborators{})
		err := a.ReportSignOff(context.Background(), SignOff{Product: "Firefox", Version: "1.0", ProjectID: 1, SuiteID: 1})
		require.Error(t, err)
		assert.ErrorContains(t, err, "TESTRAIL_HOST")
	})
}
