// Package testrail records release sign-off milestones and smoke test runs
// in TestRail.
package testrail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
)

// StatusPassed is TestRail's built-in "Passed" result status.
const StatusPassed = 1

// Client talks to the TestRail v2 API.
type Client struct {
	client *resty.Client
}

// Milestone is a created TestRail milestone.
type Milestone struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Run is a created TestRail test run.
type Run struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	MilestoneID int    `json:"milestone_id"`
	SuiteID     int    `json:"suite_id"`
}

type testCase struct {
	ID int `json:"id"`
}

type casesPage struct {
	Cases []testCase `json:"cases"`
	Links struct {
		Next *string `json:"next"`
	} `json:"_links"`
}

type result struct {
	CaseID   int `json:"case_id"`
	StatusID int `json:"status_id"`
}

// New returns a client for the TestRail instance at host.
func New(host, username, password string) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(host, "/")).
		SetTimeout(30*time.Second).
		SetBasicAuth(username, password).
		SetHeader("Accept", "application/json")
	return &Client{client: client}
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error {
	return c.client.Close()
}

// CreateMilestone adds a milestone to a project.
func (c *Client) CreateMilestone(ctx context.Context, projectID int, name, description string) (Milestone, error) {
	var m Milestone
	body := map[string]any{"name": name, "description": description}
	if err := c.post(ctx, fmt.Sprintf("add_milestone/%d", projectID), body, &m); err != nil {
		return Milestone{}, err
	}
	ctxlog.FromContext(ctx).Info("Created TestRail milestone.", "id", m.ID, "name", name)
	return m, nil
}

// CreateTestRun adds a run of a suite under a milestone.
func (c *Client) CreateTestRun(ctx context.Context, projectID, milestoneID int, name string, suiteID int) (Run, error) {
	var r Run
	body := map[string]any{"name": name, "milestone_id": milestoneID, "suite_id": suiteID}
	if err := c.post(ctx, fmt.Sprintf("add_run/%d", projectID), body, &r); err != nil {
		return Run{}, err
	}
	ctxlog.FromContext(ctx).Info("Created TestRail run.", "id", r.ID, "name", name)
	return r, nil
}

// MarkSuitePassed records a passed result in the run for every case of the
// suite.
func (c *Client) MarkSuitePassed(ctx context.Context, projectID, runID, suiteID int) error {
	cases, err := c.cases(ctx, projectID, suiteID)
	if err != nil {
		return err
	}
	results := make([]result, 0, len(cases))
	for _, tc := range cases {
		results = append(results, result{CaseID: tc.ID, StatusID: StatusPassed})
	}
	body := map[string]any{"results": results}
	if err := c.post(ctx, fmt.Sprintf("add_results_for_cases/%d", runID), body, nil); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Marked suite as passed.", "run", runID, "cases", len(results))
	return nil
}

// cases lists the cases of a suite, following pagination links. Older
// instances answer with a bare array instead of a page.
func (c *Client) cases(ctx context.Context, projectID, suiteID int) ([]testCase, error) {
	var all []testCase
	method := fmt.Sprintf("get_cases/%d&suite_id=%d", projectID, suiteID)
	for method != "" {
		var raw json.RawMessage
		if err := c.get(ctx, method, &raw); err != nil {
			return nil, err
		}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
			var cases []testCase
			if err := json.Unmarshal(trimmed, &cases); err != nil {
				return nil, fmt.Errorf("decoding cases: %w", err)
			}
			return append(all, cases...), nil
		}
		var page casesPage
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decoding cases: %w", err)
		}
		all = append(all, page.Cases...)

		method = ""
		if page.Links.Next != nil {
			method = strings.TrimPrefix(*page.Links.Next, "/api/v2/")
		}
	}
	return all, nil
}

func (c *Client) get(ctx context.Context, method string, out any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(out).
		Get(apiPath(method))
	return check(method, resp, err)
}

func (c *Client) post(ctx context.Context, method string, body, out any) error {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Post(apiPath(method))
	return check(method, resp, err)
}

func check(method string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("testrail %s: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("testrail %s: unexpected status %s: %s", method, resp.Status(), strings.TrimSpace(resp.String()))
	}
	return nil
}

// apiPath builds TestRail's query-string routed endpoint for method.
func apiPath(method string) string {
	return "/index.php?/api/v2/" + method
}
