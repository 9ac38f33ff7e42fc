package index

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"
)

// Taskcluster queries the Taskcluster index service.
type Taskcluster struct {
	client *resty.Client
}

type indexedTask struct {
	Namespace string `json:"namespace"`
	TaskID    string `json:"taskId"`
	Rank      int64  `json:"rank"`
	Expires   string `json:"expires"`
}

// NewTaskcluster creates a client for the deployment at rootURL.
func NewTaskcluster(rootURL string) *Taskcluster {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(rootURL, "/")).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json")
	return &Taskcluster{client: client}
}

// FindTaskID implements Lookup.
func (t *Taskcluster) FindTaskID(ctx context.Context, path string) (string, error) {
	var out indexedTask
	resp, err := t.client.R().
		SetContext(ctx).
		SetPathParam("path", path).
		SetResult(&out).
		Get("/api/index/v1/task/{path}")
	if err != nil {
		return "", fmt.Errorf("index lookup %s: %w", path, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.IsError():
		return "", fmt.Errorf("index lookup %s: unexpected status %s", path, resp.Status())
	case out.TaskID == "":
		return "", fmt.Errorf("index lookup %s: response has no taskId", path)
	}
	return out.TaskID, nil
}

// Close releases the underlying HTTP client.
func (t *Taskcluster) Close() error {
	return t.client.Close()
}
