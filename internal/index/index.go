// Package index looks up task ids by index path in a durable index.
//
// Two backends are provided: the Taskcluster index service and an
// S3-compatible bucket in which each object key is an index path and the
// object body is the indexed task id.
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when nothing is indexed at the path.
var ErrNotFound = errors.New("index path not found")

// Lookup finds the task indexed at a path.
type Lookup interface {
	FindTaskID(ctx context.Context, path string) (string, error)
}

// Recorder indexes a task at a path.
type Recorder interface {
	InsertTask(ctx context.Context, path, taskID string) error
}

// Exists reports whether anything is indexed at path. Only ErrNotFound maps
// to false; every other failure is returned.
func Exists(ctx context.Context, l Lookup, path string) (bool, error) {
	_, err := l.FindTaskID(ctx, path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// NightlyDecisionPath is the index a nightly decision task is recorded
// under for a revision.
func NightlyDecisionPath(trustDomain, project, headRef, headRev string) string {
	return fmt.Sprintf("%s.v2.%s.branch.%s.revision.%s.taskgraph.decision-nightly",
		trustDomain, project, strings.TrimPrefix(headRef, "refs/heads/"), headRev)
}
