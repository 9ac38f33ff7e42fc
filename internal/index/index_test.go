package index

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	ids map[string]string
	err error
}

func (f fakeLookup) FindTaskID(_ context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if id, ok := f.ids[path]; ok {
		return id, nil
	}
	return "", ErrNotFound
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	l := fakeLookup{ids: map[string]string{"a.b": "task"}}

	ok, err := Exists(ctx, l, "a.b")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Exists(ctx, l, "c.d")
	require.NoError(t, err)
	assert.False(t, ok)

	boom := errors.New("boom")
	_, err = Exists(ctx, fakeLookup{err: boom}, "a.b")
	assert.ErrorIs(t, err, boom)
}

func TestNightlyDecisionPath(t *testing.T) {
	assert.Equal(t,
		"mobile.v2.firefox-android.branch.main.revision.abc.taskgraph.decision-nightly",
		NightlyDecisionPath("mobile", "firefox-android", "refs/heads/main", "abc"))
}

func TestTaskcluster_FindTaskID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/index/v1/task/mobile.v2.project.found":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"namespace":"mobile.v2.project.found","taskId":"abcDEF123","rank":0}`)
		case "/api/index/v1/task/mobile.v2.project.broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"code":"ResourceNotFound"}`)
		}
	}))
	defer srv.Close()

	tc := NewTaskcluster(srv.URL + "/")
	defer tc.Close()
	ctx := context.Background()

	id, err := tc.FindTaskID(ctx, "mobile.v2.project.found")
	require.NoError(t, err)
	assert.Equal(t, "abcDEF123", id)

	_, err = tc.FindTaskID(ctx, "mobile.v2.project.missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tc.FindTaskID(ctx, "mobile.v2.project.broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "unexpected status")
}

const fakeBucket = "taskgraph-index"

// fakeS3 serves path-style GET requests for objects seeded in memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key, _ := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/"))
	body, ok := f.objects[key]
	if !ok {
		code := "NoSuchKey"
		if !strings.HasPrefix(key, fakeBucket+"/") {
			code = "NoSuchBucket"
		}
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		if r.Method != http.MethodHead {
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>Not found.</Message><Key>%s</Key><RequestId>1</RequestId><HostId>1</HostId></Error>`, code, key)
		}
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	w.Header().Set("Last-Modified", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		fmt.Fprint(w, body)
	}
}

func TestS3_FindTaskID(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{
		"taskgraph-index/index/mobile.v2.project.found": "taskFromS3\n",
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s, err := NewS3(S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "taskgraph-index",
	})
	require.NoError(t, err)
	ctx := context.Background()

	id, err := s.FindTaskID(ctx, "mobile.v2.project.found")
	require.NoError(t, err)
	assert.Equal(t, "taskFromS3", id)

	_, err = s.FindTaskID(ctx, "mobile.v2.project.missing")
	assert.ErrorIs(t, err, ErrNotFound)

	wrongBucket, err := NewS3(S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "no-such-bucket",
	})
	require.NoError(t, err)
	_, err = wrongBucket.FindTaskID(ctx, "mobile.v2.project.found")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound, "a missing bucket must not read as a missing entry")
	assert.ErrorContains(t, err, "index lookup mobile.v2.project.found")
}

func TestNewS3_Validation(t *testing.T) {
	_, err := NewS3(S3Config{Bucket: "b"})
	assert.ErrorContains(t, err, "endpoint is required")
	_, err = NewS3(S3Config{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "bucket is required")
}
