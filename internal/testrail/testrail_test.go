package testrail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
)

type recorded struct {
	method string
	route  string
	body   map[string]any
}

type fakeTestRail struct {
	mu       sync.Mutex
	requests []recorded
	routes   map[string]string
}

func (f *fakeTestRail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != "qa@example.com" || pass != "key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	rec := recorded{method: r.Method, route: r.URL.RawQuery}
	if r.Method == http.MethodPost {
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	resp, ok := f.routes[r.Method+" "+r.URL.RawQuery]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Field :project_id is not a valid project."}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(resp))
}

func newServer(t *testing.T, routes map[string]string) (*fakeTestRail, *Client) {
	t.Helper()
	fake := &fakeTestRail{routes: routes}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c := New(srv.URL+"/", "qa@example.com", "key")
	t.Cleanup(func() { _ = c.Close() })
	return fake, c
}

func TestCreateMilestoneAndRun(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	fake, c := newServer(t, map[string]string{
		"POST /api/v2/add_milestone/53": `{"id": 7, "name": "m"}`,
		"POST /api/v2/add_run/53":       `{"id": 99, "name": "r", "milestone_id": 7, "suite_id": 45442}`,
	})

	m, err := c.CreateMilestone(ctx, 53, "m", "desc")
	require.NoError(t, err)
	assert.Equal(t, 7, m.ID)

	r, err := c.CreateTestRun(ctx, 53, m.ID, "r", 45442)
	require.NoError(t, err)
	assert.Equal(t, Run{ID: 99, Name: "r", MilestoneID: 7, SuiteID: 45442}, r)

	require.Len(t, fake.requests, 2)
	assert.Equal(t, map[string]any{"name": "m", "description": "desc"}, fake.requests[0].body)
	assert.Equal(t, map[string]any{"name": "r", "milestone_id": 7.0, "suite_id": 45442.0}, fake.requests[1].body)
}

func TestMarkSuitePassed(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	t.Run("paginated cases", func(t *testing.T) {
		fake, c := newServer(t, map[string]string{
			"GET /api/v2/get_cases/53&suite_id=1": `{"offset":0,"cases":[{"id":1},{"id":2}],` +
				`"_links":{"next":"/api/v2/get_cases/53&suite_id=1&offset=2"}}`,
			"GET /api/v2/get_cases/53&suite_id=1&offset=2": `{"offset":2,"cases":[{"id":3}],"_links":{"next":null}}`,
			"POST /api/v2/add_results_for_cases/99":        `[]`,
		})

		require.NoError(t, c.MarkSuitePassed(ctx, 53, 99, 1))
		last := fake.requests[len(fake.requests)-1]
		assert.Equal(t, []any{
			map[string]any{"case_id": 1.0, "status_id": 1.0},
			map[string]any{"case_id": 2.0, "status_id": 1.0},
			map[string]any{"case_id": 3.0, "status_id": 1.0},
		}, last.body["results"])
	})

	t.Run("bare array of cases", func(t *testing.T) {
		fake, c := newServer(t, map[string]string{
			"GET /api/v2/get_cases/53&suite_id=1":   `[{"id":5}]`,
			"POST /api/v2/add_results_for_cases/99": `[]`,
		})

		require.NoError(t, c.MarkSuitePassed(ctx, 53, 99, 1))
		assert.Len(t, fake.requests[len(fake.requests)-1].body["results"], 1)
	})

	t.Run("API errors surface", func(t *testing.T) {
		_, c := newServer(t, map[string]string{})
		err := c.MarkSuitePassed(ctx, 1, 2, 3)
		require.Error(t, err)
		assert.ErrorContains(t, err, "get_cases/1&suite_id=3")
		assert.ErrorContains(t, err, "not a valid project")
	})
}

func TestBadCredentials(t *testing.T) {
	srv := httptest.NewServer(&fakeTestRail{})
	defer srv.Close()
	c := New(srv.URL, "qa@example.com", "wrong")
	defer c.Close()

	_, err := c.CreateMilestone(ctxlog.Discard(context.Background()), 1, "m", "d")
	require.Error(t, err)
	assert.ErrorContains(t, err, "401")
}

func TestMilestoneHelpers(t *testing.T) {
	assert.Equal(t, "Build Validation sign-off - Firefox Beta 124.0b3", MilestoneName("Firefox", "Beta", "124.0b3"))

	desc := MilestoneDescription("Build Validation sign-off - Firefox RC 124.0", time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, desc, "RELEASE: Build Validation sign-off - Firefox RC 124.0\n")
	assert.Contains(t, desc, "RELEASE_DATE: March 05, 2024\n")
	assert.Contains(t, desc, "RELEASE_TAG_URL: "+ReleaseTagURL)

	assert.Equal(t, "Alpha", ReleaseType("125.0a1"))
	assert.Equal(t, "Beta", ReleaseType("124.0b3"))
	assert.Equal(t, "RC", ReleaseType("124.0"))
	assert.Equal(t, "RC", ReleaseType("124.0.1"))
}
