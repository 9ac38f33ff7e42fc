package builder

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/taskgraphgo/internal/buildconfig"
	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
	"github.com/specialistvlad/taskgraphgo/internal/testutil"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Components: testutil.Components(),
		Overrides:  testutil.Overrides(),
		Version:    "1.0",
		Level:      "3",
		RepoRoot:   t.TempDir(),
		IDGen:      testutil.SequentialIDs("task"),
		Now:        func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestBuild_PullRequest(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	g, err := Build(ctx, testConfig(t), ModePR)
	require.NoError(t, err)
	testutil.AssertWellFormed(t, g)

	want := []string{
		"build-docker-image-base",
		"build-concept-engine-assemble-and-test-and-lint-release-all",
		"build-browser-engine-gecko-assemble-and-test-and-lint-release-all",
		"build-samples-browser-assemble-system",
		"build-samples-browser-assemble-and-test-gecko-beta",
		"build-samples-browser-assemble-and-test-and-lint-debug-gecko-nightly",
		"detekt",
		"ktlint",
		"compare-locales",
	}
	if diff := cmp.Diff(want, g.Labels()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	image, ok := g.Get(DockerImageBaseLabel)
	require.True(t, ok)
	assert.Equal(t, "docker-image", image.Kind)

	build, ok := g.Get("build-samples-browser-assemble-and-test-and-lint-debug-gecko-nightly")
	require.True(t, ok)
	assert.Equal(t, "build", build.Kind)
	assert.Equal(t, "samples-browser", build.StringAttr(AttrComponent))
	assert.Equal(t, "nightly", build.StringAttr(AttrBuildType), "declared variant build type")
	assert.True(t, build.BoolAttr(AttrCodeReview))
	assert.Equal(t,
		":samples-browser:assembleGeckoNightly :samples-browser:testGeckoNightlyDebugUnitTest :samples-browser:lintGeckoNightly",
		build.StringAttr(AttrGradleTasks))
	triggers, ok := build.StringsAttr(AttrRunOnTasksFor)
	require.True(t, ok)
	assert.Equal(t, []string{"github-pull-request", "github-pull-request-untrusted", "github-push"}, triggers)

	assert.Equal(t, map[string]string{"docker-image": DockerImageBaseLabel}, build.Dependencies)
	assert.Equal(t, []string{image.TaskID}, build.Definition.Dependencies)
	require.NotNil(t, build.Definition.Payload.Image)
	assert.Equal(t, image.TaskID, build.Definition.Payload.Image.TaskID)
	assert.Equal(t, "mobile-3", build.Definition.ProvisionerID)

	for _, label := range []string{"detekt", "ktlint", "compare-locales"} {
		task, ok := g.Get(label)
		require.True(t, ok, label)
		assert.Equal(t, "lint", task.Kind)
		assert.True(t, task.BoolAttr(AttrCodeReview))
	}
}

func TestBuild_VariantBuildType(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	g, err := Build(ctx, testConfig(t), ModePR)
	require.NoError(t, err)

	want := map[string]string{
		"build-samples-browser-assemble-system":                                "regular",
		"build-samples-browser-assemble-and-test-gecko-beta":                   "regular",
		"build-samples-browser-assemble-and-test-and-lint-debug-gecko-nightly": "nightly",
		"build-concept-engine-assemble-and-test-and-lint-release-all":          "regular",
	}
	for label, bt := range want {
		task, ok := g.Get(label)
		require.True(t, ok, label)
		assert.Equal(t, bt, task.StringAttr(AttrBuildType), label)
	}
}

func TestBuild_StaticAnalysisOncePerRun(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	cfg := testConfig(t)
	for i := 0; i < 20; i++ {
		cfg.Components = append(cfg.Components, buildconfig.Component{
			Name: "extra-" + string(rune('a'+i)),
			Path: "components/extra",
		})
	}
	g, err := Build(ctx, cfg, ModePR)
	require.NoError(t, err)

	lints := testutil.Labels(g, func(task *taskgraph.Task) bool { return task.Kind == "lint" })
	assert.Equal(t, []string{"detekt", "ktlint", "compare-locales"}, lints)
}

func TestBuild_Push(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	g, err := Build(ctx, testConfig(t), ModePush)
	require.NoError(t, err)
	testutil.AssertWellFormed(t, g)

	for _, label := range []string{"ui-tests", TriggerNightlyLabel, "nightly-concept-engine", "nightly-browser-engine-gecko"} {
		assert.True(t, g.Has(label), label)
	}
	assert.False(t, g.Has("nightly-samples-browser"), "unpublished components have no nightly")

	trigger, _ := g.Get(TriggerNightlyLabel)
	assert.Equal(t, "trigger-nightly", trigger.Kind)

	nightly, _ := g.Get("nightly-browser-engine-gecko")
	assert.Equal(t, "nightly", nightly.StringAttr(AttrBuildType))
	assert.Equal(t, "nightly-concept-engine", nightly.Dependencies["nightly-concept-engine"])
}

func TestBuild_Release(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	g, err := Build(ctx, testConfig(t), ModeRelease)
	require.NoError(t, err)
	testutil.AssertWellFormed(t, g)

	assert.False(t, g.Has("detekt"), "non-snapshot releases skip static analysis")
	assert.False(t, g.Has(DockerImageBaseLabel))

	barrier, ok := g.Get(ReleaseBarrierLabel)
	require.True(t, ok)
	assert.Equal(t, "barrier", barrier.Kind)
	assert.ElementsMatch(t, []string{
		"release-build-concept-engine",
		"release-build-browser-engine-gecko",
		"release-build-samples-browser",
	}, barrier.DependencyLabels())

	for _, comp := range testutil.Components() {
		name := kebab(comp.Name)
		build, ok := g.Get("release-build-" + name)
		require.True(t, ok)
		sign, ok := g.Get("release-signing-" + name)
		require.True(t, ok)
		beet, ok := g.Get("release-beetmover-" + name)
		require.True(t, ok)

		assert.Equal(t, "release", build.StringAttr(AttrBuildType))
		assert.Equal(t, "build", build.StringAttr(AttrShippingPhase))
		assert.Len(t, build.Definition.Payload.Artifacts, 9)
		assert.Equal(t, "b-android-large", build.Definition.WorkerType)
		assert.Contains(t, build.StringAttr(AttrGradleTasks), ":"+comp.Name+":assembleRelease")
		assert.NotContains(t, build.StringAttr(AttrGradleTasks), "renameSnapshotArtifacts")

		assert.Equal(t, map[string]string{"build": build.Label, "barrier": ReleaseBarrierLabel}, sign.Dependencies)
		assert.True(t, sign.BoolAttr(AttrSigned))
		assert.Equal(t, "promote", sign.StringAttr(AttrShippingPhase))
		assert.Equal(t, "signing", sign.Definition.WorkerType)
		assert.Equal(t, "release-signing", sign.Definition.Payload.SigningType)
		require.Len(t, sign.Definition.Payload.UpstreamArtifacts, 1)
		assert.Equal(t, build.TaskID, sign.Definition.Payload.UpstreamArtifacts[0].TaskID)
		assert.Len(t, sign.Definition.Payload.UpstreamArtifacts[0].Paths, 3)

		assert.Equal(t, map[string]string{"build": build.Label, "signing": sign.Label}, beet.Dependencies)
		assert.Equal(t, "ship", beet.StringAttr(AttrShippingPhase))
		assert.Len(t, beet.Definition.Payload.ArtifactMap, 12)
		assert.Contains(t, beet.Definition.Scopes, "project:mobile:android-components:releng:beetmover:bucket:maven-production")
		assert.Equal(t, comp.Name+"-1.0", beet.Definition.Payload.ReleaseName)
	}
}

func TestBuild_Snapshot(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	cfg := testConfig(t)
	cfg.Snapshot = true
	cfg.Staging = true
	cfg.Level = "1"

	g, err := Build(ctx, cfg, ModeRelease)
	require.NoError(t, err)
	testutil.AssertWellFormed(t, g)

	assert.True(t, g.Has("detekt"), "snapshots keep static analysis")
	detekt, _ := g.Get("detekt")
	assert.Equal(t, DockerImageBaseLabel, detekt.Dependencies["docker-image"])

	build, _ := g.Get("release-build-concept-engine")
	assert.Equal(t, "snapshot", build.StringAttr(AttrBuildType))
	assert.Equal(t, "20240101000000", build.Definition.Payload.Env["SNAPSHOT_TIMESTAMP"])
	assert.Contains(t, build.Definition.Payload.Artifacts, "public/build/concept-engine-1.0-20240101000000.aar")
	assert.Contains(t, build.StringAttr(AttrGradleTasks), ":concept-engine:renameSnapshotArtifacts")
	assert.Equal(t, "b-android", build.Definition.WorkerType)

	sign, _ := g.Get("release-signing-concept-engine")
	assert.Equal(t, "dep-signing", sign.Definition.WorkerType)

	beet, _ := g.Get("release-beetmover-concept-engine")
	assert.Contains(t, beet.Definition.Scopes, "project:mobile:android-components:releng:beetmover:bucket:maven-staging")
}

func TestBuild_Errors(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	cases := map[string]struct {
		mutate func(*Config)
		mode   Mode
		want   string
	}{
		"unknown mode": {
			mode: "nightly",
			want: "unknown build mode",
		},
		"release without version": {
			mutate: func(c *Config) { c.Version = "" },
			mode:   ModeRelease,
			want:   "require a version",
		},
		"component without path": {
			mutate: func(c *Config) { c.Components[0].Path = "" },
			mode:   ModePR,
			want:   "has no path",
		},
		"duplicate component": {
			mutate: func(c *Config) { c.Components = append(c.Components, c.Components[0]) },
			mode:   ModePR,
			want:   "declared more than once",
		},
		"override for unknown module": {
			mutate: func(c *Config) {
				c.Overrides["ghost"] = buildconfig.ModuleOverride{Module: "ghost", LintTask: "lint"}
			},
			mode: ModePR,
			want: `"ghost" refers to an unknown component`,
		},
		"lint task matching no declared variant": {
			mutate: func(c *Config) {
				o := c.Overrides["samples-browser"]
				o.LintTask = "lintFocus"
				c.Overrides["samples-browser"] = o
			},
			mode: ModePR,
			want: `lint task "lintFocus" matches none of the declared variants`,
		},
		"lint-only override matching no declared variant": {
			mutate: func(c *Config) {
				c.Overrides["samples-browser"] = buildconfig.ModuleOverride{Module: "samples-browser", LintTask: "lintFocus"}
			},
			mode: ModePR,
			want: `lint task "lintFocus" matches none of the declared variants`,
		},
		"undeclared variant": {
			mutate: func(c *Config) {
				o := c.Overrides["samples-browser"]
				o.AssembleOnly = []string{"Klar"}
				c.Overrides["samples-browser"] = o
			},
			mode: ModePR,
			want: `variant "Klar" is not declared`,
		},
		"empty variant name": {
			mutate: func(c *Config) {
				o := c.Overrides["samples-browser"]
				o.AssembleAndTest = []string{""}
				c.Overrides["samples-browser"] = o
			},
			mode: ModePR,
			want: "empty variant name",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t)
			if tc.mutate != nil {
				tc.mutate(&cfg)
			}
			g, err := Build(ctx, cfg, tc.mode)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.ErrorContains(t, err, tc.want)
		})
	}

	t.Run("dependency cycle between published components", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Components[0].Dependencies = []string{"browser-engine-gecko"}
		_, err := Build(ctx, cfg, ModePush)
		assert.ErrorIs(t, err, taskgraph.ErrCycle)
	})
}

func TestReleaseArtifact(t *testing.T) {
	foo := buildconfig.Component{Name: "foo", Path: "components/foo"}
	root := t.TempDir()

	t.Run("release", func(t *testing.T) {
		a, err := ReleaseArtifact(foo, root, "1.0", ".aar", "")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(a.BuildFSPath, "/build/maven/org/mozilla/components/foo/1.0/foo-1.0.aar"), a.BuildFSPath)
		assert.True(t, strings.HasPrefix(a.BuildFSPath, "/"), "build path must be absolute")
		assert.Equal(t, "public/build/foo-1.0.aar", a.TaskclusterPath)
		assert.Equal(t, "maven2/org/mozilla/components/foo/1.0/foo-1.0.aar", a.MavenDestination)
	})

	t.Run("snapshot", func(t *testing.T) {
		a, err := ReleaseArtifact(foo, root, "1.0", ".aar", "20240101000000")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(a.BuildFSPath, "/1.0-SNAPSHOT/foo-1.0-20240101000000.aar"), a.BuildFSPath)
		assert.Equal(t, "public/build/foo-1.0-20240101000000.aar", a.TaskclusterPath)
		assert.Equal(t, "maven2/org/mozilla/components/foo/1.0-SNAPSHOT/foo-1.0-20240101000000.aar", a.MavenDestination)
	})
}

func TestSnapshotTimestamp(t *testing.T) {
	local := time.Date(2024, 1, 1, 2, 0, 0, 0, time.FixedZone("EET", 2*60*60))
	assert.Equal(t, "20240101000000", SnapshotTimestamp(local))
}

func TestKebab(t *testing.T) {
	cases := map[string]string{
		"assembleAndTestAndLintReleaseAll": "assemble-and-test-and-lint-release-all",
		"assembleSystem":                   "assemble-system",
		"samples-browser":                  "samples-browser",
		"UITests":                          "ui-tests",
		"onlyLintRelease":                  "only-lint-release",
	}
	for in, want := range cases {
		assert.Equal(t, want, kebab(in), in)
	}
}
