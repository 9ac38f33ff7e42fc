package buildconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
)

func writeHCL(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	dir := t.TempDir()
	writeHCL(t, dir, "project.hcl", `
project {
  version      = "120.0"
  trust_domain = "mobile"
}
`)
	writeHCL(t, dir, "components/browser.hcl", `
component "concept-toolbar" {
  path = "components/concept/toolbar"
}

component "samples-browser" {
  path         = "samples/browser"
  publish      = false
  dependencies = ["concept-toolbar"]
  attributes = {
    owner    = "mobile"
    priority = 2
    tags     = ["sample", "gecko"]
    nested   = { enabled = true }
  }
  variant "System" {}
  variant "GeckoNightly" { build_type = "nightly" }
}

module_override "samples-browser" {
  assemble_only     = ["System"]
  assemble_and_test = ["GeckoNightly"]
  lint_task         = "lintGeckoNightly"
}
`)
	writeHCL(t, dir, "README.md", "ignored")

	f, err := NewLoader().Load(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, Project{Version: "120.0", TrustDomain: "mobile"}, f.Project)
	require.Len(t, f.Components, 2)

	sample, ok := f.Component("samples-browser")
	require.True(t, ok)
	assert.False(t, sample.Publish)
	assert.Equal(t, []string{"concept-toolbar"}, sample.Dependencies)
	assert.Equal(t, []string{"System", "GeckoNightly"}, sample.VariantNames())
	assert.Equal(t, "nightly", sample.Variants[1].BuildType)

	wantAttrs := map[string]any{
		"owner":    "mobile",
		"priority": float64(2),
		"tags":     []any{"sample", "gecko"},
		"nested":   map[string]any{"enabled": true},
	}
	if diff := cmp.Diff(wantAttrs, sample.Attributes); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}

	toolbar, ok := f.Component("concept-toolbar")
	require.True(t, ok)
	assert.Nil(t, toolbar.Attributes)

	override := f.Overrides["samples-browser"]
	assert.True(t, override.HasVariants())
	assert.Equal(t, "lintGeckoNightly", override.LintTask)
}

func TestLoad_Errors(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	cases := map[string]struct {
		content string
		want    string
	}{
		"missing path": {
			content: `component "a" {}`,
			want:    `component "a": path is required`,
		},
		"duplicate component": {
			content: `
component "a" { path = "a" }
component "a" { path = "b" }
`,
			want: `component "a" declared more than once`,
		},
		"unknown dependency": {
			content: `component "a" {
  path         = "a"
  dependencies = ["ghost"]
}`,
			want: `unknown component "ghost"`,
		},
		"override for unknown module": {
			content: `
component "a" { path = "a" }
module_override "b" { lint_task = "lint" }
`,
			want: `module_override "b" refers to an unknown component`,
		},
		"empty override": {
			content: `
component "a" { path = "a" }
module_override "a" {}
`,
			want: "declares neither variants nor a lint task",
		},
		"attributes not an object": {
			content: `component "a" {
  path       = "a"
  attributes = "nope"
}`,
			want: "attributes must be an object",
		},
		"syntax error": {
			content: `component "a" {`,
			want:    "failed to parse HCL file",
		},
		"unknown block": {
			content: `task "a" {}`,
			want:    "failed to decode HCL file",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeHCL(t, t.TempDir(), "build.hcl", tc.content)
			_, err := NewLoader().Load(ctx, path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.ErrorContains(t, err, tc.want)
		})
	}

	t.Run("no files", func(t *testing.T) {
		_, err := NewLoader().Load(ctx, t.TempDir())
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := NewLoader().Load(ctx, filepath.Join(t.TempDir(), "absent"))
		assert.ErrorContains(t, err, "error accessing path")
	})
}
