package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/taskgraphgo/internal/testutil"
)

func TestNewLogger(t *testing.T) {
	t.Run("records carry the repository root", func(t *testing.T) {
		out := &testutil.SafeBuffer{}
		logger := newLogger(Config{LogFormat: "json", LogLevel: "warn", RepoRoot: "/src/app"}, out)
		logger.Info("dropped")
		logger.Warn("kept")

		recs := out.Records(t)
		require.Len(t, recs, 1)
		assert.Equal(t, "kept", recs[0]["msg"])
		assert.Equal(t, "/src/app", recs[0]["repo_root"])
	})

	t.Run("bad settings fall back to text and warn", func(t *testing.T) {
		out := &testutil.SafeBuffer{}
		logger := newLogger(Config{LogFormat: "xml"}, out)
		logger.Debug("hidden")

		assert.Contains(t, out.String(), `msg="Invalid log settings, using defaults."`)
		assert.Contains(t, out.String(), `unknown log format \"xml\"`)
		assert.NotContains(t, out.String(), "hidden")
	})
}
