package slugid

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNice(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		id := Nice()
		require.Len(t, id, 22)
		assert.NotEqual(t, byte('-'), id[0], "id %q starts with a dash", id)

		raw, err := base64.RawURLEncoding.DecodeString(id)
		require.NoError(t, err)
		assert.Len(t, raw, 16)

		_, dup := seen[id]
		require.False(t, dup, "id %q generated twice", id)
		seen[id] = struct{}{}
	}
}
