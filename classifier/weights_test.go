package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWeights_NoPathReturnsDefaults(t *testing.T) {
	w, err := LoadWeights("")
	require.NoError(t, err)
	assert.Equal(t, DefaultWeights(), w)
}

func TestLoadWeights_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"codePresence": 0.5}`), 0o600))

	w, err := LoadWeights(path)
	require.NoError(t, err)

	defaults := DefaultWeights()
	assert.Equal(t, 0.5, w.CodePresence)
	assert.Equal(t, defaults.TokenCount, w.TokenCount, "unspecified fields keep their default")
}
