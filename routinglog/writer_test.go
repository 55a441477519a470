package routinglog

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempLogPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "routing.jsonl")
}

func TestWriter_AppendWritesOneLinePerEntry(t *testing.T) {
	path := tempLogPath(t)
	w, err := NewWriter(path, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append(Entry{RequestID: "r1", ModelID: "claude-haiku", Timestamp: time.Now()}))
	require.NoError(t, w.Append(Entry{RequestID: "r2", ModelID: "claude-sonnet", Timestamp: time.Now()}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if scanner.Text() != "" {
			lines++
		}
	}
	assert.Equal(t, 2, lines)
}

func TestWriter_LookupResolvesAppendedRequestID(t *testing.T) {
	path := tempLogPath(t)
	w, err := NewWriter(path, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append(Entry{RequestID: "parent-1", ModelID: "claude-opus", Timestamp: time.Now()}))

	model, ok := w.Lookup("parent-1")
	assert.True(t, ok)
	assert.Equal(t, "claude-opus", model)

	_, ok = w.Lookup("unknown")
	assert.False(t, ok)
}
