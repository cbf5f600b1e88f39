package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/termflow/internal/runtime"
)

func TestRecordLog_RoundTrip(t *testing.T) {
	log := NewRecordLog(filepath.Join(t.TempDir(), "nested", "completions.log"))

	first := runtime.CompletionRecord{
		ExecutionID: "exec-1",
		AgentID:     "agent-1",
		CommandID:   "cmd-1",
		ExitCode:    0,
		Success:     true,
		CompletedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	second := runtime.CompletionRecord{
		ExecutionID: "exec-2",
		AgentID:     "agent-1",
		CommandID:   "cmd-2",
		ExitCode:    127,
		Success:     false,
		CompletedAt: first.CompletedAt.Add(time.Second),
	}

	require.NoError(t, log.Append(first))
	require.NoError(t, log.Append(second))

	loaded, err := log.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, first.ExecutionID, loaded[0].ExecutionID)
	assert.True(t, loaded[0].Success)
	assert.Equal(t, 127, loaded[1].ExitCode)
	assert.True(t, first.CompletedAt.Equal(loaded[0].CompletedAt))
}

func TestRecordLog_LoadMissingFile(t *testing.T) {
	log := NewRecordLog(filepath.Join(t.TempDir(), "never-written.log"))

	loaded, err := log.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
