package monitoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadTrace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "trace.json")

	trace := sampleTrace()
	require.NoError(t, SaveTraceToFile(trace, path))

	loaded, err := LoadTraceFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "exec-1", loaded.ExecutionID)
	assert.Equal(t, "agent-1", loaded.AgentID)
	assert.Equal(t, 3, loaded.EventCount)
	require.Len(t, loaded.Events, 3)
	assert.Equal(t, "execution.completed", loaded.Events[2].EventType)
	assert.Equal(t, float64(0), loaded.Events[2].Data["exit_code"])
}

func TestSaveTraceWithTimestamp(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveTraceToFileWithTimestamp(sampleTrace(), dir)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "trace-exec-1-")

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadTrace_MissingFile(t *testing.T) {
	_, err := LoadTraceFromFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestExportTracesAsText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "traces.txt")

	other := NewExecutionTrace("exec-2", "agent-2")
	other.AddEvent("execution.started", "cmd-9", "spawn", "", nil, nil)

	require.NoError(t, ExportTracesAsText([]*ExecutionTrace{sampleTrace(), other}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Total Traces: 2")
	assert.Contains(t, text, "Execution Trace [exec-1]")
	assert.Contains(t, text, "Execution Trace [exec-2]")
}
