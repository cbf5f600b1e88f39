package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/termflow/internal/runtime"
)

// mockBroadcaster captures broadcast calls without a hub.
type mockBroadcaster struct {
	mu      sync.Mutex
	events  []*WSEvent
	userIDs []string
	agents  []string
	execs   []string
}

func (m *mockBroadcaster) Broadcast(userID, agentID, executionID string, event *WSEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	m.userIDs = append(m.userIDs, userID)
	m.agents = append(m.agents, agentID)
	m.execs = append(m.execs, executionID)
}

func (m *mockBroadcaster) last() *WSEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}

func TestAgentObserver_OnTick(t *testing.T) {
	mock := &mockBroadcaster{}
	obs := NewAgentObserver(mock)

	result := runtime.TickResult{Assignments: 2, ExecutionsStarted: 1, Completions: 3}
	obs.OnTick(result)

	ev := mock.last()
	require.NotNil(t, ev)
	assert.Equal(t, EventAgentTick, ev.Type)
	// Tick events are unscoped so the hub fans them out to everyone.
	assert.Empty(t, mock.agents[0])
	assert.Empty(t, mock.execs[0])
	assert.Equal(t, result, ev.Output)
}

func TestAgentObserver_OnCompletion(t *testing.T) {
	mock := &mockBroadcaster{}
	obs := NewAgentObserver(mock)

	rec := runtime.CompletionRecord{
		ExecutionID: "exec-1",
		AgentID:     "agent-1",
		CommandID:   "cmd-1",
		ExitCode:    0,
		Success:     true,
		CompletedAt: time.Now(),
	}
	obs.OnCompletion(rec)

	ev := mock.last()
	require.NotNil(t, ev)
	assert.Equal(t, EventAgentCompletion, ev.Type)
	assert.Equal(t, "agent-1", ev.AgentID)
	assert.Equal(t, "exec-1", ev.ExecutionID)
	assert.Equal(t, "cmd-1", ev.CommandID)
	require.NotNil(t, ev.ExitCode)
	assert.Equal(t, 0, *ev.ExitCode)
	assert.Empty(t, ev.Error)
	assert.Equal(t, "agent-1", mock.agents[0])
	assert.Equal(t, "exec-1", mock.execs[0])
}

func TestAgentObserver_OnCompletionFailure(t *testing.T) {
	mock := &mockBroadcaster{}
	obs := NewAgentObserver(mock)

	obs.OnCompletion(runtime.CompletionRecord{
		ExecutionID: "exec-2",
		AgentID:     "agent-2",
		ExitCode:    127,
		Success:     false,
	})

	ev := mock.last()
	require.NotNil(t, ev)
	assert.Equal(t, "execution failed", ev.Error)
	require.NotNil(t, ev.ExitCode)
	assert.Equal(t, 127, *ev.ExitCode)
}
