package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/termflow/internal/orchestrator"
	"github.com/ridgeline-labs/termflow/internal/pane"
	"github.com/ridgeline-labs/termflow/internal/runtime"
)

type recordingCallback struct {
	runtime.NullCompletionCallback
	spawned     []string
	queued      []string
	assigned    []string
	started     []string
	completions []string
}

func (r *recordingCallback) OnAgentSpawned(agentID string) {
	r.spawned = append(r.spawned, agentID)
}

func (r *recordingCallback) OnCommandQueued(commandID string) {
	r.queued = append(r.queued, commandID)
}

func (r *recordingCallback) OnCommandAssigned(agentID, commandID string) {
	r.assigned = append(r.assigned, commandID)
}

func (r *recordingCallback) OnExecutionStarted(executionID, agentID, commandID string) {
	r.started = append(r.started, executionID)
}

func (r *recordingCallback) OnCompletion(executionID string, exitCode int, success bool, agentID, commandID string) {
	r.completions = append(r.completions, executionID)
}

func defaultOrchConfig() orchestrator.Config {
	return orchestrator.Config{MaxAgents: 10, MaxTerminals: 10, MaxQueueSize: 10, MaxExecutions: 10}
}

func TestTickDispatchAndCompletion(t *testing.T) {
	dom := pane.NewControllableMockDomain("dom-1", "test", "mock")
	orch := orchestrator.New(defaultOrchConfig(), dom)
	cb := &recordingCallback{}
	rt := runtime.New(orch, runtime.DefaultConfig(defaultOrchConfig()), cb)

	_, err := orch.SpawnAgent([]orchestrator.Capability{"Shell"})
	require.NoError(t, err)
	require.NoError(t, orch.QueueCommand(&orchestrator.Command{RequiredCapability: "Shell", ApprovalState: orchestrator.Approved}))

	res := rt.Tick(context.Background())
	assert.Equal(t, 1, res.Assignments)
	assert.Equal(t, 1, res.ExecutionsStarted)

	p, ok := dom.GetLastPane()
	require.True(t, ok)
	p.SimulateExit(0)

	res = rt.Tick(context.Background())
	assert.Equal(t, 1, res.Completions)
	assert.Len(t, cb.completions, 1)
}

func TestCallbackLifecycleOrder(t *testing.T) {
	dom := pane.NewControllableMockDomain("dom-1", "test", "mock")
	orch := orchestrator.New(defaultOrchConfig(), dom)
	cb := &recordingCallback{}
	rt := runtime.New(orch, runtime.DefaultConfig(defaultOrchConfig()), cb)

	agent, err := rt.SpawnAgent([]orchestrator.Capability{"Shell"})
	require.NoError(t, err)
	cmd := &orchestrator.Command{RequiredCapability: "Shell", ApprovalState: orchestrator.Approved, Payload: "echo hi"}
	require.NoError(t, rt.QueueCommand(cmd))

	rt.Tick(context.Background())

	assert.Equal(t, []string{agent.ID}, cb.spawned)
	assert.Equal(t, []string{cmd.ID}, cb.queued)
	assert.Equal(t, []string{cmd.ID}, cb.assigned)
	require.Len(t, cb.started, 1)
	assert.Empty(t, cb.completions)

	p, ok := dom.GetLastPane()
	require.True(t, ok)
	p.SimulateExit(0)
	rt.Tick(context.Background())
	assert.Equal(t, cb.started, cb.completions)
}

func TestApprovalTimeoutViaTick(t *testing.T) {
	dom := pane.NewControllableMockDomain("dom-1", "test", "mock")
	orch := orchestrator.New(defaultOrchConfig(), dom)
	cfg := runtime.DefaultConfig(defaultOrchConfig())
	cfg.ApprovalTimeoutInterval = 1 * time.Millisecond
	cfg.AutoAssign = false
	cfg.AutoExecute = false
	rt := runtime.New(orch, cfg, nil)

	agent, _ := orch.SpawnAgent(nil)
	_, err := orch.RequestApproval(agent.ID, "cmd-x")
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	res := rt.Tick(context.Background())
	assert.Equal(t, 1, res.ApprovalTimeouts)
}

func TestRunUntilCompleteNoRunningExecutions(t *testing.T) {
	dom := pane.NewControllableMockDomain("dom-1", "test", "mock")
	orch := orchestrator.New(defaultOrchConfig(), dom)
	rt := runtime.New(orch, runtime.DefaultConfig(defaultOrchConfig()), nil)

	results, err := rt.RunUntilComplete(context.Background(), 3)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}
