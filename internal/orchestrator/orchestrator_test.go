package orchestrator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/termflow/internal/orchestrator"
	"github.com/ridgeline-labs/termflow/internal/pane"
)

func newTestOrchestrator(cfg orchestrator.Config) (*orchestrator.Orchestrator, *pane.ControllableMockDomain) {
	dom := pane.NewControllableMockDomain("dom-1", "test-domain", "mock")
	return orchestrator.New(cfg, dom), dom
}

func defaultConfig() orchestrator.Config {
	return orchestrator.Config{MaxAgents: 10, MaxTerminals: 10, MaxQueueSize: 10, MaxExecutions: 10}
}

func TestDispatchScenario(t *testing.T) {
	o, dom := newTestOrchestrator(defaultConfig())

	agent, err := o.SpawnAgent([]orchestrator.Capability{"Shell"})
	require.NoError(t, err)

	cmd := &orchestrator.Command{Kind: "shell", Payload: "echo hi", RequiredCapability: "Shell", ApprovalState: orchestrator.Approved}
	require.NoError(t, o.QueueCommand(cmd))

	assigned := o.AutoAssign()
	require.Len(t, assigned, 1)
	assert.Equal(t, agent.ID, assigned[0].AgentID)
	assert.Equal(t, cmd.ID, assigned[0].CommandID)

	exec, err := o.BeginExecution(agent.ID)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.ExecRunning, exec.State)

	p, ok := dom.GetLastPane()
	require.True(t, ok)
	p.SimulateExit(0)

	completions := o.PollExecutions()
	require.Len(t, completions, 1)
	assert.True(t, completions[0].Success)
	assert.Equal(t, exec.ID, completions[0].ExecutionID)
}

func TestUnapprovedCommandNotAssigned(t *testing.T) {
	o, _ := newTestOrchestrator(defaultConfig())
	_, err := o.SpawnAgent([]orchestrator.Capability{"Shell"})
	require.NoError(t, err)

	cmd := &orchestrator.Command{Kind: "shell", RequiredCapability: "Shell"}
	require.NoError(t, o.QueueCommand(cmd))

	assigned := o.AutoAssign()
	assert.Empty(t, assigned)
}

func TestApprovalTimeout(t *testing.T) {
	o, _ := newTestOrchestrator(defaultConfig())
	agent, _ := o.SpawnAgent([]orchestrator.Capability{"Shell"})
	req, err := o.RequestApproval(agent.ID, "cmd-1")
	require.NoError(t, err)
	assert.Equal(t, orchestrator.RequestPending, req.State)

	n := o.ProcessApprovalTimeouts(1 * time.Millisecond)
	// not yet old enough
	assert.Equal(t, 0, n)

	time.Sleep(2 * time.Millisecond)
	n = o.ProcessApprovalTimeouts(1 * time.Millisecond)
	assert.Equal(t, 1, n)
}

func TestMaxAgentsEnforced(t *testing.T) {
	o, _ := newTestOrchestrator(orchestrator.Config{MaxAgents: 1, MaxTerminals: 10, MaxQueueSize: 10, MaxExecutions: 10})
	_, err := o.SpawnAgent(nil)
	require.NoError(t, err)
	_, err = o.SpawnAgent(nil)
	assert.Error(t, err)
}

func TestNonZeroExitMarksExecutionFailed(t *testing.T) {
	o, dom := newTestOrchestrator(defaultConfig())
	agent, _ := o.SpawnAgent([]orchestrator.Capability{"Shell"})
	cmd := &orchestrator.Command{RequiredCapability: "Shell", ApprovalState: orchestrator.Approved}
	require.NoError(t, o.QueueCommand(cmd))
	o.AutoAssign()
	exec, err := o.BeginExecution(agent.ID)
	require.NoError(t, err)

	p, _ := dom.GetLastPane()
	p.SimulateExit(1)

	completions := o.PollExecutions()
	require.Len(t, completions, 1)
	assert.False(t, completions[0].Success)
	updated, _ := o.Execution(exec.ID)
	assert.Equal(t, orchestrator.ExecFailed, updated.State)
}
