package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWSEvent(t *testing.T) {
	event := NewWSEvent(EventAgentCompletion, "agent-1", "exec-1")

	assert.Equal(t, EventAgentCompletion, event.Type)
	assert.Equal(t, "agent-1", event.AgentID)
	assert.Equal(t, "exec-1", event.ExecutionID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestWSEvent_JSONShape(t *testing.T) {
	code := 0
	event := NewWSEvent(EventAgentCompletion, "agent-1", "exec-1")
	event.CommandID = "cmd-1"
	event.ExitCode = &code

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "agent.completion", decoded["type"])
	assert.Equal(t, "agent-1", decoded["agent_id"])
	assert.Equal(t, "exec-1", decoded["execution_id"])
	assert.Equal(t, "cmd-1", decoded["command_id"])
	assert.Equal(t, float64(0), decoded["exit_code"])
	// Empty optional fields stay off the wire
	assert.NotContains(t, decoded, "error")
	assert.NotContains(t, decoded, "request_id")
}

func TestWSCommand_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want WSCommand
	}{
		{
			name: "subscribe to agent",
			raw:  `{"action":"subscribe","agent_id":"agent-1"}`,
			want: WSCommand{Action: CmdSubscribe, AgentID: "agent-1"},
		},
		{
			name: "approve request",
			raw:  `{"action":"approve","request_id":"req-1"}`,
			want: WSCommand{Action: CmdApprove, RequestID: "req-1"},
		},
		{
			name: "unsubscribe from execution",
			raw:  `{"action":"unsubscribe","execution_id":"exec-1"}`,
			want: WSCommand{Action: CmdUnsubscribe, ExecutionID: "exec-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd WSCommand
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &cmd))
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestResponses(t *testing.T) {
	ok := NewSuccessResponse(CmdSubscribe, "subscribed to agent: a-1")
	assert.True(t, ok.Success)
	assert.Equal(t, CmdSubscribe, ok.Type)
	assert.Equal(t, "subscribed to agent: a-1", ok.Message)

	fail := NewErrorResponse(CmdApprove, "request_id required")
	assert.False(t, fail.Success)
	assert.Equal(t, "request_id required", fail.Error)
}
