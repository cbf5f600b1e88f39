package websocket

import (
	"github.com/ridgeline-labs/termflow/internal/runtime"
)

// AgentObserver implements runtime.TickObserver and broadcasts
// AgentRuntime tick and completion events to WebSocket clients through
// the Broadcaster interface.
type AgentObserver struct {
	hub Broadcaster
}

// NewAgentObserver creates a new AgentObserver.
func NewAgentObserver(hub Broadcaster) *AgentObserver {
	return &AgentObserver{hub: hub}
}

var _ runtime.TickObserver = (*AgentObserver)(nil)

// OnTick is called once per AgentRuntime.Tick() pass. Tick events
// carry no agent/execution id, so the hub fans them out to every
// connected client.
func (ao *AgentObserver) OnTick(result runtime.TickResult) {
	event := NewWSEvent(EventAgentTick, "", "")
	event.Output = result
	ao.hub.Broadcast("", "", "", event)
}

// OnCompletion is called once per completed Execution observed during
// a tick's poll phase.
func (ao *AgentObserver) OnCompletion(rec runtime.CompletionRecord) {
	event := NewWSEvent(EventAgentCompletion, rec.AgentID, rec.ExecutionID)
	event.CommandID = rec.CommandID
	exitCode := rec.ExitCode
	event.ExitCode = &exitCode
	event.Output = rec
	if !rec.Success {
		event.Error = "execution failed"
	}
	ao.hub.Broadcast("", rec.AgentID, rec.ExecutionID, event)
}
