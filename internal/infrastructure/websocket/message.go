// Package websocket streams orchestrator and runtime events to
// connected dashboard clients: AgentObserver publishes one event per
// runtime tick and one per completed execution, with client-driven
// subscriptions keyed by agent or execution id.
package websocket

import (
	"time"
)

// Event types (server -> client)
const (
	// EventAgentTick is published once per AgentRuntime.Tick() pass,
	// carrying the pass's runtime.TickResult as Output.
	EventAgentTick = "agent.tick"
	// EventAgentCompletion is published once per orchestrator
	// Execution that PollExecutions reports finished, carrying the
	// runtime.CompletionRecord as Output.
	EventAgentCompletion = "agent.completion"
	// EventExecutionStarted names an execution acquiring a pane and
	// transitioning to Running. AgentObserver does not publish it.
	EventExecutionStarted = "execution.started"
	// EventExecutionFailed names an execution that could not start or
	// exited non-zero. AgentObserver does not publish it.
	EventExecutionFailed = "execution.failed"
	// EventApprovalRequested names an agent asking for a command to be
	// approved. AgentObserver does not publish it.
	EventApprovalRequested = "approval.requested"
	// EventApprovalTimeout names a pending approval request aging out.
	// AgentObserver does not publish it.
	EventApprovalTimeout = "approval.timeout"
)

// Command types (client -> server)
const (
	CmdSubscribe   = "subscribe"
	CmdUnsubscribe = "unsubscribe"
	CmdApprove     = "approve"
	CmdReject      = "reject"
)

// WSEvent represents an event sent from server to client
type WSEvent struct {
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AgentID     string    `json:"agent_id,omitempty"`
	ExecutionID string    `json:"execution_id,omitempty"`
	CommandID   string    `json:"command_id,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	ExitCode    *int      `json:"exit_code,omitempty"`
	Output      any       `json:"output,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// WSCommand represents a command sent from client to server
type WSCommand struct {
	Action      string `json:"action"`
	AgentID     string `json:"agent_id,omitempty"`
	ExecutionID string `json:"execution_id,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// WSResponse represents a response to a client command
type WSResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewWSEvent creates a new WSEvent with the given type and IDs
func NewWSEvent(eventType, agentID, executionID string) *WSEvent {
	return &WSEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AgentID:     agentID,
		ExecutionID: executionID,
	}
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(responseType, message string) *WSResponse {
	return &WSResponse{
		Type:    responseType,
		Success: true,
		Message: message,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(responseType, errorMsg string) *WSResponse {
	return &WSResponse{
		Type:    responseType,
		Success: false,
		Error:   errorMsg,
	}
}
