package orchestrator

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ridgeline-labs/termflow/internal/domain/errors"
	"github.com/ridgeline-labs/termflow/internal/pane"
)

// Orchestrator maintains agent, command queue, execution, and approval
// pools plus a terminal budget, and is single-owner: callers needing
// cross-goroutine access must hold an external lock over the whole
// structure.
type Orchestrator struct {
	cfg    Config
	domain pane.Domain

	agents       map[string]*Agent
	agentOrder   []string
	queue        []*Command
	commands     map[string]*Command
	executions   map[string]*Execution
	running      map[string]struct{}
	approvals    map[string]*ApprovalRequest
	terminalsUse int
}

// New returns an Orchestrator bound to domain for pane allocation.
func New(cfg Config, domain pane.Domain) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		domain:     domain,
		agents:     make(map[string]*Agent),
		commands:   make(map[string]*Command),
		executions: make(map[string]*Execution),
		running:    make(map[string]struct{}),
		approvals:  make(map[string]*ApprovalRequest),
	}
}

// SpawnAgent registers a new Idle agent with the given capabilities.
func (o *Orchestrator) SpawnAgent(caps []Capability) (*Agent, error) {
	if len(o.agents) >= o.cfg.MaxAgents {
		return nil, errors.NewCapacityError("agents", o.cfg.MaxAgents)
	}
	a := &Agent{
		ID:           uuid.NewString(),
		Capabilities: make(map[Capability]struct{}, len(caps)),
		State:        AgentIdle,
	}
	for _, c := range caps {
		a.Capabilities[c] = struct{}{}
	}
	o.agents[a.ID] = a
	o.agentOrder = append(o.agentOrder, a.ID)
	log.Debug().Str("agent_id", a.ID).Msg("agent spawned")
	return a, nil
}

// QueueCommand enqueues cmd; it is not eligible for assignment until
// its ApprovalState is Approved.
func (o *Orchestrator) QueueCommand(cmd *Command) error {
	if len(o.queue) >= o.cfg.MaxQueueSize {
		return errors.NewCapacityError("queue", o.cfg.MaxQueueSize)
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	o.queue = append(o.queue, cmd)
	o.commands[cmd.ID] = cmd
	return nil
}

// ApproveCommand flips cmd's approval state to Approved.
func (o *Orchestrator) ApproveCommand(commandID string) error {
	cmd, ok := o.commands[commandID]
	if !ok {
		return errors.NewNotFoundError("command", commandID)
	}
	cmd.ApprovalState = Approved
	return nil
}

// Command returns the command with id, whether still queued or already
// assigned.
func (o *Orchestrator) Command(id string) (*Command, bool) {
	c, ok := o.commands[id]
	return c, ok
}

// RequestApproval creates a pending approval request for agent/command.
func (o *Orchestrator) RequestApproval(agentID, commandID string) (*ApprovalRequest, error) {
	if _, ok := o.agents[agentID]; !ok {
		return nil, errors.NewNotFoundError("agent", agentID)
	}
	req := &ApprovalRequest{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		CommandID: commandID,
		CreatedAt: time.Now(),
		State:     RequestPending,
	}
	o.approvals[req.ID] = req
	return req, nil
}

// ApproveRequest grants a pending approval request.
func (o *Orchestrator) ApproveRequest(requestID string) error {
	req, ok := o.approvals[requestID]
	if !ok {
		return errors.NewNotFoundError("approval_request", requestID)
	}
	if req.State != RequestPending {
		return errors.NewStateTransitionError("approval_request", req.State.string(), "Granted")
	}
	req.State = RequestGranted
	return nil
}

// RejectRequest rejects a pending approval request.
func (o *Orchestrator) RejectRequest(requestID string) error {
	req, ok := o.approvals[requestID]
	if !ok {
		return errors.NewNotFoundError("approval_request", requestID)
	}
	req.State = RequestRejected
	return nil
}

// ProcessApprovalTimeouts rejects every pending request older than
// maxAge and returns how many were rejected.
func (o *Orchestrator) ProcessApprovalTimeouts(maxAge time.Duration) int {
	n := 0
	now := time.Now()
	for _, req := range o.approvals {
		if req.State == RequestPending && now.Sub(req.CreatedAt) >= maxAge {
			req.State = RequestTimedOut
			n++
		}
	}
	return n
}

// Assignment records one agent/command pairing made by AutoAssign.
type Assignment struct {
	AgentID   string
	CommandID string
}

// AutoAssign scans Idle agents in insertion order and pairs each with
// the first Approved, capability-matching command in the queue.
// First-eligible wins; there is no starvation avoidance beyond FIFO.
func (o *Orchestrator) AutoAssign() []Assignment {
	var assigned []Assignment
	for _, agentID := range o.agentOrder {
		agent := o.agents[agentID]
		if agent.State != AgentIdle {
			continue
		}
		idx := o.firstAssignableCommand(agent)
		if idx < 0 {
			continue
		}
		cmd := o.queue[idx]
		o.queue = append(o.queue[:idx], o.queue[idx+1:]...)
		agent.State = AgentAssigned
		agent.CurrentCommand = cmd.ID
		assigned = append(assigned, Assignment{AgentID: agent.ID, CommandID: cmd.ID})
		log.Debug().Str("agent_id", agent.ID).Str("command_id", cmd.ID).Msg("command assigned")
	}
	return assigned
}

func (o *Orchestrator) firstAssignableCommand(agent *Agent) int {
	for i, c := range o.queue {
		if c.ApprovalState != Approved {
			continue
		}
		if c.RequiredCapability != "" && !agent.HasCapability(c.RequiredCapability) {
			continue
		}
		return i
	}
	return -1
}

// BeginExecution allocates a pane for agent's assigned command and
// transitions the execution to Running.
func (o *Orchestrator) BeginExecution(agentID string) (*Execution, error) {
	agent, ok := o.agents[agentID]
	if !ok {
		return nil, errors.NewNotFoundError("agent", agentID)
	}
	if agent.State != AgentAssigned {
		return nil, errors.NewStateTransitionError("agent", agent.State.String(), "Executing")
	}
	if len(o.running) >= o.cfg.MaxExecutions {
		return nil, errors.NewCapacityError("executions", o.cfg.MaxExecutions)
	}
	if o.terminalsUse >= o.cfg.MaxTerminals {
		return nil, errors.NewCapacityError("terminals", o.cfg.MaxTerminals)
	}

	p, err := o.domain.SpawnPane(80, 24, nil)
	if err != nil {
		agent.State = AgentIdle
		agent.CurrentCommand = ""
		return nil, err
	}

	if cmd, ok := o.commands[agent.CurrentCommand]; ok && cmd.Payload != "" {
		// Best-effort: the pane buffers input; a short write is the
		// pane's problem to surface via exit status.
		_, _ = p.Write(append([]byte(cmd.Payload), '\n'))
	}

	exec := &Execution{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		CommandID: agent.CurrentCommand,
		PaneID:    p.PaneID(),
		State:     ExecRunning,
	}
	o.executions[exec.ID] = exec
	o.running[exec.ID] = struct{}{}
	o.terminalsUse++
	agent.State = AgentExecuting
	return exec, nil
}

// RunningExecutionIDs returns the ids of currently running executions,
// for callers that need a before/after diff (e.g. the runtime's poll
// loop).
func (o *Orchestrator) RunningExecutionIDs() []string {
	out := make([]string, 0, len(o.running))
	for id := range o.running {
		out = append(out, id)
	}
	return out
}

// PollExecutions drains pane output opportunistically and detects
// panes whose process has exited, transitioning their execution to a
// terminal state and releasing the terminal budget.
func (o *Orchestrator) PollExecutions() []CompletionInfo {
	var completed []CompletionInfo
	buf := make([]byte, 4096)
	for execID := range o.running {
		exec := o.executions[execID]
		p, ok := o.domain.GetPane(exec.PaneID)
		if !ok {
			continue
		}
		_, _ = p.Read(buf)
		if p.IsAlive() {
			continue
		}
		code, hasCode := p.ExitStatus()
		if !hasCode {
			code = 0
		}
		success := code == 0
		exec.ExitCode = &code
		if success {
			exec.State = ExecSucceeded
		} else {
			exec.State = ExecFailed
		}
		delete(o.running, execID)
		o.terminalsUse--
		if agent, ok := o.agents[exec.AgentID]; ok {
			agent.State = AgentCompleted
		}
		completed = append(completed, CompletionInfo{
			ExecutionID: exec.ID,
			AgentID:     exec.AgentID,
			CommandID:   exec.CommandID,
			ExitCode:    code,
			Success:     success,
		})
	}
	return completed
}

// ResetAgent returns a Completed or Failed agent to Idle.
func (o *Orchestrator) ResetAgent(agentID string) error {
	agent, ok := o.agents[agentID]
	if !ok {
		return errors.NewNotFoundError("agent", agentID)
	}
	agent.State = AgentIdle
	agent.CurrentCommand = ""
	return nil
}

// Agent returns the agent with id, if any.
func (o *Orchestrator) Agent(id string) (*Agent, bool) {
	a, ok := o.agents[id]
	return a, ok
}

// Execution returns the execution with id, if any.
func (o *Orchestrator) Execution(id string) (*Execution, bool) {
	e, ok := o.executions[id]
	return e, ok
}

// QueueLen reports how many commands are currently queued.
func (o *Orchestrator) QueueLen() int { return len(o.queue) }

// RunningCount reports how many executions are currently running.
func (o *Orchestrator) RunningCount() int { return len(o.running) }

// AgentCount reports how many agents are registered.
func (o *Orchestrator) AgentCount() int { return len(o.agents) }

// TerminalsInUse reports the current terminal budget usage.
func (o *Orchestrator) TerminalsInUse() int { return o.terminalsUse }

// AssignedAgentIDs returns the ids of agents currently in the Assigned
// state, in insertion order, for the runtime's auto-execute step.
func (o *Orchestrator) AssignedAgentIDs() []string {
	var out []string
	for _, id := range o.agentOrder {
		if o.agents[id].State == AgentAssigned {
			out = append(out, id)
		}
	}
	return out
}

func (s RequestState) string() string {
	switch s {
	case RequestPending:
		return "Pending"
	case RequestGranted:
		return "Granted"
	case RequestRejected:
		return "Rejected"
	case RequestTimedOut:
		return "TimedOut"
	default:
		return "Unknown"
	}
}
