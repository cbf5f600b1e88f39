package runtime

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	otrace "go.opentelemetry.io/otel/trace"

	"github.com/ridgeline-labs/termflow/internal/domain/errors"
	"github.com/ridgeline-labs/termflow/internal/infrastructure/monitoring"
	"github.com/ridgeline-labs/termflow/internal/orchestrator"
)

// Config tunes the runtime's tick behavior.
type Config struct {
	Orchestrator            orchestrator.Config
	AutoAssign              bool
	AutoExecute             bool
	ApprovalTimeoutInterval time.Duration
	MaxExecutionsPerTick    int
}

// DefaultConfig returns the runtime's documented defaults.
func DefaultConfig(orch orchestrator.Config) Config {
	return Config{
		Orchestrator:            orch,
		AutoAssign:              true,
		AutoExecute:             true,
		ApprovalTimeoutInterval: time.Second,
		MaxExecutionsPerTick:    10,
	}
}

// TickResult summarizes the bookkeeping performed by one tick() call.
type TickResult struct {
	Assignments       int
	ExecutionsStarted int
	Completions       int
	ApprovalTimeouts  int
	Errors            []string
}

// HadActivity reports whether anything happened this tick.
func (r TickResult) HadActivity() bool {
	return r.Assignments > 0 || r.ExecutionsStarted > 0 || r.Completions > 0 || r.ApprovalTimeouts > 0
}

// HadErrors reports whether this tick recorded any errors.
func (r TickResult) HadErrors() bool { return len(r.Errors) > 0 }

// CompletionRecord is a durable summary of one finished execution, kept
// in a bounded ring for recent-history queries.
type CompletionRecord struct {
	ExecutionID string
	AgentID     string
	CommandID   string
	ExitCode    int
	Success     bool
	CompletedAt time.Time
}

const maxRecentCompletions = 100

// AgentRuntime is a thin, single-owner driver over an Orchestrator.
type AgentRuntime struct {
	orch         *orchestrator.Orchestrator
	cfg          Config
	callback     CompletionCallback
	tickObserver TickObserver

	lastTimeoutCheck  time.Time
	recentCompletions []CompletionRecord
	executionSpans    map[string]otrace.Span
}

// New returns an AgentRuntime over orch. A nil callback is replaced
// with NullCompletionCallback; a nil observer is replaced with
// NullTickObserver.
func New(orch *orchestrator.Orchestrator, cfg Config, callback CompletionCallback) *AgentRuntime {
	if callback == nil {
		callback = NullCompletionCallback{}
	}
	return &AgentRuntime{
		orch:             orch,
		cfg:              cfg,
		callback:         callback,
		tickObserver:     NullTickObserver{},
		lastTimeoutCheck: time.Now(),
		executionSpans:   make(map[string]otrace.Span),
	}
}

// WithTickObserver attaches obs as the runtime's TickObserver, replacing
// any previously configured one. A nil obs restores NullTickObserver.
func (r *AgentRuntime) WithTickObserver(obs TickObserver) *AgentRuntime {
	if obs == nil {
		obs = NullTickObserver{}
	}
	r.tickObserver = obs
	return r
}

// Tick advances the state machines by one pass: completions are
// processed before timeouts, timeouts before auto-assign, auto-assign
// before auto-execute. It opens an otel span covering the whole pass
// and notifies the configured TickObserver once the pass completes.
func (r *AgentRuntime) Tick(ctx context.Context) TickResult {
	ctx, span := monitoring.StartTickSpan(ctx)
	defer span.End()

	var result TickResult

	result.Completions = r.pollCompletions(ctx)

	if time.Since(r.lastTimeoutCheck) >= r.cfg.ApprovalTimeoutInterval {
		result.ApprovalTimeouts = r.orch.ProcessApprovalTimeouts(r.cfg.ApprovalTimeoutInterval)
		r.lastTimeoutCheck = time.Now()
	}

	if r.cfg.AutoAssign {
		assigned := r.orch.AutoAssign()
		result.Assignments = len(assigned)
		for _, a := range assigned {
			r.callback.OnCommandAssigned(a.AgentID, a.CommandID)
		}
	}

	if r.cfg.AutoExecute {
		started, errs := r.autoExecute(ctx)
		result.ExecutionsStarted = started
		result.Errors = errs
	}

	r.tickObserver.OnTick(result)

	return result
}

func (r *AgentRuntime) pollCompletions(ctx context.Context) int {
	completions := r.orch.PollExecutions()
	for _, c := range completions {
		rec := CompletionRecord{
			ExecutionID: c.ExecutionID,
			AgentID:     c.AgentID,
			CommandID:   c.CommandID,
			ExitCode:    c.ExitCode,
			Success:     c.Success,
			CompletedAt: time.Now(),
		}
		r.recentCompletions = append(r.recentCompletions, rec)
		if len(r.recentCompletions) > maxRecentCompletions {
			r.recentCompletions = r.recentCompletions[1:]
		}
		r.callback.OnCompletion(c.ExecutionID, c.ExitCode, c.Success, c.AgentID, c.CommandID)
		r.tickObserver.OnCompletion(rec)

		if span, ok := r.executionSpans[c.ExecutionID]; ok {
			span.End()
			delete(r.executionSpans, c.ExecutionID)
		}
	}
	return len(completions)
}

func (r *AgentRuntime) autoExecute(ctx context.Context) (int, []string) {
	started := 0
	var errs []string
	for _, agentID := range r.orch.AssignedAgentIDs() {
		if started >= r.cfg.MaxExecutionsPerTick {
			break
		}
		exec, err := r.orch.BeginExecution(agentID)
		if err != nil {
			errs = append(errs, err.Error())
			if agent, ok := r.orch.Agent(agentID); ok {
				r.callback.OnExecutionFailed(agentID, agent.CurrentCommand, err)
			}
			log.Warn().Err(err).Str("agent_id", agentID).Msg("failed to start execution")
			continue
		}
		started++
		_, execSpan := monitoring.StartExecutionSpan(ctx, exec.ID, exec.AgentID, exec.CommandID)
		r.executionSpans[exec.ID] = execSpan
		r.callback.OnExecutionStarted(exec.ID, exec.AgentID, exec.CommandID)
	}
	return started, errs
}

// SpawnAgent registers a new agent on the orchestrator and fires the
// OnAgentSpawned callback.
func (r *AgentRuntime) SpawnAgent(caps []orchestrator.Capability) (*orchestrator.Agent, error) {
	agent, err := r.orch.SpawnAgent(caps)
	if err != nil {
		return nil, err
	}
	r.callback.OnAgentSpawned(agent.ID)
	return agent, nil
}

// QueueCommand enqueues cmd on the orchestrator and fires the
// OnCommandQueued callback.
func (r *AgentRuntime) QueueCommand(cmd *orchestrator.Command) error {
	if err := r.orch.QueueCommand(cmd); err != nil {
		return err
	}
	r.callback.OnCommandQueued(cmd.ID)
	return nil
}

// RecentCompletions returns the bounded ring of recent completion
// records, oldest first.
func (r *AgentRuntime) RecentCompletions() []CompletionRecord {
	out := make([]CompletionRecord, len(r.recentCompletions))
	copy(out, r.recentCompletions)
	return out
}

// SubmitAndWaitForAssignment queues cmd and ticks until some agent
// reports it as its current command, or maxTicks is exhausted.
func (r *AgentRuntime) SubmitAndWaitForAssignment(ctx context.Context, cmd *orchestrator.Command, maxTicks int) (string, error) {
	if err := r.QueueCommand(cmd); err != nil {
		return "", err
	}
	for i := 0; i < maxTicks; i++ {
		r.Tick(ctx)
		for _, agentID := range r.orch.AssignedAgentIDs() {
			if agent, ok := r.orch.Agent(agentID); ok && agent.CurrentCommand == cmd.ID {
				return agentID, nil
			}
		}
	}
	return "", errors.NewValidationError("assignment", "no capable agents accepted the command within the tick budget")
}

// RunUntilComplete ticks while any execution is running, accumulating
// TickResults, and errors if executions are still running after
// maxTicks.
func (r *AgentRuntime) RunUntilComplete(ctx context.Context, maxTicks int) ([]TickResult, error) {
	var results []TickResult
	for i := 0; i < maxTicks; i++ {
		res := r.Tick(ctx)
		results = append(results, res)
		if r.orch.RunningCount() == 0 {
			return results, nil
		}
	}
	if r.orch.RunningCount() > 0 {
		return results, errors.NewStateTransitionError("runtime", "Running", "MaxTicksExceeded")
	}
	return results, nil
}
