package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the package-wide otel tracer used for per-tick,
// per-Execution, per-candidate, and per-iteration spans. A caller that
// never configures a TracerProvider gets otel's no-op tracer, so these
// calls are always safe even outside a fully wired deployment.
var tracer = otel.Tracer("github.com/ridgeline-labs/termflow/internal/infrastructure/monitoring")

// StartTickSpan opens a span covering one AgentRuntime.Tick() call.
func StartTickSpan(ctx context.Context) (context.Context, trace.Span) {
	return tracer.Start(ctx, "runtime.tick")
}

// StartExecutionSpan opens a span covering one orchestrator Execution,
// from BeginExecution through its terminal PollExecutions result.
func StartExecutionSpan(ctx context.Context, executionID, agentID, commandID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "orchestrator.execution",
		trace.WithAttributes(
			attribute.String("execution.id", executionID),
			attribute.String("agent.id", agentID),
			attribute.String("command.id", commandID),
		),
	)
}

// StartCandidateEvaluationSpan opens a span covering one COPROv2
// candidate's evaluateCandidate call.
func StartCandidateEvaluationSpan(ctx context.Context, depth int, instruction string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "optimize.copro.evaluate_candidate",
		trace.WithAttributes(
			attribute.Int("copro.depth", depth),
			attribute.Int("copro.instruction_len", len(instruction)),
		),
	)
}

// StartGraphOptimizerIterationSpan opens a span covering one
// GraphOptimizer coordinate-descent iteration.
func StartGraphOptimizerIterationSpan(ctx context.Context, iter int, strategy string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "optimize.graph_optimizer.iteration",
		trace.WithAttributes(
			attribute.Int("optimizer.iteration", iter),
			attribute.String("optimizer.strategy", strategy),
		),
	)
}

// ExecutionTrace is an in-memory, append-only record of one agent
// execution's lifecycle, suitable for debugging and export. Unlike the
// otel spans above it survives the run and can be serialized.
type ExecutionTrace struct {
	ExecutionID string
	AgentID     string
	Events      []*TraceEvent
	mu          sync.Mutex
}

// TraceEvent is a single event in an execution trace. Err carries the
// error text (not the error value) so a trace round-trips through
// serialization.
type TraceEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	EventType string         `json:"event_type"`
	CommandID string         `json:"command_id,omitempty"`
	Stage     string         `json:"stage,omitempty"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Err       string         `json:"error,omitempty"`
}

// NewExecutionTrace creates a trace for one execution.
func NewExecutionTrace(executionID, agentID string) *ExecutionTrace {
	return &ExecutionTrace{
		ExecutionID: executionID,
		AgentID:     agentID,
		Events:      make([]*TraceEvent, 0),
	}
}

// AddEvent appends an event to the trace.
func (t *ExecutionTrace) AddEvent(eventType, commandID, stage, message string, data map[string]any, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	event := &TraceEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		CommandID: commandID,
		Stage:     stage,
		Message:   message,
		Data:      data,
	}
	if err != nil {
		event.Err = err.Error()
	}
	t.Events = append(t.Events, event)
}

// GetEvents returns a copy of all events in the trace.
func (t *ExecutionTrace) GetEvents() []*TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	events := make([]*TraceEvent, len(t.Events))
	copy(events, t.Events)
	return events
}

// GetDuration returns the time elapsed between the first and last
// recorded event. It returns 0 for an empty or single-event trace.
func (t *ExecutionTrace) GetDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.Events) < 2 {
		return 0
	}
	return t.Events[len(t.Events)-1].Timestamp.Sub(t.Events[0].Timestamp)
}

// GetEventsByType returns every event matching eventType, in order.
func (t *ExecutionTrace) GetEventsByType(eventType string) []*TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	var matched []*TraceEvent
	for _, event := range t.Events {
		if event.EventType == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

// GetErrorEvents returns every event that recorded an error.
func (t *ExecutionTrace) GetErrorEvents() []*TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	var matched []*TraceEvent
	for _, event := range t.Events {
		if event.Err != "" {
			matched = append(matched, event)
		}
	}
	return matched
}

// HasErrors reports whether any event in the trace recorded an error.
func (t *ExecutionTrace) HasErrors() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, event := range t.Events {
		if event.Err != "" {
			return true
		}
	}
	return false
}

// TraceSummary is a compact, serializable rollup of an ExecutionTrace.
type TraceSummary struct {
	ExecutionID string
	AgentID     string
	TotalEvents int
	ErrorCount  int
	CommandIDs  []string
	EventTypes  map[string]int
	Duration    time.Duration
}

// GetSummary computes a TraceSummary over the trace's current events.
func (t *ExecutionTrace) GetSummary() TraceSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := TraceSummary{
		ExecutionID: t.ExecutionID,
		AgentID:     t.AgentID,
		TotalEvents: len(t.Events),
		EventTypes:  make(map[string]int),
	}

	seenCommands := make(map[string]bool)
	for _, event := range t.Events {
		summary.EventTypes[event.EventType]++
		if event.Err != "" {
			summary.ErrorCount++
		}
		if event.CommandID != "" && !seenCommands[event.CommandID] {
			seenCommands[event.CommandID] = true
			summary.CommandIDs = append(summary.CommandIDs, event.CommandID)
		}
	}

	if len(t.Events) >= 2 {
		summary.Duration = t.Events[len(t.Events)-1].Timestamp.Sub(t.Events[0].Timestamp)
	}

	return summary
}

// String returns a human-readable rendering of the trace.
func (t *ExecutionTrace) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := fmt.Sprintf("Execution Trace [%s]\n", t.ExecutionID)
	result += fmt.Sprintf("Agent: %s\n", t.AgentID)
	result += fmt.Sprintf("Events: %d\n\n", len(t.Events))

	for i, event := range t.Events {
		result += fmt.Sprintf("%d. [%s] %s", i+1, event.Timestamp.Format("15:04:05.000"), event.EventType)
		if event.CommandID != "" {
			result += fmt.Sprintf(" command=%s", event.CommandID)
		}
		if event.Stage != "" {
			result += fmt.Sprintf(" stage=%s", event.Stage)
		}
		if event.Message != "" {
			result += fmt.Sprintf(" - %s", event.Message)
		}
		if event.Err != "" {
			result += fmt.Sprintf(" [ERROR: %s]", event.Err)
		}
		result += "\n"
	}

	return result
}
