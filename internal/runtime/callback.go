// Package runtime drives the Orchestrator's state machines forward one
// tick at a time, on a single owner goroutine.
package runtime

// CompletionCallback receives lifecycle notifications as the runtime
// ticks. Embed NullCompletionCallback to implement only the methods
// you care about.
type CompletionCallback interface {
	OnAgentSpawned(agentID string)
	OnCommandQueued(commandID string)
	OnCommandAssigned(agentID, commandID string)
	OnExecutionStarted(executionID, agentID, commandID string)
	OnExecutionFailed(agentID, commandID string, err error)
	OnCompletion(executionID string, exitCode int, success bool, agentID, commandID string)
}

// NullCompletionCallback implements CompletionCallback with no-ops, so
// callers that only care about a subset of events can embed it instead
// of nil-checking at every call site.
type NullCompletionCallback struct{}

func (NullCompletionCallback) OnAgentSpawned(string)                          {}
func (NullCompletionCallback) OnCommandQueued(string)                         {}
func (NullCompletionCallback) OnCommandAssigned(string, string)               {}
func (NullCompletionCallback) OnExecutionStarted(string, string, string)      {}
func (NullCompletionCallback) OnExecutionFailed(string, string, error)        {}
func (NullCompletionCallback) OnCompletion(string, int, bool, string, string) {}

// TickObserver receives a notification after every Tick() pass
// completes, and after every individual completion is recorded during
// that pass. Unlike CompletionCallback (which fires per-event, inline
// with processing), TickObserver.OnTick fires once per Tick() call
// with the pass's full TickResult, making it the natural hook for
// publishing tick-level events (e.g. over a websocket hub).
type TickObserver interface {
	OnTick(result TickResult)
	OnCompletion(rec CompletionRecord)
}

// NullTickObserver implements TickObserver with no-ops.
type NullTickObserver struct{}

func (NullTickObserver) OnTick(TickResult)             {}
func (NullTickObserver) OnCompletion(CompletionRecord) {}

// TickObservers fans every notification out to each observer in order,
// so a runtime can feed a websocket hub and a metrics collector from
// the same tick loop.
type TickObservers []TickObserver

func (obs TickObservers) OnTick(result TickResult) {
	for _, o := range obs {
		o.OnTick(result)
	}
}

func (obs TickObservers) OnCompletion(rec CompletionRecord) {
	for _, o := range obs {
		o.OnCompletion(rec)
	}
}
