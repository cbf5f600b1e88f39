package runtime

import (
	"github.com/ridgeline-labs/termflow/internal/infrastructure/monitoring"
	"github.com/ridgeline-labs/termflow/internal/orchestrator"
)

// MetricsObserver feeds a RuntimeMetrics collector from the tick loop:
// counters from each TickResult, pool gauges read off the orchestrator
// after every pass. Both happen on the runtime's owner goroutine, so
// reading the single-owner orchestrator here is safe.
type MetricsObserver struct {
	orch    *orchestrator.Orchestrator
	metrics *monitoring.RuntimeMetrics
}

// NewMetricsObserver creates a MetricsObserver over orch and metrics.
func NewMetricsObserver(orch *orchestrator.Orchestrator, metrics *monitoring.RuntimeMetrics) *MetricsObserver {
	return &MetricsObserver{orch: orch, metrics: metrics}
}

var _ TickObserver = (*MetricsObserver)(nil)

func (mo *MetricsObserver) OnTick(result TickResult) {
	mo.metrics.ObserveTick(result.Assignments, result.ExecutionsStarted, result.Completions, result.ApprovalTimeouts)
	mo.metrics.SetPoolSizes(mo.orch.AgentCount(), mo.orch.QueueLen(), mo.orch.RunningCount(), mo.orch.TerminalsInUse())
}

func (mo *MetricsObserver) OnCompletion(rec CompletionRecord) {
	mo.metrics.ObserveCompletion(rec.Success)
}
