package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RuntimeMetrics exposes the orchestrator and runtime counters as a
// prometheus.Collector: pool gauges updated once per tick and
// monotonic counters for tick outcomes. The optimizer side contributes
// a histogram of COPROv2 candidate scores.
//
// Methods take plain ints/bools rather than runtime types because the
// runtime package imports this one for its tracing spans.
type RuntimeMetrics struct {
	agents         prometheus.Gauge
	queueDepth     prometheus.Gauge
	running        prometheus.Gauge
	terminalsInUse prometheus.Gauge

	assignments       prometheus.Counter
	executionsStarted prometheus.Counter
	approvalTimeouts  prometheus.Counter
	completions       *prometheus.CounterVec

	candidateScores prometheus.Histogram
}

// NewRuntimeMetrics creates an unregistered RuntimeMetrics; register
// it with prometheus.MustRegister (or a custom Registry) to scrape it.
func NewRuntimeMetrics() *RuntimeMetrics {
	return &RuntimeMetrics{
		agents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "termflow",
			Name:      "agents",
			Help:      "Number of registered agents.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "termflow",
			Name:      "queue_depth",
			Help:      "Commands waiting in the orchestrator queue.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "termflow",
			Name:      "executions_running",
			Help:      "Executions currently holding a pane.",
		}),
		terminalsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "termflow",
			Name:      "terminals_in_use",
			Help:      "Panes currently allocated from the terminal budget.",
		}),
		assignments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "termflow",
			Name:      "assignments_total",
			Help:      "Commands assigned to agents across all ticks.",
		}),
		executionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "termflow",
			Name:      "executions_started_total",
			Help:      "Executions started across all ticks.",
		}),
		approvalTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "termflow",
			Name:      "approval_timeouts_total",
			Help:      "Approval requests rejected by age.",
		}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "termflow",
			Name:      "completions_total",
			Help:      "Executions that reached a terminal state.",
		}, []string{"success"}),
		candidateScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "termflow",
			Name:      "copro_candidate_score",
			Help:      "Confidence-weighted scores of evaluated COPROv2 candidates.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *RuntimeMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.agents.Describe(ch)
	m.queueDepth.Describe(ch)
	m.running.Describe(ch)
	m.terminalsInUse.Describe(ch)
	m.assignments.Describe(ch)
	m.executionsStarted.Describe(ch)
	m.approvalTimeouts.Describe(ch)
	m.completions.Describe(ch)
	m.candidateScores.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *RuntimeMetrics) Collect(ch chan<- prometheus.Metric) {
	m.agents.Collect(ch)
	m.queueDepth.Collect(ch)
	m.running.Collect(ch)
	m.terminalsInUse.Collect(ch)
	m.assignments.Collect(ch)
	m.executionsStarted.Collect(ch)
	m.approvalTimeouts.Collect(ch)
	m.completions.Collect(ch)
	m.candidateScores.Collect(ch)
}

// ObserveTick accumulates one tick's counters.
func (m *RuntimeMetrics) ObserveTick(assignments, executionsStarted, completions, approvalTimeouts int) {
	m.assignments.Add(float64(assignments))
	m.executionsStarted.Add(float64(executionsStarted))
	m.approvalTimeouts.Add(float64(approvalTimeouts))
}

// ObserveCompletion records one execution reaching a terminal state.
func (m *RuntimeMetrics) ObserveCompletion(success bool) {
	label := "false"
	if success {
		label = "true"
	}
	m.completions.WithLabelValues(label).Inc()
}

// SetPoolSizes updates the pool gauges; called once per tick from the
// runtime's owner goroutine.
func (m *RuntimeMetrics) SetPoolSizes(agents, queueDepth, running, terminalsInUse int) {
	m.agents.Set(float64(agents))
	m.queueDepth.Set(float64(queueDepth))
	m.running.Set(float64(running))
	m.terminalsInUse.Set(float64(terminalsInUse))
}

// ObserveCandidateScore records one COPROv2 candidate's
// confidence-weighted score.
func (m *RuntimeMetrics) ObserveCandidateScore(score float64) {
	m.candidateScores.Observe(score)
}
