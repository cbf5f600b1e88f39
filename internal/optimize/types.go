// Package optimize implements the workflow core's optimization
// surface: BootstrapFewShot (per-node demo bootstrapping), COPROv2
// (confidence-weighted instruction search), and GraphOptimizer
// (end-to-end coordinate-descent optimization over a stategraph.StateGraph).
package optimize

import (
	n "github.com/ridgeline-labs/termflow/internal/node"
	"github.com/ridgeline-labs/termflow/internal/promptx"
)

// NodeMetric scores a node's prediction against the expected state.
// Higher is better; both BootstrapFewShot and GraphOptimizer treat the
// arguments as full graph states (one field map in, one field map
// out) rather than a narrower per-field comparison, so a metric can
// inspect any field either side produced.
type NodeMetric func(expected, predicted map[string]any) float64

// GlobalMetricFn evaluates an entire graph run end to end: given the
// state a trainset example started from and the state App.Invoke
// produced, return a score (higher is better).
type GlobalMetricFn func(initial, final map[string]any) float64

// OptimizerConfig bounds a single node optimization run.
type OptimizerConfig struct {
	MaxFewShotExamples int
	MaxIterations      int
	MinImprovement     float64
	RandomSeed         *int64
	SuccessThreshold   float64
}

// DefaultOptimizerConfig returns a baseline tuning for
// BootstrapFewShot. GraphOptimizer's per-node passes do not use it;
// they build their own configs from the optimizer's settings.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		MaxFewShotExamples: 4,
		MaxIterations:      5,
		MinImprovement:     0.01,
		SuccessThreshold:   0.5,
	}
}

// OptimizationReport summarizes one node's optimize() run.
type OptimizationReport struct {
	InitialScore float64
	FinalScore   float64
	Iterations   int
}

// Optimizable is the capability GraphOptimizer probes for via a type
// assertion against whatever node.Node a graph holds (Go interfaces
// are structural, so any node exposing this surface qualifies without
// registering anywhere): a node with a mutable signature and demo
// pool, the surface BootstrapFewShot tunes.
type Optimizable interface {
	n.Node
	GetSignature() promptx.Signature
	SetSignature(promptx.Signature)
	GetDemos() []promptx.Example
	SetDemos([]promptx.Example)
}

// nodeRunner is an alias for the same capability, named for its use
// inside BootstrapFewShot.Optimize's signature.
type nodeRunner = Optimizable
