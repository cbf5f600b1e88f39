package optimize

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ridgeline-labs/termflow/internal/domain/errors"
	"github.com/ridgeline-labs/termflow/internal/infrastructure/monitoring"
	"github.com/ridgeline-labs/termflow/internal/stategraph"
)

// OptimizationStrategy selects how GraphOptimizer coordinates
// per-node optimization against the graph's global metric.
type OptimizationStrategy int

const (
	// StrategySequential optimizes each node once, in topological
	// order, against its own per-node metric. Fast; misses
	// interactions between nodes.
	StrategySequential OptimizationStrategy = iota
	// StrategyJoint runs coordinate descent: repeatedly optimize
	// each node and re-score the global end-to-end metric. A mutated
	// node is kept even when the global score does not improve.
	StrategyJoint
	// StrategyAlternating interleaves a Sequential pass and a Joint
	// pass each iteration.
	StrategyAlternating
)

// GraphOptimizer optimizes every Optimizable node in a StateGraph
// end-to-end, using a GlobalMetricFn to score the whole graph's
// output rather than judging nodes in isolation.
type GraphOptimizer struct {
	globalMetric   GlobalMetricFn
	strategy       OptimizationStrategy
	maxIterations  int
	minImprovement float64
}

// NewGraphOptimizer returns a GraphOptimizer with the documented
// defaults: Joint strategy, 10 max iterations, 0.01 min improvement.
func NewGraphOptimizer() *GraphOptimizer {
	return &GraphOptimizer{
		strategy:       StrategyJoint,
		maxIterations:  10,
		minImprovement: 0.01,
	}
}

func (g *GraphOptimizer) WithGlobalMetric(metric GlobalMetricFn) *GraphOptimizer {
	g.globalMetric = metric
	return g
}

func (g *GraphOptimizer) WithStrategy(strategy OptimizationStrategy) *GraphOptimizer {
	g.strategy = strategy
	return g
}

func (g *GraphOptimizer) WithMaxIterations(maxIterations int) *GraphOptimizer {
	g.maxIterations = maxIterations
	return g
}

func (g *GraphOptimizer) WithMinImprovement(minImprovement float64) *GraphOptimizer {
	g.minImprovement = minImprovement
	return g
}

// Report summarizes one Optimize run: the global metric before and
// after the strategy's passes.
type Report struct {
	InitialScore float64
	FinalScore   float64
}

// Improvement returns the final-minus-initial score delta.
func (r Report) Improvement() float64 { return r.FinalScore - r.InitialScore }

// Optimize runs the configured strategy over graph's optimizable
// nodes and returns the graph with those nodes tuned in place (the
// same *stategraph.StateGraph is mutated and returned, matching the
// upstream's node-ownership model: there is no cheap way to clone a
// node, so Joint-mode non-improving passes are kept rather than
// reverted). A zero maxIterations run evaluates the graph once and
// returns it unchanged with FinalScore == InitialScore.
func (g *GraphOptimizer) Optimize(ctx context.Context, graph *stategraph.StateGraph, trainset []map[string]any) (*stategraph.StateGraph, Report, error) {
	if g.globalMetric == nil {
		return nil, Report{}, errors.NewValidationError("global_metric", "global metric not set; use WithGlobalMetric")
	}
	if len(trainset) == 0 {
		return nil, Report{}, errors.NewValidationError("trainset", "training set is empty")
	}

	nodeNames := graph.NodeNames()
	if len(nodeNames) == 0 {
		return nil, Report{}, errors.NewValidationError("graph", "no nodes found in graph; add nodes before optimizing")
	}

	baselineScore, err := g.evaluateGraph(ctx, graph, trainset)
	if err != nil {
		return nil, Report{}, err
	}

	if g.maxIterations <= 0 {
		return graph, Report{InitialScore: baselineScore, FinalScore: baselineScore}, nil
	}

	switch g.strategy {
	case StrategySequential:
		g.optimizeSequential(ctx, graph, trainset, nodeNames)
	case StrategyAlternating:
		g.optimizeAlternating(ctx, graph, trainset, nodeNames)
	default:
		g.optimizeJoint(ctx, graph, trainset, nodeNames)
	}

	finalScore, err := g.evaluateGraph(ctx, graph, trainset)
	if err != nil {
		return nil, Report{}, err
	}

	report := Report{InitialScore: baselineScore, FinalScore: finalScore}
	log.Info().
		Float64("initial_score", report.InitialScore).
		Float64("final_score", report.FinalScore).
		Float64("improvement", report.Improvement()).
		Msg("graph optimization finished")
	return graph, report, nil
}

// evaluateGraph compiles graph and runs every trainset example
// through it, scoring initial-vs-final state with globalMetric and
// averaging across the set.
func (g *GraphOptimizer) evaluateGraph(ctx context.Context, graph *stategraph.StateGraph, trainset []map[string]any) (float64, error) {
	app, err := graph.Compile()
	if err != nil {
		return 0, errors.NewValidationError("graph", "failed to compile graph for evaluation: "+err.Error())
	}

	var total float64
	for _, example := range trainset {
		initial := stategraph.State(example)
		result, err := app.Invoke(ctx, initial)
		if err != nil {
			return 0, errors.NewNodeExecutionError("", "", "", "GraphOptimizer", 1, "graph execution failed during evaluation", err, false)
		}
		total += g.globalMetric(example, map[string]any(result.FinalState))
	}
	return total / float64(len(trainset)), nil
}

// optimizeSequential optimizes each node once, in topological order,
// against a per-node canonical-equality metric. Nodes that aren't
// Optimizable are skipped; a node optimization failure is logged at
// debug level here and does not abort the pass.
func (g *GraphOptimizer) optimizeSequential(ctx context.Context, graph *stategraph.StateGraph, trainset []map[string]any, nodeNames []string) {
	order, ok := graph.TopologicalSort()
	if !ok {
		order = nodeNames
	}

	inSet := make(map[string]bool, len(nodeNames))
	for _, name := range nodeNames {
		inSet[name] = true
	}

	for _, name := range order {
		if !inSet[name] {
			continue
		}
		if err := g.optimizeSingleNode(ctx, graph, trainset, name); err != nil {
			log.Debug().Str("node", name).Err(err).Msg("skipping node in sequential pass")
		}
	}
}

// optimizeSingleNode runs BootstrapFewShot against name's node using
// a per-node canonical-equality metric, the sequential strategy's
// stand-in for a node-specific metric.
func (g *GraphOptimizer) optimizeSingleNode(ctx context.Context, graph *stategraph.StateGraph, trainset []map[string]any, name string) error {
	node, ok := graph.RemoveNode(name)
	if !ok {
		return errors.NewNotFoundError("node", name)
	}

	optimizable, ok := node.(Optimizable)
	if !ok {
		graph.ReplaceNode(name, node)
		return errors.NewValidationError("node", "node '"+name+"' does not implement Optimizable")
	}

	metric := CanonicalEqualityMetric(nil)
	config := OptimizerConfig{
		MaxFewShotExamples: 4,
		MaxIterations:      g.maxIterations,
		MinImprovement:     g.minImprovement,
		SuccessThreshold:   0.5,
	}

	bootstrap := NewBootstrapFewShot(config)
	_, err := bootstrap.Optimize(ctx, optimizable, trainset, metric)
	graph.ReplaceNode(name, node)
	return err
}

// optimizeJoint runs coordinate descent: each iteration, every node is
// re-optimized and the global metric re-evaluated; iteration stops
// when no node improved the global score, or improvement fell below
// minImprovement.
func (g *GraphOptimizer) optimizeJoint(ctx context.Context, graph *stategraph.StateGraph, trainset []map[string]any, nodeNames []string) error {
	currentScore, err := g.evaluateGraph(ctx, graph, trainset)
	if err != nil {
		return err
	}

	for iter := 0; iter < g.maxIterations; iter++ {
		iterCtx, iterSpan := monitoring.StartGraphOptimizerIterationSpan(ctx, iter, "joint")
		improvedAny := false

		for _, name := range nodeNames {
			improved, err := g.optimizeNodeWithGlobalMetric(iterCtx, graph, trainset, name)
			if err != nil {
				log.Debug().Str("node", name).Err(err).Msg("skipping node in joint pass")
				continue
			}
			if improved {
				improvedAny = true
			}
		}

		newScore, err := g.evaluateGraph(ctx, graph, trainset)
		if err != nil {
			iterSpan.End()
			return err
		}
		improvement := newScore - currentScore
		iterSpan.End()

		if !improvedAny || absFloat(improvement) < g.minImprovement {
			break
		}
		currentScore = newScore
	}

	return nil
}

// optimizeNodeWithGlobalMetric optimizes name's node using a
// permissive per-node metric (the real evaluation happens at the
// graph level) and reports whether the resulting graph improved the
// global metric. There is no revert mechanism: if the optimized node
// doesn't improve the global score, it is kept in place anyway, since
// nodes carry no cheap way to snapshot and restore prior state.
func (g *GraphOptimizer) optimizeNodeWithGlobalMetric(ctx context.Context, graph *stategraph.StateGraph, trainset []map[string]any, name string) (bool, error) {
	baselineScore, err := g.evaluateGraph(ctx, graph, trainset)
	if err != nil {
		return false, err
	}

	node, ok := graph.RemoveNode(name)
	if !ok {
		return false, errors.NewNotFoundError("node", name)
	}

	optimizable, ok := node.(Optimizable)
	if !ok {
		graph.ReplaceNode(name, node)
		return false, errors.NewValidationError("node", "node '"+name+"' does not implement Optimizable")
	}

	permissiveMetric := func(expected, predicted map[string]any) float64 { return 1.0 }
	config := OptimizerConfig{
		MaxFewShotExamples: 4,
		MaxIterations:      3,
		MinImprovement:     g.minImprovement,
		SuccessThreshold:   0.5,
	}

	bootstrap := NewBootstrapFewShot(config)
	if _, err := bootstrap.Optimize(ctx, optimizable, trainset, permissiveMetric); err != nil {
		graph.ReplaceNode(name, node)
		return false, err
	}
	graph.ReplaceNode(name, node)

	newScore, err := g.evaluateGraph(ctx, graph, trainset)
	if err != nil {
		return false, err
	}

	improved := newScore > baselineScore+g.minImprovement
	if !improved {
		log.Warn().
			Str("node", name).
			Float64("baseline", baselineScore).
			Float64("after", newScore).
			Msg("keeping mutated node without global improvement; nodes carry no revert contract")
	}
	return improved, nil
}

// optimizeAlternating interleaves a Sequential pass (fast, local
// improvements) and a Joint pass (slower, accounts for node
// interactions) each iteration, stopping once a round's improvement
// falls below minImprovement.
func (g *GraphOptimizer) optimizeAlternating(ctx context.Context, graph *stategraph.StateGraph, trainset []map[string]any, nodeNames []string) error {
	for iter := 0; iter < g.maxIterations; iter++ {
		g.optimizeSequential(ctx, graph, trainset, nodeNames)

		seqScore, err := g.evaluateGraph(ctx, graph, trainset)
		if err != nil {
			return err
		}

		if err := g.optimizeJoint(ctx, graph, trainset, nodeNames); err != nil {
			return err
		}

		jointScore, err := g.evaluateGraph(ctx, graph, trainset)
		if err != nil {
			return err
		}

		if absFloat(jointScore-seqScore) < g.minImprovement {
			break
		}
	}
	return nil
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
