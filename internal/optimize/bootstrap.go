package optimize

import (
	"context"

	"github.com/ridgeline-labs/termflow/internal/domain/errors"
	n "github.com/ridgeline-labs/termflow/internal/node"
	"github.com/ridgeline-labs/termflow/internal/promptx"
)

// BootstrapFewShot is the baseline per-node optimizer: it runs a node
// against every trainset example, keeps the runs the metric judges
// successful, and installs them as the node's few-shot demo pool.
// Because installed demos change the prompt, it repeats the pass up to
// MaxIterations times, stopping once the average trainset score stops
// improving by MinImprovement.
type BootstrapFewShot struct {
	config OptimizerConfig
}

// NewBootstrapFewShot returns a BootstrapFewShot tuned by config.
func NewBootstrapFewShot(config OptimizerConfig) *BootstrapFewShot {
	return &BootstrapFewShot{config: config}
}

type scoredExample struct {
	example promptx.Example
	score   float64
}

// Optimize runs node against trainset, installs the successful runs as
// demos, and repeats while the average score keeps improving. The
// report carries the first pass's average as InitialScore and the best
// pass's average as FinalScore.
func (b *BootstrapFewShot) Optimize(ctx context.Context, node nodeRunner, trainset []map[string]any, metric NodeMetric) (OptimizationReport, error) {
	if metric == nil {
		return OptimizationReport{}, errors.NewValidationError("metric", "BootstrapFewShot requires a non-nil metric")
	}
	if len(trainset) == 0 {
		return OptimizationReport{}, nil
	}

	maxIterations := b.config.MaxIterations
	if maxIterations < 1 {
		maxIterations = 1
	}

	var initialScore, bestScore float64
	iterations := 0

	for iter := 0; iter < maxIterations; iter++ {
		candidates, avg, err := b.runPass(ctx, node, trainset, metric)
		if err != nil {
			return OptimizationReport{}, err
		}
		iterations++

		if iter == 0 {
			initialScore = avg
			bestScore = avg
		}

		b.installDemos(node, candidates)

		if iter > 0 {
			if avg-bestScore < b.config.MinImprovement {
				if avg > bestScore {
					bestScore = avg
				}
				break
			}
			bestScore = avg
		}
	}

	return OptimizationReport{
		InitialScore: initialScore,
		FinalScore:   bestScore,
		Iterations:   iterations,
	}, nil
}

// runPass executes node on every trainset example with its current
// demos, returning the successful runs and the pass's average score.
// Examples the node cannot validate or execute score zero and are
// skipped as demo candidates.
func (b *BootstrapFewShot) runPass(ctx context.Context, node nodeRunner, trainset []map[string]any, metric NodeMetric) ([]scoredExample, float64, error) {
	var candidates []scoredExample
	var total float64

	for _, example := range trainset {
		input := n.NodeInput{Data: cloneMap(example)}
		if err := node.Validate(input); err != nil {
			continue
		}
		output, err := node.Execute(ctx, input)
		if err != nil {
			continue
		}
		predicted, ok := output.Data.(map[string]any)
		if !ok {
			continue
		}
		score := metric(example, predicted)
		total += score
		if score < b.config.SuccessThreshold {
			continue
		}
		ex := promptx.NewExample()
		for k, v := range example {
			ex.WithField(k, v)
		}
		for k, v := range predicted {
			if _, exists := example[k]; !exists {
				ex.WithField(k, v)
			}
		}
		candidates = append(candidates, scoredExample{example: *ex, score: score})
	}

	return candidates, total / float64(len(trainset)), nil
}

// installDemos replaces node's demo pool with the highest-scoring
// candidates, capped at MaxFewShotExamples. Ties keep trainset order:
// candidates arrive in that order and the sort is stable for equal
// scores.
func (b *BootstrapFewShot) installDemos(node nodeRunner, candidates []scoredExample) {
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].score > candidates[j-1].score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	limit := b.config.MaxFewShotExamples
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}

	demos := make([]promptx.Example, 0, limit)
	for i := 0; i < limit; i++ {
		demos = append(demos, candidates[i].example)
	}
	node.SetDemos(demos)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
