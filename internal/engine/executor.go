package engine

import (
	"context"

	"github.com/ridgeline-labs/termflow/internal/domain/errors"
	e "github.com/ridgeline-labs/termflow/internal/edge"
	n "github.com/ridgeline-labs/termflow/internal/node"
)

type ExecutionResult struct {
	Outputs map[string]n.NodeOutput
}

// Executor runs a DAG of registered nodes in topological order,
// propagating each node's output along its outgoing edges as the next
// node's input.
type Executor struct {
	graph *Graph
	nodes *n.Registry
	edges []e.Edge
}

func NewExecutor(graph *Graph, nodes *n.Registry, edges []e.Edge) *Executor {
	return &Executor{graph: graph, nodes: nodes, edges: edges}
}

func (ex *Executor) Execute(ctx context.Context, inputs map[string]n.NodeInput) (ExecutionResult, error) {
	if err := ex.graph.ValidateDAG(); err != nil {
		return ExecutionResult{}, err
	}
	order, err := ex.graph.TopologicalSort()
	if err != nil {
		return ExecutionResult{}, err
	}
	outputs := make(map[string]n.NodeOutput)
	for _, nodeID := range order {
		node, ok := ex.nodes.GetByID(nodeID)
		if !ok {
			return ExecutionResult{}, errors.NewNotFoundError("node", nodeID)
		}
		input := inputs[nodeID]
		if err := node.Validate(input); err != nil {
			return ExecutionResult{}, err
		}
		out, err := node.Execute(ctx, input)
		if err != nil {
			return ExecutionResult{}, err
		}
		outputs[nodeID] = out
		// propagate along outgoing edges
		for _, ed := range ex.edges {
			if ed.From() != nodeID {
				continue
			}
			proceed, transformed, err := ed.Traverse(ctx, out)
			if err != nil {
				return ExecutionResult{}, err
			}
			if !proceed {
				continue
			}
			inputs[ed.To()] = transformed
		}
	}
	return ExecutionResult{Outputs: outputs}, nil
}
