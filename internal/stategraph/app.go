package stategraph

import (
	"context"

	"github.com/ridgeline-labs/termflow/internal/domain/errors"
	n "github.com/ridgeline-labs/termflow/internal/node"
)

// App is a compiled StateGraph, ready to invoke.
type App struct {
	graph *StateGraph
}

// Result is the outcome of one App.Invoke call.
type Result struct {
	FinalState State
}

// Invoke runs the graph from its entry point, threading state through
// each node's patch until a node has no outgoing edge that fires (or
// explicitly routes to End).
func (a *App) Invoke(ctx context.Context, initial State) (Result, error) {
	state := initial.Clone()
	current := a.graph.entry
	visited := make(map[string]bool, len(a.graph.nodes))

	for current != "" && current != End {
		if visited[current] {
			return Result{}, errors.NewStateTransitionError("StateGraph", current, "revisited (cycle)")
		}
		visited[current] = true

		node, ok := a.graph.nodes[current]
		if !ok {
			return Result{}, errors.NewNotFoundError("node", current)
		}

		input := n.NodeInput{Data: map[string]any(state)}
		if err := node.Validate(input); err != nil {
			return Result{}, err
		}
		output, err := node.Execute(ctx, input)
		if err != nil {
			return Result{}, errors.NewNodeExecutionError("", "", current, "stategraph", 1, err.Error(), err, false)
		}
		if patch, ok := output.Data.(map[string]any); ok {
			state.Merge(patch)
		}

		next, err := a.next(ctx, current, output)
		if err != nil {
			return Result{}, err
		}
		current = next
	}

	return Result{FinalState: state}, nil
}

// next evaluates current's outgoing edges in registration order and
// returns the first one whose Traverse fires, or "" (End) if none do.
func (a *App) next(ctx context.Context, current string, output n.NodeOutput) (string, error) {
	for _, e := range a.graph.edgesFrom(current) {
		proceed, _, err := e.Traverse(ctx, output)
		if err != nil {
			return "", err
		}
		if proceed {
			return e.To(), nil
		}
	}
	return "", nil
}
