package engine

import (
	e "github.com/ridgeline-labs/termflow/internal/edge"
	n "github.com/ridgeline-labs/termflow/internal/node"
)

type ExecutorBuilder struct {
	g     *Graph
	nodes *n.Registry
	edges []e.Edge
	err   error
}

func NewExecutorBuilder() *ExecutorBuilder {
	return &ExecutorBuilder{g: NewGraph(), nodes: n.NewRegistry()}
}

func (b *ExecutorBuilder) Graph(g *Graph) *ExecutorBuilder { b.g = g; return b }

func (b *ExecutorBuilder) WithNode(node n.Node) *ExecutorBuilder {
	if err := b.nodes.Register(node); err != nil && b.err == nil {
		b.err = err
		return b
	}
	b.g.AddNode(node.ID())
	return b
}

func (b *ExecutorBuilder) WithEdge(edge e.Edge) *ExecutorBuilder {
	b.edges = append(b.edges, edge)
	b.g.AddEdge(edge.From(), edge.To())
	return b
}

// Build returns the assembled Executor; registration errors collected
// along the way surface here.
func (b *ExecutorBuilder) Build() (*Executor, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewExecutor(b.g, b.nodes, b.edges), nil
}
