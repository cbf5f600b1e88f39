// Package stategraph implements StateGraph: a DAG of named nodes over
// a shared map[string]any workflow state, compiled into an App that
// can invoke the graph end to end. It is the thin state-machine layer
// GraphOptimizer and COPROv2 sit on top of: nodes are any
// internal/node.Node (LLMNode included), edges are any
// internal/edge.Edge (direct or conditional, reusing the same
// evaluation engine the DSL executor already uses).
package stategraph

import (
	"github.com/ridgeline-labs/termflow/internal/domain/errors"
	"github.com/ridgeline-labs/termflow/internal/edge"
	"github.com/ridgeline-labs/termflow/internal/engine"
	n "github.com/ridgeline-labs/termflow/internal/node"
)

// End is the sentinel destination name that terminates a graph walk.
const End = "__end__"

// State is the field map a graph run threads through every node: each
// node reads the fields it declares as inputs and returns a patch that
// is merged back in before the next node runs.
type State map[string]any

// Clone returns a shallow copy of s, the per-trainset-example isolation
// GraphOptimizer and COPROv2 need so that one example's run can't leak
// mutations into another's.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge applies patch onto s in place.
func (s State) Merge(patch map[string]any) {
	for k, v := range patch {
		s[k] = v
	}
}

// StateGraph is a DAG of named nodes and edges with a single entry
// point. It is not safe for concurrent mutation; GraphOptimizer holds
// exclusive ownership of a node (via RemoveNode/ReplaceNode) while
// optimizing it.
type StateGraph struct {
	nodes map[string]n.Node
	order []string
	edges []edge.Edge
	entry string
	g     *engine.Graph
}

// New returns an empty StateGraph.
func New() *StateGraph {
	return &StateGraph{
		nodes: make(map[string]n.Node),
		g:     engine.NewGraph(),
	}
}

// AddNode registers node under its own Name(). Re-adding a name
// replaces the previous node but does not reorder NodeNames().
func (sg *StateGraph) AddNode(node n.Node) {
	name := node.Name()
	if _, exists := sg.nodes[name]; !exists {
		sg.order = append(sg.order, name)
		sg.g.AddNode(name)
	}
	sg.nodes[name] = node
}

// AddEdge registers e, whose From()/To() must name nodes already added
// (To() may be End).
func (sg *StateGraph) AddEdge(e edge.Edge) {
	sg.edges = append(sg.edges, e)
	if e.To() != End {
		sg.g.AddEdge(e.From(), e.To())
	}
}

// SetEntryPoint designates the first node a call to App.Invoke runs.
func (sg *StateGraph) SetEntryPoint(name string) {
	sg.entry = name
}

// EntryPoint returns the configured entry point name.
func (sg *StateGraph) EntryPoint() string {
	return sg.entry
}

// NodeNames returns node names in insertion order.
func (sg *StateGraph) NodeNames() []string {
	out := make([]string, len(sg.order))
	copy(out, sg.order)
	return out
}

// TopologicalSort returns a topological ordering of the graph's nodes,
// or ok=false if the graph contains a cycle.
func (sg *StateGraph) TopologicalSort() ([]string, bool) {
	order, err := sg.g.TopologicalSort()
	if err != nil {
		return nil, false
	}
	return order, true
}

// RemoveNode takes exclusive ownership of the named node, removing it
// from the graph so it can be mutated (e.g. by an optimizer) without
// another caller observing a half-updated node. Edges referencing the
// name are left in place; ReplaceNode restores them to a working
// state.
func (sg *StateGraph) RemoveNode(name string) (n.Node, bool) {
	node, ok := sg.nodes[name]
	if !ok {
		return nil, false
	}
	delete(sg.nodes, name)
	return node, true
}

// ReplaceNode reinserts node under name, e.g. after RemoveNode and an
// in-place optimization pass.
func (sg *StateGraph) ReplaceNode(name string, node n.Node) {
	if _, exists := sg.nodes[name]; !exists {
		known := false
		for _, existing := range sg.order {
			if existing == name {
				known = true
				break
			}
		}
		if !known {
			sg.order = append(sg.order, name)
			sg.g.AddNode(name)
		}
	}
	sg.nodes[name] = node
}

// Clone returns a StateGraph sharing the same node and edge values
// (nodes are not deep-copied: optimization intentionally mutates node
// state in place, so evaluating a "clone" still observes the live
// node). This mirrors the upstream's own documented limitation that
// node handles carry no clone contract.
func (sg *StateGraph) Clone() *StateGraph {
	clone := New()
	for _, name := range sg.order {
		if node, ok := sg.nodes[name]; ok {
			clone.AddNode(node)
		}
	}
	clone.edges = append(clone.edges, sg.edges...)
	clone.entry = sg.entry
	return clone
}

// Compile validates the entry point and returns an App that can
// invoke the graph.
func (sg *StateGraph) Compile() (*App, error) {
	if sg.entry == "" {
		return nil, errors.NewValidationError("entry_point", "StateGraph has no entry point set")
	}
	if _, ok := sg.nodes[sg.entry]; !ok {
		return nil, errors.NewValidationError("entry_point", "entry point node not found: "+sg.entry)
	}
	return &App{graph: sg}, nil
}

func (sg *StateGraph) edgesFrom(name string) []edge.Edge {
	var out []edge.Edge
	for _, e := range sg.edges {
		if e.From() == name {
			out = append(out, e)
		}
	}
	return out
}
