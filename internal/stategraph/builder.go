package stategraph

import (
	"github.com/ridgeline-labs/termflow/internal/edge"
	"github.com/ridgeline-labs/termflow/internal/llmnode"
	"github.com/ridgeline-labs/termflow/internal/promptx"
	"github.com/ridgeline-labs/termflow/internal/selector"
)

// Builder assembles a StateGraph with the fluent surface §6 describes:
// add_llm_node(name).with_signature(...).with_llm(llm).build(),
// add_edge(from, to), set_entry_point(name).
type Builder struct {
	graph *StateGraph
}

// NewBuilder returns a Builder over a fresh StateGraph.
func NewBuilder() *Builder {
	return &Builder{graph: New()}
}

// AddLLMNode starts building an LLMNode registered under name.
func (b *Builder) AddLLMNode(name string) *LLMNodeBuilder {
	return &LLMNodeBuilder{parent: b, id: name, name: name}
}

// AddEdge adds an unconditional edge from -> to (to may be End).
func (b *Builder) AddEdge(from, to string) *Builder {
	b.graph.AddEdge(edge.NewDirect(from, to))
	return b
}

// AddConditionalEdge adds a conditional edge evaluated against the
// source node's output before advancing to to.
func (b *Builder) AddConditionalEdge(from, to string, cond edge.ConditionFunc) *Builder {
	b.graph.AddEdge(edge.NewConditional(from, to, cond))
	return b
}

// SetEntryPoint designates the node a compiled App starts from.
func (b *Builder) SetEntryPoint(name string) *Builder {
	b.graph.SetEntryPoint(name)
	return b
}

// Build returns the assembled StateGraph.
func (b *Builder) Build() *StateGraph {
	return b.graph
}

// LLMNodeBuilder configures a single LLMNode before it's added to the
// parent graph builder.
type LLMNodeBuilder struct {
	parent       *Builder
	id, name     string
	version      string
	signature    promptx.Signature
	model        llmnode.ChatModel
	demoSelector selector.ExampleSelector
}

// WithSignature sets the node's I/O contract.
func (lb *LLMNodeBuilder) WithSignature(sig promptx.Signature) *LLMNodeBuilder {
	lb.signature = sig
	return lb
}

// WithLLM binds the chat-completion model the node calls.
func (lb *LLMNodeBuilder) WithLLM(model llmnode.ChatModel) *LLMNodeBuilder {
	lb.model = model
	return lb
}

// WithVersion sets the node's version tag; defaults to "v1".
func (lb *LLMNodeBuilder) WithVersion(version string) *LLMNodeBuilder {
	lb.version = version
	return lb
}

// WithDemoSelector sets the example selector used to pick few-shot
// demos at execution time; omit to use the node's demo pool verbatim.
func (lb *LLMNodeBuilder) WithDemoSelector(sel selector.ExampleSelector) *LLMNodeBuilder {
	lb.demoSelector = sel
	return lb
}

// Build constructs the LLMNode, registers it on the parent graph, and
// returns the parent builder so calls chain back into graph assembly.
func (lb *LLMNodeBuilder) Build() *Builder {
	version := lb.version
	if version == "" {
		version = "v1"
	}
	node := llmnode.New(lb.id, lb.name, version, lb.signature, lb.model, lb.demoSelector)
	lb.parent.graph.AddNode(node)
	return lb.parent
}
