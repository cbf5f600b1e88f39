package llmnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/ridgeline-labs/termflow/internal/domain/errors"
	"github.com/ridgeline-labs/termflow/internal/node"
	"github.com/ridgeline-labs/termflow/internal/promptx"
	"github.com/ridgeline-labs/termflow/internal/selector"
)

// Optimizable is the mutable surface an optimizer needs to tune an
// LLMNode: its signature (instructions, field prefixes) and its pool
// of few-shot demonstrations.
type Optimizable interface {
	GetSignature() promptx.Signature
	SetSignature(sig promptx.Signature)
	GetDemos() []promptx.Example
	SetDemos(demos []promptx.Example)
}

// LLMNode adapts a Signature plus a ChatModel into a graph node: it
// renders a prompt from instructions, few-shot demos, and the current
// input, calls the model, and parses the response back into the
// signature's output fields.
type LLMNode struct {
	id, name, version string
	signature         promptx.Signature
	model             ChatModel
	demoSelector      selector.ExampleSelector
	demos             []promptx.Example
}

// New returns an LLMNode bound to signature and model. demoSelector is
// optional; when nil, demos are taken verbatim from SetDemos in
// insertion order.
func New(id, name, version string, signature promptx.Signature, model ChatModel, demoSelector selector.ExampleSelector) *LLMNode {
	return &LLMNode{id: id, name: name, version: version, signature: signature, model: model, demoSelector: demoSelector}
}

func (n *LLMNode) ID() string      { return n.id }
func (n *LLMNode) Name() string    { return n.name }
func (n *LLMNode) Version() string { return n.version }

// GetSignature returns the node's current signature.
func (n *LLMNode) GetSignature() promptx.Signature { return n.signature }

// SetSignature replaces the node's signature (instructions and/or
// prefixes), the mutation every optimizer performs on a winning
// candidate.
func (n *LLMNode) SetSignature(sig promptx.Signature) { n.signature = sig }

// GetDemos returns the node's current few-shot demonstration pool.
func (n *LLMNode) GetDemos() []promptx.Example { return n.demos }

// SetDemos replaces the node's few-shot demonstration pool.
func (n *LLMNode) SetDemos(demos []promptx.Example) { n.demos = demos }

// InputSchema reports the node's input fields as a flat name->"string"
// schema.
func (n *LLMNode) InputSchema() node.Schema {
	s := make(node.Schema, len(n.signature.InputFields))
	for _, f := range n.signature.InputFields {
		s[f.Name] = "string"
	}
	return s
}

// OutputSchema reports the node's output fields as a flat
// name->"string" schema.
func (n *LLMNode) OutputSchema() node.Schema {
	s := make(node.Schema, len(n.signature.OutputFields))
	for _, f := range n.signature.OutputFields {
		s[f.Name] = "string"
	}
	return s
}

// Validate requires every declared input field to be present in
// input.Data (a map[string]any).
func (n *LLMNode) Validate(input node.NodeInput) error {
	values, ok := input.Data.(map[string]any)
	if !ok {
		return errors.NewValidationError("input", "LLMNode input data must be map[string]any")
	}
	for _, f := range n.signature.InputFields {
		if _, ok := values[f.Name]; !ok {
			return errors.NewValidationError(f.Name, "missing required input field")
		}
	}
	return nil
}

// Execute renders the prompt, calls the model, and parses the
// response into the node's output fields.
func (n *LLMNode) Execute(ctx context.Context, input node.NodeInput) (node.NodeOutput, error) {
	if err := n.Validate(input); err != nil {
		return node.NodeOutput{}, err
	}
	values := input.Data.(map[string]any)

	demos, err := n.selectDemos(ctx, values)
	if err != nil {
		return node.NodeOutput{}, err
	}

	prompt := n.BuildPrompt(demos, values)
	raw, err := n.model.Generate(ctx, []Message{{Role: RoleUser, Content: prompt}})
	if err != nil {
		return node.NodeOutput{}, err
	}

	parsed := n.ParseOutput(raw)
	return node.NodeOutput{Data: parsed}, nil
}

func (n *LLMNode) selectDemos(ctx context.Context, values map[string]any) ([]promptx.Example, error) {
	if n.demoSelector == nil {
		return n.demos, nil
	}
	input := make(selector.ExampleMap, len(values))
	for k, v := range values {
		input[k] = fmt.Sprint(v)
	}
	selected, err := n.demoSelector.SelectExamples(ctx, input)
	if err != nil {
		return nil, err
	}
	out := make([]promptx.Example, len(selected))
	for i, s := range selected {
		ex := promptx.NewExample()
		for k, v := range s {
			ex.WithField(k, v)
		}
		out[i] = *ex
	}
	return out, nil
}

// BuildPrompt renders instructions, formatted few-shot demos, and the
// current input fields into a single completion prompt.
func (n *LLMNode) BuildPrompt(demos []promptx.Example, values map[string]any) string {
	var b strings.Builder

	if n.signature.Instructions != "" {
		b.WriteString(n.signature.Instructions)
		b.WriteString("\n\n")
	}

	for _, demo := range demos {
		for _, f := range n.signature.InputFields {
			if v, ok := demo.Get(f.Name); ok {
				fmt.Fprintf(&b, "%s %v\n", f.GetPrefix(), v)
			}
		}
		for _, f := range n.signature.OutputFields {
			if v, ok := demo.Get(f.Name); ok {
				fmt.Fprintf(&b, "%s %v\n", f.GetPrefix(), v)
			}
		}
		b.WriteString("\n")
	}

	for _, f := range n.signature.InputFields {
		if v, ok := values[f.Name]; ok {
			fmt.Fprintf(&b, "%s %v\n", f.GetPrefix(), v)
		}
	}

	if first, ok := n.signature.FirstOutputName(); ok {
		for _, f := range n.signature.OutputFields {
			if f.Name == first {
				fmt.Fprintf(&b, "%s", f.GetPrefix())
				break
			}
		}
	}

	return b.String()
}

// ParseOutput maps a raw completion onto the signature's output
// fields. Only the first output field is populated from the parsed
// response; any remaining output fields are left unset, matching the
// node's single-answer response format.
func (n *LLMNode) ParseOutput(raw string) map[string]any {
	out := make(map[string]any, len(n.signature.OutputFields))
	first, ok := n.signature.FirstOutputName()
	if !ok {
		return out
	}
	out[first] = strings.TrimSpace(stripPrefix(raw, n.signature))
	return out
}

func stripPrefix(raw string, sig promptx.Signature) string {
	first, ok := sig.FirstOutputName()
	if !ok {
		return raw
	}
	for _, f := range sig.OutputFields {
		if f.Name != first {
			continue
		}
		prefix := f.GetPrefix()
		if idx := strings.Index(raw, prefix); idx >= 0 {
			return raw[idx+len(prefix):]
		}
	}
	return raw
}
