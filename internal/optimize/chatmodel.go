package optimize

import (
	"context"

	"github.com/ridgeline-labs/termflow/internal/llmnode"
)

// Message is one turn of a chat-completion request. It mirrors
// llmnode.Message field-for-field; the two stay separate types so a
// COPROv2 prompt model doesn't have to be a graph-node model, with
// FromNodeModel bridging the common case where it is.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatModel is the generation contract COPROv2 uses to draft and
// refine candidate instructions.
type ChatModel interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// TemperatureAwareModel is an optional ChatModel extension for
// transports that accept a per-call sampling temperature. COPROv2's
// adaptive-temperature mode uses it when available and falls back to
// plain Generate otherwise.
type TemperatureAwareModel interface {
	GenerateWithTemperature(ctx context.Context, messages []Message, temperature float64) (string, error)
}

// generate dispatches to GenerateWithTemperature when the model
// supports it.
func generate(ctx context.Context, model ChatModel, messages []Message, temperature float64) (string, error) {
	if tm, ok := model.(TemperatureAwareModel); ok {
		return tm.GenerateWithTemperature(ctx, messages, temperature)
	}
	return model.Generate(ctx, messages)
}

// FromNodeModel adapts a graph-node chat model so it can serve as
// COPROv2's prompt or task model. Temperature awareness is forwarded
// when the wrapped model supports it.
func FromNodeModel(model llmnode.ChatModel) ChatModel {
	return nodeModelAdapter{inner: model}
}

type nodeModelAdapter struct {
	inner llmnode.ChatModel
}

func (a nodeModelAdapter) Generate(ctx context.Context, messages []Message) (string, error) {
	return a.inner.Generate(ctx, convertMessages(messages))
}

func (a nodeModelAdapter) GenerateWithTemperature(ctx context.Context, messages []Message, temperature float64) (string, error) {
	if tm, ok := a.inner.(llmnode.TemperatureAwareModel); ok {
		return tm.GenerateWithTemperature(ctx, convertMessages(messages), temperature)
	}
	return a.inner.Generate(ctx, convertMessages(messages))
}

func convertMessages(messages []Message) []llmnode.Message {
	out := make([]llmnode.Message, len(messages))
	for i, m := range messages {
		out[i] = llmnode.Message{Role: m.Role, Content: m.Content}
	}
	return out
}
