// Package llmnode adapts a Signature into an executable graph node
// backed by a chat-completion model, and exposes the mutable surface
// (instructions, demos) that the optimize package tunes.
package llmnode

import "context"

// Message is one turn of a chat-completion request.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatModel is the minimal generation contract LLMNode and the
// optimizers depend on. A single call returns a single completion;
// callers that want several independent samples call Generate that
// many times (the optimizers run these concurrently themselves).
type ChatModel interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// TemperatureAwareModel is an optional ChatModel extension for
// transports that accept a per-call sampling temperature.
type TemperatureAwareModel interface {
	GenerateWithTemperature(ctx context.Context, messages []Message, temperature float64) (string, error)
}
