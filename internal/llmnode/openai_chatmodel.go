package llmnode

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ridgeline-labs/termflow/internal/domain/errors"
)

// OpenAIChatModel implements ChatModel against the OpenAI chat
// completion API, following the same client construction the
// workflow engine's node executors use.
type OpenAIChatModel struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIChatModel returns an OpenAIChatModel. An empty model falls
// back to "gpt-4o".
func NewOpenAIChatModel(apiKey, model string, temperature float32) *OpenAIChatModel {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIChatModel{client: openai.NewClient(apiKey), model: model, temperature: temperature}
}

// Generate sends messages as a single chat completion request and
// returns the first choice's content.
func (m *OpenAIChatModel) Generate(ctx context.Context, messages []Message) (string, error) {
	return m.generate(ctx, messages, m.temperature)
}

// GenerateWithTemperature overrides the model's configured temperature
// for one call; the adaptive-temperature optimizer path uses this.
func (m *OpenAIChatModel) GenerateWithTemperature(ctx context.Context, messages []Message, temperature float64) (string, error) {
	return m.generate(ctx, messages, float32(temperature))
}

func (m *OpenAIChatModel) generate(ctx context.Context, messages []Message, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: temperature,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.NewNodeExecutionError("", "", "llm-node", "chat-completion", 1, fmt.Sprintf("OpenAI API error: %v", err), err, true)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewNodeExecutionError("", "", "llm-node", "chat-completion", 1, "OpenAI returned no choices", nil, true)
	}
	return resp.Choices[0].Message.Content, nil
}
