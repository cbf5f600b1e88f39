package vectorstore

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder implements Embedder against OpenAI's embeddings
// endpoint, the same client construction the rest of the workflow
// core uses for chat completions.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder returns an OpenAIEmbedder using apiKey. An empty
// model falls back to text-embedding-3-small.
func NewOpenAIEmbedder(apiKey string, model openai.EmbeddingModel) *OpenAIEmbedder {
	if model == "" {
		model = openai.SmallEmbedding3
	}
	return &OpenAIEmbedder{client: openai.NewClient(apiKey), model: model}
}

// Embed satisfies Embedder by calling OpenAI's embeddings endpoint
// once for the whole batch.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}
