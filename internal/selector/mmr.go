package selector

import (
	"context"

	"github.com/ridgeline-labs/termflow/internal/vectorstore"
)

// defaultMMRLambda matches the Python/Rust baselines' default
// relevance/diversity tradeoff.
const defaultMMRLambda = 0.5

// MaxMarginalRelevanceExampleSelector selects k examples that balance
// similarity to the input against diversity from each other, fetching
// fetchK candidates before reranking.
type MaxMarginalRelevanceExampleSelector struct {
	store       *vectorstore.Store
	k, fetchK   int
	exampleKeys []string
	inputKeys   []string
}

// NewMaxMarginalRelevanceExampleSelector returns an MMR selector over
// store.
func NewMaxMarginalRelevanceExampleSelector(store *vectorstore.Store, k, fetchK int, exampleKeys, inputKeys []string) *MaxMarginalRelevanceExampleSelector {
	return &MaxMarginalRelevanceExampleSelector{store: store, k: k, fetchK: fetchK, exampleKeys: exampleKeys, inputKeys: inputKeys}
}

// AddExample embeds and stores example, returning its generated ID.
func (s *MaxMarginalRelevanceExampleSelector) AddExample(ctx context.Context, example ExampleMap) (string, error) {
	text := exampleToText(example, s.inputKeys)
	metadata := make(map[string]any, len(example))
	for k, v := range example {
		metadata[k] = v
	}
	ids, err := s.store.AddTexts(ctx, []string{text}, []map[string]any{metadata})
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// SelectExamples runs max-marginal-relevance search over the input
// and returns the resulting examples.
func (s *MaxMarginalRelevanceExampleSelector) SelectExamples(ctx context.Context, input ExampleMap) ([]ExampleMap, error) {
	query := exampleToText(input, s.inputKeys)
	docs, err := s.store.MaxMarginalRelevanceSearch(ctx, query, s.k, s.fetchK, defaultMMRLambda)
	if err != nil {
		return nil, err
	}
	return documentsToExamples(docs, s.exampleKeys), nil
}
